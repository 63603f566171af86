package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/diagnosis/vms/internal/domain"
	"github.com/diagnosis/vms/pkg/database"
)

type VisitorRepository interface {
	Create(ctx context.Context, v *domain.Visitor) (*domain.Visitor, error)
	GetByID(ctx context.Context, id int64) (*domain.Visitor, error)
	FindByIdentifier(ctx context.Context, l domain.IdentifierLookup) (*domain.Visitor, error)
	List(ctx context.Context, f domain.VisitorFilter) ([]domain.Visitor, int64, error)
	ListActive(ctx context.Context) ([]domain.Visitor, error)
	Checkout(ctx context.Context, id int64, at time.Time) (*domain.Visitor, error)
	Update(ctx context.Context, id int64, patch *domain.VisitorPatch) (*domain.Visitor, error)
	History(ctx context.Context, v *domain.Visitor, limit int) ([]domain.Visitor, error)
	Stats(ctx context.Context, dayStart, dayEnd time.Time) (*domain.VisitorStats, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type visitorRepository struct {
	db database.DB
}

func NewVisitorRepository(db database.DB) VisitorRepository {
	return &visitorRepository{db: db}
}

const visitorCols = `id, first_name, last_name, email, phone, company, purpose, expected_duration,
	location, security_level, is_vip, aadhaar_id, pan_id, passport_id, driving_license_id, photo,
	temperature, health_declaration, notes, check_in_time, check_out_time, status, badge_id, qr_code,
	created_at, updated_at`

func scanVisitor(row pgx.Row) (*domain.Visitor, error) {
	var v domain.Visitor
	err := row.Scan(
		&v.ID, &v.FirstName, &v.LastName, &v.Email, &v.Phone, &v.Company, &v.Purpose, &v.ExpectedDuration,
		&v.Location, &v.SecurityLevel, &v.IsVIP, &v.AadhaarID, &v.PanID, &v.PassportID, &v.DrivingLicenseID, &v.Photo,
		&v.Temperature, &v.HealthDeclaration, &v.Notes, &v.CheckInTime, &v.CheckOutTime, &v.Status, &v.BadgeID, &v.QRCode,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// scanOptionalVisitor maps a missing row to nil, nil.
func scanOptionalVisitor(row pgx.Row) (*domain.Visitor, error) {
	v, err := scanVisitor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

func collectVisitors(rows pgx.Rows) ([]domain.Visitor, error) {
	defer rows.Close()

	visitors := []domain.Visitor{}
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		visitors = append(visitors, *v)
	}
	return visitors, rows.Err()
}

func (r *visitorRepository) Create(ctx context.Context, v *domain.Visitor) (*domain.Visitor, error) {
	const q = `
		INSERT INTO visitors (
			first_name, last_name, email, phone, company, purpose, expected_duration, location,
			security_level, is_vip, aadhaar_id, pan_id, passport_id, driving_license_id, photo,
			temperature, health_declaration, notes, check_in_time, status, badge_id, qr_code
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING ` + visitorCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanVisitor(r.db.QueryRow(ctx, q,
		v.FirstName, v.LastName, v.Email, v.Phone, v.Company, v.Purpose, v.ExpectedDuration, v.Location,
		v.SecurityLevel, v.IsVIP, v.AadhaarID, v.PanID, v.PassportID, v.DrivingLicenseID, v.Photo,
		v.Temperature, v.HealthDeclaration, v.Notes, v.CheckInTime, v.Status, v.BadgeID, v.QRCode,
	))
}

func (r *visitorRepository) GetByID(ctx context.Context, id int64) (*domain.Visitor, error) {
	const q = `SELECT ` + visitorCols + ` FROM visitors WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanOptionalVisitor(r.db.QueryRow(ctx, q, id))
}

// buildIdentifierQuery ORs every way an identifier can name a visitor and keeps the most recent visit.
func buildIdentifierQuery(l domain.IdentifierLookup) (string, []any) {
	args := []any{l.Raw}
	conds := []string{
		"badge_id = $1", "qr_code = $1", "phone = $1", "email = $1",
		"aadhaar_id = $1", "pan_id = $1", "passport_id = $1", "driving_license_id = $1",
	}

	if l.Digits != "" {
		args = append(args, l.Digits)
		if len(l.Digits) >= domain.MinSuffixDigits {
			conds = append(conds, fmt.Sprintf("regexp_replace(phone, '[^0-9]', '', 'g') LIKE '%%' || $%d", len(args)))
		} else {
			conds = append(conds, fmt.Sprintf("regexp_replace(phone, '[^0-9]', '', 'g') = $%d", len(args)))
		}
	}
	if l.UUID != "" {
		args = append(args, l.UUID)
		conds = append(conds, fmt.Sprintf("badge_id = $%d", len(args)))
	}
	if l.DataURL {
		conds = append(conds, "qr_code LIKE 'data:image/%'")
	}

	q := `SELECT ` + visitorCols + ` FROM visitors WHERE ` + strings.Join(conds, " OR ") +
		` ORDER BY check_in_time DESC LIMIT 1`
	return q, args
}

func (r *visitorRepository) FindByIdentifier(ctx context.Context, l domain.IdentifierLookup) (*domain.Visitor, error) {
	q, args := buildIdentifierQuery(l)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanOptionalVisitor(r.db.QueryRow(ctx, q, args...))
}

// buildVisitorWhere turns a filter into a WHERE clause. Placeholders start at $1.
func buildVisitorWhere(f domain.VisitorFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if len(f.Statuses) > 0 {
		add("status = ANY($%d)", toStrings(f.Statuses))
	}
	if f.From != nil {
		add("check_in_time >= $%d", *f.From)
	}
	if f.To != nil {
		add("check_in_time < $%d", *f.To)
	}
	if len(f.Purposes) > 0 {
		add("purpose = ANY($%d)", f.Purposes)
	}
	if len(f.Companies) > 0 {
		add("company = ANY($%d)", f.Companies)
	}
	if len(f.SecurityLevels) > 0 {
		add("security_level = ANY($%d)", toStrings(f.SecurityLevels))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func (r *visitorRepository) List(ctx context.Context, f domain.VisitorFilter) ([]domain.Visitor, int64, error) {
	f.Normalize()
	where, args := buildVisitorWhere(f)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM visitors`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + visitorCols + ` FROM visitors` + where +
		fmt.Sprintf(` ORDER BY check_in_time DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, q, append(args, f.Limit, f.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	visitors, err := collectVisitors(rows)
	if err != nil {
		return nil, 0, err
	}
	return visitors, total, nil
}

func (r *visitorRepository) ListActive(ctx context.Context) ([]domain.Visitor, error) {
	const q = `SELECT ` + visitorCols + ` FROM visitors WHERE status = $1 ORDER BY check_in_time DESC`
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, q, domain.VisitorCheckedIn)
	if err != nil {
		return nil, err
	}
	return collectVisitors(rows)
}

// Checkout closes a visit that is still open. Returns nil, nil when the visitor is missing or already out.
func (r *visitorRepository) Checkout(ctx context.Context, id int64, at time.Time) (*domain.Visitor, error) {
	const q = `
		UPDATE visitors
		SET status = $3, check_out_time = $2, updated_at = now()
		WHERE id = $1 AND status = $4
		RETURNING ` + visitorCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanOptionalVisitor(r.db.QueryRow(ctx, q, id, at, domain.VisitorCheckedOut, domain.VisitorCheckedIn))
}

// Update applies an edit-window patch. Optional columns set to an empty string are cleared.
func (r *visitorRepository) Update(ctx context.Context, id int64, p *domain.VisitorPatch) (*domain.Visitor, error) {
	const q = `
		UPDATE visitors
		SET
			first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			email = COALESCE($4, email),
			phone = COALESCE($5, phone),
			company = NULLIF(COALESCE($6, company), ''),
			purpose = COALESCE($7, purpose),
			notes = NULLIF(COALESCE($8, notes), ''),
			aadhaar_id = NULLIF(COALESCE($9, aadhaar_id), ''),
			pan_id = NULLIF(COALESCE($10, pan_id), ''),
			passport_id = NULLIF(COALESCE($11, passport_id), ''),
			driving_license_id = NULLIF(COALESCE($12, driving_license_id), ''),
			updated_at = now()
		WHERE id = $1 AND status = $13
		RETURNING ` + visitorCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanOptionalVisitor(r.db.QueryRow(ctx, q, id,
		p.FirstName, p.LastName, p.Email, p.Phone, p.Company, p.Purpose, p.Notes,
		p.AadhaarID, p.PanID, p.PassportID, p.DrivingLicenseID, domain.VisitorCheckedIn,
	))
}

// History finds earlier visits by the same person, matched on contact details or any government ID.
func (r *visitorRepository) History(ctx context.Context, v *domain.Visitor, limit int) ([]domain.Visitor, error) {
	const q = `
		SELECT ` + visitorCols + `
		FROM visitors
		WHERE id <> $1
			AND (email = $2 OR phone = $3 OR aadhaar_id = $4 OR pan_id = $5
				OR passport_id = $6 OR driving_license_id = $7)
		ORDER BY check_in_time DESC
		LIMIT $8`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, q, v.ID, v.Email, v.Phone,
		v.AadhaarID, v.PanID, v.PassportID, v.DrivingLicenseID, limit)
	if err != nil {
		return nil, err
	}
	return collectVisitors(rows)
}

func (r *visitorRepository) Stats(ctx context.Context, dayStart, dayEnd time.Time) (*domain.VisitorStats, error) {
	const totalsQ = `
		SELECT
			count(*) FILTER (WHERE check_in_time >= $1 AND check_in_time < $2),
			count(*) FILTER (WHERE status = $3),
			count(*)
		FROM visitors`
	const purposeQ = `
		SELECT purpose, count(*)
		FROM visitors
		GROUP BY purpose
		ORDER BY count(*) DESC, purpose`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	stats := &domain.VisitorStats{ByPurpose: []domain.PurposeCount{}}
	if err := r.db.QueryRow(ctx, totalsQ, dayStart, dayEnd, domain.VisitorCheckedIn).
		Scan(&stats.Today, &stats.Current, &stats.Total); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, purposeQ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var pc domain.PurposeCount
		if err := rows.Scan(&pc.Purpose, &pc.Count); err != nil {
			return nil, err
		}
		stats.ByPurpose = append(stats.ByPurpose, pc)
	}
	return stats, rows.Err()
}

func (r *visitorRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM visitors WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

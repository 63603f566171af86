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

type EmergencyRepository interface {
	Create(ctx context.Context, e *domain.Emergency) (*domain.Emergency, error)
	GetByID(ctx context.Context, id int64) (*domain.Emergency, error)
	List(ctx context.Context, f domain.EmergencyFilter) ([]domain.Emergency, int64, error)
	Transition(ctx context.Context, id int64, to domain.EmergencyStatus, by *int64, at time.Time) (*domain.Emergency, error)
}

type emergencyRepository struct {
	db database.DB
}

func NewEmergencyRepository(db database.DB) EmergencyRepository {
	return &emergencyRepository{db: db}
}

const emergencyCols = `id, type, incident_code, status, location, notes, reason, department_name,
	group_name, poc_name, poc_phone, representative_id_document, representative_id_number, headcount,
	visitor_first_name, visitor_last_name, visitor_phone, is_minor, guardian_contact, created_by,
	resolved_by, resolved_at, created_at, updated_at`

func scanEmergency(row pgx.Row) (*domain.Emergency, error) {
	var e domain.Emergency
	err := row.Scan(
		&e.ID, &e.Type, &e.IncidentCode, &e.Status, &e.Location, &e.Notes, &e.Reason, &e.DepartmentName,
		&e.GroupName, &e.PocName, &e.PocPhone, &e.RepresentativeIDDocument, &e.RepresentativeIDNumber, &e.Headcount,
		&e.VisitorFirstName, &e.VisitorLastName, &e.VisitorPhone, &e.IsMinor, &e.GuardianContact, &e.CreatedBy,
		&e.ResolvedBy, &e.ResolvedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanOptionalEmergency(row pgx.Row) (*domain.Emergency, error) {
	e, err := scanEmergency(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (r *emergencyRepository) Create(ctx context.Context, e *domain.Emergency) (*domain.Emergency, error) {
	const q = `
		INSERT INTO emergencies (
			type, incident_code, status, location, notes, reason, department_name, group_name,
			poc_name, poc_phone, representative_id_document, representative_id_number, headcount,
			visitor_first_name, visitor_last_name, visitor_phone, is_minor, guardian_contact,
			created_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $20)
		RETURNING ` + emergencyCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	created, err := scanEmergency(r.db.QueryRow(ctx, q,
		e.Type, e.IncidentCode, e.Status, e.Location, e.Notes, e.Reason, e.DepartmentName, e.GroupName,
		e.PocName, e.PocPhone, e.RepresentativeIDDocument, e.RepresentativeIDNumber, e.Headcount,
		e.VisitorFirstName, e.VisitorLastName, e.VisitorPhone, e.IsMinor, e.GuardianContact,
		e.CreatedBy, e.CreatedAt,
	))
	if isUniqueViolation(err) {
		return nil, domain.Conflictf("incident code %s already exists", e.IncidentCode)
	}
	return created, err
}

func (r *emergencyRepository) GetByID(ctx context.Context, id int64) (*domain.Emergency, error) {
	const q = `SELECT ` + emergencyCols + ` FROM emergencies WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanOptionalEmergency(r.db.QueryRow(ctx, q, id))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildEmergencyWhere turns a filter into a WHERE clause. Placeholders start at $1.
func buildEmergencyWhere(f domain.EmergencyFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "$?", fmt.Sprintf("$%d", len(args))))
	}

	if f.Type != nil {
		add("type = $?", string(*f.Type))
	}
	if f.Status != nil {
		add("status = $?", string(*f.Status))
	}
	if f.Location != nil {
		add("location = $?", *f.Location)
	}
	if f.From != nil {
		add("created_at >= $?", *f.From)
	}
	if f.To != nil {
		add("created_at <= $?", *f.To)
	}
	if f.Query != "" {
		add("(incident_code ILIKE $? OR department_name ILIKE $? OR poc_name ILIKE $?"+
			" OR visitor_first_name ILIKE $? OR visitor_last_name ILIKE $?)",
			"%"+likeEscaper.Replace(f.Query)+"%")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *emergencyRepository) List(ctx context.Context, f domain.EmergencyFilter) ([]domain.Emergency, int64, error) {
	f.Normalize()
	where, args := buildEmergencyWhere(f)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM emergencies`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + emergencyCols + ` FROM emergencies` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, q, append(args, f.Limit, f.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []domain.Emergency{}
	for rows.Next() {
		e, err := scanEmergency(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Transition moves an Active incident to a terminal status. Returns nil, nil when the incident is
// missing or no longer Active.
func (r *emergencyRepository) Transition(ctx context.Context, id int64, to domain.EmergencyStatus, by *int64, at time.Time) (*domain.Emergency, error) {
	const q = `
		UPDATE emergencies
		SET status = $2, resolved_by = $3, resolved_at = $4, updated_at = $4
		WHERE id = $1 AND status = $5
		RETURNING ` + emergencyCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanOptionalEmergency(r.db.QueryRow(ctx, q, id, to, by, at, domain.EmergencyActive))
}

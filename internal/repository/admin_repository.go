package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/diagnosis/vms/internal/domain"
	"github.com/diagnosis/vms/pkg/database"
)

type AdminRepository interface {
	Create(ctx context.Context, req *domain.CreateAdminRequest, passwordHash string) (*domain.Admin, error)
	FindByEmail(ctx context.Context, email string) (*domain.Admin, error)
	FindByID(ctx context.Context, id int64) (*domain.Admin, error)
	Update(ctx context.Context, id int64, ch *domain.AdminChanges) (*domain.Admin, error)
	ListActive(ctx context.Context, role *domain.Role) ([]domain.Admin, error)
	RecordFailedLogin(ctx context.Context, id int64, now time.Time, maxAttempts int, lockUntil time.Time) (*domain.Admin, error)
	RecordSuccessfulLogin(ctx context.Context, id int64, now time.Time) (*domain.Admin, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Stats(ctx context.Context, activeSince time.Time) (*domain.AdminStats, error)
}

type adminRepository struct {
	db database.DB
}

func NewAdminRepository(db database.DB) AdminRepository {
	return &adminRepository{db: db}
}

const adminCols = `id, username, email, password_hash, first_name, last_name, role, department,
	can_view_analytics, can_manage_visitors, can_manage_admins, can_export_data, can_view_reports,
	is_active, login_attempts, lock_until, last_login, created_at, updated_at`

func scanAdmin(row pgx.Row) (*domain.Admin, error) {
	var a domain.Admin
	err := row.Scan(
		&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.Role, &a.Department,
		&a.Permissions.CanViewAnalytics, &a.Permissions.CanManageVisitors, &a.Permissions.CanManageAdmins,
		&a.Permissions.CanExportData, &a.Permissions.CanViewReports,
		&a.IsActive, &a.LoginAttempts, &a.LockUntil, &a.LastLogin, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanOptionalAdmin(row pgx.Row) (*domain.Admin, error) {
	a, err := scanAdmin(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *adminRepository) Create(ctx context.Context, req *domain.CreateAdminRequest, passwordHash string) (*domain.Admin, error) {
	const q = `
		INSERT INTO admins (
			username, email, password_hash, first_name, last_name, role, department,
			can_view_analytics, can_manage_visitors, can_manage_admins, can_export_data, can_view_reports
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + adminCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	perms := domain.DefaultPermissions(req.Role)
	if req.Permissions != nil {
		perms = *req.Permissions
	}

	a, err := scanAdmin(r.db.QueryRow(ctx, q,
		req.Username, req.Email, passwordHash, req.FirstName, req.LastName, req.Role, req.Department,
		perms.CanViewAnalytics, perms.CanManageVisitors, perms.CanManageAdmins, perms.CanExportData, perms.CanViewReports,
	))
	if isUniqueViolation(err) {
		return nil, domain.Conflictf("Admin with this username or email already exists")
	}
	return a, err
}

func (r *adminRepository) FindByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	const q = `SELECT ` + adminCols + ` FROM admins WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanOptionalAdmin(r.db.QueryRow(ctx, q, email))
}

func (r *adminRepository) FindByID(ctx context.Context, id int64) (*domain.Admin, error) {
	const q = `SELECT ` + adminCols + ` FROM admins WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanOptionalAdmin(r.db.QueryRow(ctx, q, id))
}

func (r *adminRepository) Update(ctx context.Context, id int64, ch *domain.AdminChanges) (*domain.Admin, error) {
	const q = `
		UPDATE admins
		SET
			first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			email = COALESCE($4, email),
			department = COALESCE($5, department),
			role = COALESCE($6, role),
			can_view_analytics = COALESCE($7, can_view_analytics),
			can_manage_visitors = COALESCE($8, can_manage_visitors),
			can_manage_admins = COALESCE($9, can_manage_admins),
			can_export_data = COALESCE($10, can_export_data),
			can_view_reports = COALESCE($11, can_view_reports),
			is_active = COALESCE($12, is_active),
			password_hash = COALESCE($13, password_hash),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + adminCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var role *string
	if ch.Role != nil {
		s := string(*ch.Role)
		role = &s
	}
	var analytics, visitors, admins, export, reports *bool
	if p := ch.Permissions; p != nil {
		analytics, visitors, admins = &p.CanViewAnalytics, &p.CanManageVisitors, &p.CanManageAdmins
		export, reports = &p.CanExportData, &p.CanViewReports
	}

	a, err := scanOptionalAdmin(r.db.QueryRow(ctx, q, id,
		ch.FirstName, ch.LastName, ch.Email, ch.Department, role,
		analytics, visitors, admins, export, reports, ch.IsActive, ch.PasswordHash,
	))
	if isUniqueViolation(err) {
		return nil, domain.Conflictf("Admin with this email already exists")
	}
	return a, err
}

func (r *adminRepository) ListActive(ctx context.Context, role *domain.Role) ([]domain.Admin, error) {
	q := `SELECT ` + adminCols + ` FROM admins WHERE is_active`
	var args []any
	if role != nil {
		q += ` AND role = $1`
		args = append(args, *role)
	}
	q += ` ORDER BY created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	admins := []domain.Admin{}
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, *a)
	}
	return admins, rows.Err()
}

// RecordFailedLogin bumps the attempt counter and, once it reaches maxAttempts on an unlocked
// account, sets lock_until in the same statement. Concurrent failures cannot lose an increment.
func (r *adminRepository) RecordFailedLogin(ctx context.Context, id int64, now time.Time, maxAttempts int, lockUntil time.Time) (*domain.Admin, error) {
	const q = `
		UPDATE admins
		SET
			login_attempts = login_attempts + 1,
			lock_until = CASE
				WHEN login_attempts + 1 >= $2::int AND (lock_until IS NULL OR lock_until <= $3::timestamptz)
				THEN $4::timestamptz
				ELSE lock_until
			END,
			updated_at = $3::timestamptz
		WHERE id = $1
		RETURNING ` + adminCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanOptionalAdmin(r.db.QueryRow(ctx, q, id, maxAttempts, now, lockUntil))
}

// RecordSuccessfulLogin clears the lockout state and stamps last_login.
func (r *adminRepository) RecordSuccessfulLogin(ctx context.Context, id int64, now time.Time) (*domain.Admin, error) {
	const q = `
		UPDATE admins
		SET login_attempts = 0, lock_until = NULL, last_login = $2, updated_at = $2
		WHERE id = $1
		RETURNING ` + adminCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanOptionalAdmin(r.db.QueryRow(ctx, q, id, now))
}

func (r *adminRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const q = `UPDATE admins SET password_hash = $2, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.db.Exec(ctx, q, id, passwordHash)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *adminRepository) Stats(ctx context.Context, activeSince time.Time) (*domain.AdminStats, error) {
	const totalsQ = `
		SELECT count(*), count(*) FILTER (WHERE last_login >= $1)
		FROM admins
		WHERE is_active`
	const roleQ = `
		SELECT role, count(*)
		FROM admins
		WHERE is_active
		GROUP BY role
		ORDER BY role`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	stats := &domain.AdminStats{ByRole: []domain.RoleCount{}}
	if err := r.db.QueryRow(ctx, totalsQ, activeSince).Scan(&stats.TotalAdmins, &stats.ActiveToday); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, roleQ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rc domain.RoleCount
		if err := rows.Scan(&rc.Role, &rc.Count); err != nil {
			return nil, err
		}
		stats.ByRole = append(stats.ByRole, rc)
	}
	return stats, rows.Err()
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/diagnosis/vms/internal/domain"
	"github.com/diagnosis/vms/internal/platform/password"
	"github.com/diagnosis/vms/internal/repository"
	"github.com/diagnosis/vms/pkg/auth"
	"github.com/diagnosis/vms/pkg/logger"
)

type AuthService interface {
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	Authenticate(ctx context.Context, token string) (*domain.Admin, error)
	Profile(ctx context.Context, adminID int64) (*domain.Admin, error)
	UpdateProfile(ctx context.Context, adminID int64, req *domain.UpdateProfileRequest) (*domain.Admin, error)
	ChangePassword(ctx context.Context, adminID int64, req *domain.ChangePasswordRequest) error
}

// LockoutPolicy is the brute-force guard applied to failed logins.
type LockoutPolicy struct {
	MaxAttempts  int
	LockDuration time.Duration
}

type authService struct {
	admins  repository.AdminRepository
	hasher  password.Hasher
	tokens  *auth.Issuer
	lockout LockoutPolicy
	clock   clock
}

func NewAuthService(
	admins repository.AdminRepository,
	hasher password.Hasher,
	tokens *auth.Issuer,
	lockout LockoutPolicy,
) AuthService {
	if lockout.MaxAttempts <= 0 {
		lockout.MaxAttempts = domain.DefaultMaxLoginAttempts
	}
	if lockout.LockDuration <= 0 {
		lockout.LockDuration = domain.DefaultLockDuration
	}
	return &authService{
		admins:  admins,
		hasher:  hasher,
		tokens:  tokens,
		lockout: lockout,
	}
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	admin, err := s.admins.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	if admin == nil || !admin.IsActive {
		loginFailures.WithLabelValues("unknown").Inc()
		return nil, domain.Unauthorizedf("Invalid credentials")
	}

	now := s.clock.now()

	// A locked account is rejected before the password is checked and the counter is left alone.
	if admin.IsLocked(now) {
		loginFailures.WithLabelValues("locked").Inc()
		return nil, domain.Lockedf("Account is temporarily locked due to too many failed login attempts")
	}

	if !s.hasher.Compare(req.Password, admin.PasswordHash) {
		loginFailures.WithLabelValues("password").Inc()
		updated, err := s.admins.RecordFailedLogin(ctx, admin.ID, now, s.lockout.MaxAttempts, now.Add(s.lockout.LockDuration))
		if err != nil {
			logger.ErrorContext(ctx, "Failed to record failed login", "error", err, "admin_id", admin.ID)
		} else if updated != nil && updated.IsLocked(now) {
			accountLockouts.Inc()
			logger.WarnContext(ctx, "Admin account locked", "admin_id", admin.ID, "attempts", updated.LoginAttempts,
				"lock_until", updated.LockUntil)
		}
		return nil, domain.Unauthorizedf("Invalid credentials")
	}

	admin, err = s.admins.RecordSuccessfulLogin(ctx, admin.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	if admin == nil {
		return nil, domain.Unauthorizedf("Invalid credentials")
	}

	token, err := s.tokens.Sign(admin.ID, string(admin.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	logger.InfoContext(ctx, "Admin logged in", "admin_id", admin.ID, "role", admin.Role)
	return &domain.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
		Admin:     admin.ToAdminInfo(),
	}, nil
}

// Authenticate verifies a session token and loads the admin it was issued to.
func (s *authService) Authenticate(ctx context.Context, token string) (*domain.Admin, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, domain.Unauthorizedf("Invalid token")
	}

	admin, err := s.admins.FindByID(ctx, claims.AdminID)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}
	if admin == nil || !admin.IsActive {
		return nil, domain.Unauthorizedf("Invalid token")
	}
	return admin, nil
}

func (s *authService) Profile(ctx context.Context, adminID int64) (*domain.Admin, error) {
	admin, err := s.admins.FindByID(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}
	if admin == nil {
		return nil, domain.NotFoundf("Admin not found")
	}
	return admin, nil
}

func (s *authService) UpdateProfile(ctx context.Context, adminID int64, req *domain.UpdateProfileRequest) (*domain.Admin, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	admin, err := s.admins.Update(ctx, adminID, &domain.AdminChanges{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Department: req.Department,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if admin == nil {
		return nil, domain.NotFoundf("Admin not found")
	}
	return admin, nil
}

func (s *authService) ChangePassword(ctx context.Context, adminID int64, req *domain.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	admin, err := s.Profile(ctx, adminID)
	if err != nil {
		return err
	}
	if !s.hasher.Compare(req.CurrentPassword, admin.PasswordHash) {
		return domain.Validationf("Current password is incorrect")
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.admins.UpdatePassword(ctx, adminID, hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NotFoundf("Admin not found")
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	logger.InfoContext(ctx, "Admin password changed", "admin_id", adminID)
	return nil
}

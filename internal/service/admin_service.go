package service

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/vms/internal/domain"
	"github.com/diagnosis/vms/internal/platform/password"
	"github.com/diagnosis/vms/internal/repository"
	"github.com/diagnosis/vms/pkg/logger"
)

// AdminService manages staff accounts. Every method that takes an actor checks the actor's
// own role and permissions before touching the store.
type AdminService interface {
	// CreateAdmin creates any role, Admin by default. Only a Super Admin may call it.
	CreateAdmin(ctx context.Context, actor *domain.Admin, req *domain.CreateAdminRequest) (*domain.Admin, error)
	// CreateUser creates Security or Receptionist accounts, Security by default.
	CreateUser(ctx context.Context, actor *domain.Admin, req *domain.CreateAdminRequest) (*domain.Admin, error)
	// Bootstrap seeds a Super Admin without an acting account.
	Bootstrap(ctx context.Context, req *domain.CreateAdminRequest) (*domain.Admin, error)
	List(ctx context.Context, actor *domain.Admin) ([]domain.Admin, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.Admin, error)
	Update(ctx context.Context, actor *domain.Admin, id int64, req *domain.UpdateAdminRequest) (*domain.Admin, error)
	Deactivate(ctx context.Context, actor *domain.Admin, id int64) (*domain.Admin, error)
	Stats(ctx context.Context) (*domain.AdminStats, error)
}

type adminService struct {
	admins repository.AdminRepository
	hasher password.Hasher
	clock  clock
}

func NewAdminService(admins repository.AdminRepository, hasher password.Hasher) AdminService {
	return &adminService{admins: admins, hasher: hasher}
}

func (s *adminService) CreateAdmin(ctx context.Context, actor *domain.Admin, req *domain.CreateAdminRequest) (*domain.Admin, error) {
	if actor == nil || actor.Role != domain.RoleSuperAdmin {
		return nil, domain.Forbiddenf("Insufficient role")
	}
	req.Normalize(domain.RoleAdmin)
	return s.create(ctx, actor, req)
}

func (s *adminService) CreateUser(ctx context.Context, actor *domain.Admin, req *domain.CreateAdminRequest) (*domain.Admin, error) {
	if actor == nil || !actor.Role.Privileged() {
		return nil, domain.Forbiddenf("Insufficient role")
	}
	req.Normalize(domain.RoleSecurity)
	if req.Role != domain.RoleSecurity && req.Role != domain.RoleReceptionist {
		return nil, domain.Forbiddenf("Only Security or Receptionist roles are allowed here")
	}
	return s.create(ctx, actor, req)
}

func (s *adminService) Bootstrap(ctx context.Context, req *domain.CreateAdminRequest) (*domain.Admin, error) {
	req.Role = domain.RoleSuperAdmin
	req.Normalize(domain.RoleSuperAdmin)
	return s.create(ctx, nil, req)
}

func (s *adminService) create(ctx context.Context, actor *domain.Admin, req *domain.CreateAdminRequest) (*domain.Admin, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if actor != nil && !actor.Role.CanGrant(req.Role) {
		return nil, domain.Forbiddenf("Cannot create an account with role %s", req.Role)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin, err := s.admins.Create(ctx, req, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	attrs := []any{"admin_id", admin.ID, "role", admin.Role}
	if actor != nil {
		attrs = append(attrs, "created_by", actor.ID)
	}
	logger.InfoContext(ctx, "Admin account created", attrs...)
	return admin, nil
}

func (s *adminService) List(ctx context.Context, actor *domain.Admin) ([]domain.Admin, error) {
	if err := requireManageAdmins(actor); err != nil {
		return nil, err
	}
	admins, err := s.admins.ListActive(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return nonNilAdmins(admins), nil
}

func (s *adminService) ListByRole(ctx context.Context, role domain.Role) ([]domain.Admin, error) {
	if !role.Valid() {
		return nil, domain.Validationf("invalid role")
	}
	admins, err := s.admins.ListActive(ctx, &role)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return nonNilAdmins(admins), nil
}

func (s *adminService) Update(ctx context.Context, actor *domain.Admin, id int64, req *domain.UpdateAdminRequest) (*domain.Admin, error) {
	if _, err := s.loadManaged(ctx, actor, id); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ch := &domain.AdminChanges{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Department:  req.Department,
		Role:        req.Role,
		Permissions: req.Permissions,
		IsActive:    req.IsActive,
	}
	if req.Role != nil {
		if !actor.Role.CanGrant(*req.Role) {
			return nil, domain.Forbiddenf("Cannot assign role %s", *req.Role)
		}
		// A role change without explicit permissions takes the new role's defaults.
		if req.Permissions == nil {
			p := domain.DefaultPermissions(*req.Role)
			ch.Permissions = &p
		}
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		ch.PasswordHash = &hash
	}

	admin, err := s.admins.Update(ctx, id, ch)
	if err != nil {
		return nil, fmt.Errorf("failed to update admin: %w", err)
	}
	if admin == nil {
		return nil, domain.NotFoundf("Admin not found")
	}

	logger.InfoContext(ctx, "Admin account updated", "admin_id", id, "updated_by", actor.ID)
	return admin, nil
}

func (s *adminService) Deactivate(ctx context.Context, actor *domain.Admin, id int64) (*domain.Admin, error) {
	if _, err := s.loadManaged(ctx, actor, id); err != nil {
		return nil, err
	}

	inactive := false
	admin, err := s.admins.Update(ctx, id, &domain.AdminChanges{IsActive: &inactive})
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate admin: %w", err)
	}
	if admin == nil {
		return nil, domain.NotFoundf("Admin not found")
	}

	logger.InfoContext(ctx, "Admin account deactivated", "admin_id", id, "deactivated_by", actor.ID)
	return admin, nil
}

// loadManaged returns the target account if actor may modify it. Admins can
// only touch the roles they could grant themselves.
func (s *adminService) loadManaged(ctx context.Context, actor *domain.Admin, id int64) (*domain.Admin, error) {
	if err := requireManageAdmins(actor); err != nil {
		return nil, err
	}
	target, err := s.admins.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}
	if target == nil {
		return nil, domain.NotFoundf("Admin not found")
	}
	if !actor.Role.CanGrant(target.Role) {
		return nil, domain.Forbiddenf("Cannot modify an account with role %s", target.Role)
	}
	return target, nil
}

func (s *adminService) Stats(ctx context.Context) (*domain.AdminStats, error) {
	start, _ := dayBounds(s.clock.now().In(time.Local))
	stats, err := s.admins.Stats(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin stats: %w", err)
	}
	return stats, nil
}

func requireManageAdmins(actor *domain.Admin) error {
	if actor == nil || !actor.Permissions.CanManageAdmins {
		return domain.Forbiddenf("Insufficient permissions")
	}
	return nil
}

func nonNilAdmins(a []domain.Admin) []domain.Admin {
	if a == nil {
		return []domain.Admin{}
	}
	return a
}

package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/diagnosis/vms/internal/domain"
)

var fixedNow = time.Date(2024, 3, 5, 14, 22, 7, 0, time.UTC)

// testClock is a settable clock shared by a service and its test.
type testClock struct{ t time.Time }

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func strPtr(s string) *string { return &s }

type recordedEvent struct {
	subject string
	data    any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) Publish(_ context.Context, subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{subject: subject, data: data})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.subject)
	}
	return out
}

// plainHasher keeps tests fast; digests are "hashed:" + password.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (plainHasher) Compare(plain, digest string) bool { return digest == "hashed:"+plain }

type fakeVisitorRepo struct {
	rows   map[int64]*domain.Visitor
	nextID int64
}

func newFakeVisitorRepo() *fakeVisitorRepo {
	return &fakeVisitorRepo{rows: map[int64]*domain.Visitor{}}
}

func (r *fakeVisitorRepo) Create(_ context.Context, v *domain.Visitor) (*domain.Visitor, error) {
	r.nextID++
	c := *v
	c.ID = r.nextID
	c.CreatedAt = v.CheckInTime
	c.UpdatedAt = v.CheckInTime
	r.rows[c.ID] = &c
	out := c
	return &out, nil
}

func (r *fakeVisitorRepo) GetByID(_ context.Context, id int64) (*domain.Visitor, error) {
	v, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	out := *v
	return &out, nil
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (r *fakeVisitorRepo) FindByIdentifier(_ context.Context, l domain.IdentifierLookup) (*domain.Visitor, error) {
	eq := func(p *string) bool { return p != nil && *p == l.Raw }
	var best *domain.Visitor
	for _, v := range r.rows {
		match := v.BadgeID == l.Raw || v.QRCode == l.Raw || v.Phone == l.Raw || v.Email == l.Raw ||
			eq(v.AadhaarID) || eq(v.PanID) || eq(v.PassportID) || eq(v.DrivingLicenseID)
		if l.Digits != "" {
			stored := digitsOf(v.Phone)
			if len(l.Digits) >= domain.MinSuffixDigits {
				match = match || strings.HasSuffix(stored, l.Digits)
			} else {
				match = match || stored == l.Digits
			}
		}
		if l.UUID != "" && v.BadgeID == l.UUID {
			match = true
		}
		if l.DataURL && strings.HasPrefix(v.QRCode, "data:image/") {
			match = true
		}
		if match && (best == nil || v.CheckInTime.After(best.CheckInTime)) {
			best = v
		}
	}
	if best == nil {
		return nil, nil
	}
	out := *best
	return &out, nil
}

func (r *fakeVisitorRepo) sorted() []domain.Visitor {
	out := make([]domain.Visitor, 0, len(r.rows))
	for _, v := range r.rows {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckInTime.After(out[j].CheckInTime) })
	return out
}

func (r *fakeVisitorRepo) List(_ context.Context, f domain.VisitorFilter) ([]domain.Visitor, int64, error) {
	all := r.sorted()
	total := int64(len(all))
	start := f.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *fakeVisitorRepo) ListActive(_ context.Context) ([]domain.Visitor, error) {
	var out []domain.Visitor
	for _, v := range r.sorted() {
		if v.Status == domain.VisitorCheckedIn {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeVisitorRepo) Checkout(_ context.Context, id int64, at time.Time) (*domain.Visitor, error) {
	v, ok := r.rows[id]
	if !ok || v.Status != domain.VisitorCheckedIn {
		return nil, nil
	}
	v.Status = domain.VisitorCheckedOut
	v.CheckOutTime = &at
	out := *v
	return &out, nil
}

func (r *fakeVisitorRepo) Update(_ context.Context, id int64, p *domain.VisitorPatch) (*domain.Visitor, error) {
	v, ok := r.rows[id]
	if !ok || v.Status != domain.VisitorCheckedIn {
		return nil, nil
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setOpt := func(dst **string, src *string) {
		if src == nil {
			return
		}
		if *src == "" {
			*dst = nil
			return
		}
		s := *src
		*dst = &s
	}
	set(&v.FirstName, p.FirstName)
	set(&v.LastName, p.LastName)
	set(&v.Email, p.Email)
	set(&v.Phone, p.Phone)
	set(&v.Purpose, p.Purpose)
	setOpt(&v.Company, p.Company)
	setOpt(&v.Notes, p.Notes)
	setOpt(&v.AadhaarID, p.AadhaarID)
	setOpt(&v.PanID, p.PanID)
	setOpt(&v.PassportID, p.PassportID)
	setOpt(&v.DrivingLicenseID, p.DrivingLicenseID)
	out := *v
	return &out, nil
}

func (r *fakeVisitorRepo) History(_ context.Context, v *domain.Visitor, limit int) ([]domain.Visitor, error) {
	var out []domain.Visitor
	for _, o := range r.sorted() {
		if o.ID == v.ID {
			continue
		}
		if o.Email == v.Email || o.Phone == v.Phone {
			out = append(out, o)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeVisitorRepo) Stats(_ context.Context, dayStart, dayEnd time.Time) (*domain.VisitorStats, error) {
	s := &domain.VisitorStats{ByPurpose: []domain.PurposeCount{}}
	for _, v := range r.rows {
		s.Total++
		if v.Status == domain.VisitorCheckedIn {
			s.Current++
		}
		if !v.CheckInTime.Before(dayStart) && v.CheckInTime.Before(dayEnd) {
			s.Today++
		}
	}
	return s, nil
}

func (r *fakeVisitorRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := r.rows[id]; !ok {
		return false, nil
	}
	delete(r.rows, id)
	return true, nil
}

type fakeAdminRepo struct {
	rows   map[int64]*domain.Admin
	nextID int64
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{rows: map[int64]*domain.Admin{}}
}

func (r *fakeAdminRepo) add(a domain.Admin) *domain.Admin {
	r.nextID++
	a.ID = r.nextID
	r.rows[a.ID] = &a
	return &a
}

func (r *fakeAdminRepo) get(id int64) *domain.Admin {
	a, ok := r.rows[id]
	if !ok {
		return nil
	}
	out := *a
	return &out
}

func (r *fakeAdminRepo) Create(_ context.Context, req *domain.CreateAdminRequest, hash string) (*domain.Admin, error) {
	for _, a := range r.rows {
		if a.Email == req.Email || a.Username == req.Username {
			return nil, domain.Conflictf("Email or username already exists")
		}
	}
	a := r.add(domain.Admin{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		Department:   req.Department,
		Permissions:  *req.Permissions,
		IsActive:     true,
	})
	return r.get(a.ID), nil
}

func (r *fakeAdminRepo) FindByEmail(_ context.Context, email string) (*domain.Admin, error) {
	for id, a := range r.rows {
		if a.Email == email {
			return r.get(id), nil
		}
	}
	return nil, nil
}

func (r *fakeAdminRepo) FindByID(_ context.Context, id int64) (*domain.Admin, error) {
	return r.get(id), nil
}

func (r *fakeAdminRepo) Update(_ context.Context, id int64, ch *domain.AdminChanges) (*domain.Admin, error) {
	a, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	if ch.FirstName != nil {
		a.FirstName = *ch.FirstName
	}
	if ch.LastName != nil {
		a.LastName = *ch.LastName
	}
	if ch.Email != nil {
		a.Email = *ch.Email
	}
	if ch.Department != nil {
		a.Department = *ch.Department
	}
	if ch.Role != nil {
		a.Role = *ch.Role
	}
	if ch.Permissions != nil {
		a.Permissions = *ch.Permissions
	}
	if ch.IsActive != nil {
		a.IsActive = *ch.IsActive
	}
	if ch.PasswordHash != nil {
		a.PasswordHash = *ch.PasswordHash
	}
	return r.get(id), nil
}

func (r *fakeAdminRepo) ListActive(_ context.Context, role *domain.Role) ([]domain.Admin, error) {
	var out []domain.Admin
	for id := int64(1); id <= r.nextID; id++ {
		a, ok := r.rows[id]
		if !ok || !a.IsActive || (role != nil && a.Role != *role) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

// RecordFailedLogin mirrors the single-statement update in the Postgres store.
func (r *fakeAdminRepo) RecordFailedLogin(_ context.Context, id int64, now time.Time, maxAttempts int, lockUntil time.Time) (*domain.Admin, error) {
	a, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	a.LoginAttempts++
	if a.LoginAttempts >= maxAttempts && (a.LockUntil == nil || !a.LockUntil.After(now)) {
		lu := lockUntil
		a.LockUntil = &lu
	}
	return r.get(id), nil
}

func (r *fakeAdminRepo) RecordSuccessfulLogin(_ context.Context, id int64, now time.Time) (*domain.Admin, error) {
	a, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	a.LoginAttempts = 0
	a.LockUntil = nil
	a.LastLogin = &now
	return r.get(id), nil
}

func (r *fakeAdminRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	a, _ := r.Update(ctx, id, &domain.AdminChanges{PasswordHash: &hash})
	if a == nil {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *fakeAdminRepo) Stats(_ context.Context, since time.Time) (*domain.AdminStats, error) {
	s := &domain.AdminStats{ByRole: []domain.RoleCount{}}
	for _, a := range r.rows {
		s.TotalAdmins++
		if a.LastLogin != nil && !a.LastLogin.Before(since) {
			s.ActiveToday++
		}
	}
	return s, nil
}

type fakeEmergencyRepo struct {
	rows   map[int64]*domain.Emergency
	nextID int64
}

func newFakeEmergencyRepo() *fakeEmergencyRepo {
	return &fakeEmergencyRepo{rows: map[int64]*domain.Emergency{}}
}

func (r *fakeEmergencyRepo) Create(_ context.Context, e *domain.Emergency) (*domain.Emergency, error) {
	r.nextID++
	c := *e
	c.ID = r.nextID
	c.UpdatedAt = c.CreatedAt
	r.rows[c.ID] = &c
	out := c
	return &out, nil
}

func (r *fakeEmergencyRepo) GetByID(_ context.Context, id int64) (*domain.Emergency, error) {
	e, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	out := *e
	return &out, nil
}

func (r *fakeEmergencyRepo) List(_ context.Context, f domain.EmergencyFilter) ([]domain.Emergency, int64, error) {
	var out []domain.Emergency
	for id := r.nextID; id >= 1; id-- {
		e, ok := r.rows[id]
		if !ok || (f.Status != nil && e.Status != *f.Status) || (f.Type != nil && e.Type != *f.Type) {
			continue
		}
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (r *fakeEmergencyRepo) Transition(_ context.Context, id int64, to domain.EmergencyStatus, by *int64, at time.Time) (*domain.Emergency, error) {
	e, ok := r.rows[id]
	if !ok || e.Status != domain.EmergencyActive {
		return nil, nil
	}
	e.Status = to
	e.ResolvedBy = by
	e.ResolvedAt = &at
	out := *e
	return &out, nil
}

type fakeAlerts struct {
	sent []string
}

func (a *fakeAlerts) SendEmergencyAlert(_ context.Context, e *domain.Emergency) error {
	a.sent = append(a.sent, e.IncidentCode)
	return nil
}

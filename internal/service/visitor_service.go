package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/vms/internal/domain"
	"github.com/diagnosis/vms/internal/repository"
	"github.com/diagnosis/vms/pkg/events"
	"github.com/diagnosis/vms/pkg/logger"
)

const historyLimit = 10

type VisitorService interface {
	CheckIn(ctx context.Context, req *domain.CheckInRequest) (*domain.Visitor, error)
	Checkout(ctx context.Context, id int64) (*domain.Visitor, error)
	Edit(ctx context.Context, id int64, patch *domain.VisitorPatch) (*domain.Visitor, error)
	Get(ctx context.Context, id int64) (*domain.Visitor, error)
	List(ctx context.Context, f domain.VisitorFilter) (*domain.VisitorList, error)
	Active(ctx context.Context) ([]domain.Visitor, error)
	Overdue(ctx context.Context) ([]domain.Visitor, error)
	History(ctx context.Context, id int64) ([]domain.Visitor, error)
	Stats(ctx context.Context) (*domain.VisitorStats, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type visitorService struct {
	visitors   repository.VisitorRepository
	eventBus   events.Publisher
	editWindow time.Duration
	clock      clock
}

func NewVisitorService(visitors repository.VisitorRepository, eventBus events.Publisher, editWindow time.Duration) VisitorService {
	if editWindow <= 0 {
		editWindow = domain.DefaultEditWindow
	}
	return &visitorService{
		visitors:   visitors,
		eventBus:   eventBus,
		editWindow: editWindow,
	}
}

func (s *visitorService) CheckIn(ctx context.Context, req *domain.CheckInRequest) (*domain.Visitor, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.now()
	badge := uuid.NewString()
	qr := req.QRCode
	if qr == "" {
		qr = badge
	}

	v, err := s.visitors.Create(ctx, &domain.Visitor{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             req.Email,
		Phone:             req.Phone,
		Company:           req.Company,
		Purpose:           req.Purpose,
		ExpectedDuration:  req.ExpectedDuration,
		Location:          req.Location,
		SecurityLevel:     req.SecurityLevel,
		IsVIP:             req.IsVIP,
		AadhaarID:         req.AadhaarID,
		PanID:             req.PanID,
		PassportID:        req.PassportID,
		DrivingLicenseID:  req.DrivingLicenseID,
		Photo:             req.Photo,
		Temperature:       req.Temperature,
		HealthDeclaration: req.HealthDeclaration,
		Notes:             req.Notes,
		CheckInTime:       now,
		Status:            domain.VisitorCheckedIn,
		BadgeID:           badge,
		QRCode:            qr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check in visitor: %w", err)
	}

	visitorTransitions.WithLabelValues(string(domain.VisitorCheckedIn)).Inc()
	logger.InfoContext(ctx, "Visitor checked in", "visitor_id", v.ID, "badge_id", v.BadgeID)
	publish(ctx, s.eventBus, events.VisitorCheckIn, visitorEvent(v))
	return v, nil
}

func (s *visitorService) Checkout(ctx context.Context, id int64) (*domain.Visitor, error) {
	v, err := s.visitors.Checkout(ctx, id, s.clock.now())
	if err != nil {
		return nil, fmt.Errorf("failed to check out visitor: %w", err)
	}
	if v == nil {
		// Nothing was updated: tell a missing visitor apart from one already out.
		existing, err := s.visitors.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get visitor: %w", err)
		}
		if existing == nil {
			return nil, domain.NotFoundf("Visitor not found")
		}
		return nil, domain.InvalidStatef("Visitor already checked out")
	}

	visitorTransitions.WithLabelValues(string(domain.VisitorCheckedOut)).Inc()
	logger.InfoContext(ctx, "Visitor checked out", "visitor_id", v.ID)
	publish(ctx, s.eventBus, events.VisitorCheckOut, visitorEvent(v))
	return v, nil
}

func (s *visitorService) Edit(ctx context.Context, id int64, patch *domain.VisitorPatch) (*domain.Visitor, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.CanEdit(s.clock.now(), s.editWindow) {
		return nil, domain.Forbiddenf("Edit window expired")
	}

	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return v, nil
	}

	updated, err := s.visitors.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update visitor: %w", err)
	}
	if updated == nil {
		// Checked out between the read and the write.
		return nil, domain.Forbiddenf("Edit window expired")
	}
	return updated, nil
}

func (s *visitorService) Get(ctx context.Context, id int64) (*domain.Visitor, error) {
	v, err := s.visitors.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get visitor: %w", err)
	}
	if v == nil {
		return nil, domain.NotFoundf("Visitor not found")
	}
	return v, nil
}

func (s *visitorService) List(ctx context.Context, f domain.VisitorFilter) (*domain.VisitorList, error) {
	f.Normalize()

	rows, total, err := s.visitors.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list visitors: %w", err)
	}
	if rows == nil {
		rows = []domain.Visitor{}
	}
	return &domain.VisitorList{
		Visitors:    rows,
		Total:       total,
		CurrentPage: f.Page,
		TotalPages:  int((total + int64(f.Limit) - 1) / int64(f.Limit)),
	}, nil
}

func (s *visitorService) Active(ctx context.Context) ([]domain.Visitor, error) {
	rows, err := s.visitors.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active visitors: %w", err)
	}
	if rows == nil {
		rows = []domain.Visitor{}
	}
	return rows, nil
}

// Overdue is computed on each call from the checked-in set.
func (s *visitorService) Overdue(ctx context.Context) ([]domain.Visitor, error) {
	active, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.now()
	overdue := make([]domain.Visitor, 0, len(active))
	for i := range active {
		if active[i].IsOverdue(now) {
			overdue = append(overdue, active[i])
		}
	}
	return overdue, nil
}

func (s *visitorService) History(ctx context.Context, id int64) ([]domain.Visitor, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.visitors.History(ctx, v, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load visitor history: %w", err)
	}
	if rows == nil {
		rows = []domain.Visitor{}
	}
	return rows, nil
}

// Stats counts "today" in the server's local time zone.
func (s *visitorService) Stats(ctx context.Context) (*domain.VisitorStats, error) {
	start, end := dayBounds(s.clock.now().In(time.Local))
	stats, err := s.visitors.Stats(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load visitor stats: %w", err)
	}
	return stats, nil
}

func (s *visitorService) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := s.visitors.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete visitor: %w", err)
	}
	if ok {
		logger.InfoContext(ctx, "Visitor deleted", "visitor_id", id)
	}
	return ok, nil
}

func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

func visitorEvent(v *domain.Visitor) events.VisitorEvent {
	e := events.VisitorEvent{
		VisitorID:    v.ID,
		BadgeID:      v.BadgeID,
		FirstName:    v.FirstName,
		LastName:     v.LastName,
		Purpose:      v.Purpose,
		Location:     v.Location,
		Status:       string(v.Status),
		CheckInTime:  v.CheckInTime,
		CheckOutTime: v.CheckOutTime,
	}
	if v.Company != nil {
		e.Company = *v.Company
	}
	return e
}

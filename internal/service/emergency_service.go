package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/diagnosis/vms/internal/domain"
	"github.com/diagnosis/vms/internal/repository"
	"github.com/diagnosis/vms/pkg/events"
	"github.com/diagnosis/vms/pkg/logger"
)

// AlertSender notifies the security desk. A nil sender disables alerts.
type AlertSender interface {
	SendEmergencyAlert(ctx context.Context, e *domain.Emergency) error
}

type EmergencyService interface {
	Report(ctx context.Context, req *domain.ReportEmergencyRequest, reportedBy *int64) (*domain.Emergency, error)
	Get(ctx context.Context, id int64) (*domain.Emergency, error)
	List(ctx context.Context, f domain.EmergencyFilter) (*domain.EmergencyList, error)
	Resolve(ctx context.Context, id int64, by *int64) (*domain.Emergency, error)
	Cancel(ctx context.Context, id int64, by *int64) (*domain.Emergency, error)
}

type emergencyService struct {
	emergencies repository.EmergencyRepository
	eventBus    events.Publisher
	alerts      AlertSender
	clock       clock
	rand        io.Reader
	loc         *time.Location // wall clock printed in incident codes
}

func NewEmergencyService(
	emergencies repository.EmergencyRepository,
	eventBus events.Publisher,
	alerts AlertSender,
) EmergencyService {
	return &emergencyService{
		emergencies: emergencies,
		eventBus:    eventBus,
		alerts:      alerts,
		rand:        rand.Reader,
		loc:         time.Local,
	}
}

func (s *emergencyService) Report(ctx context.Context, req *domain.ReportEmergencyRequest, reportedBy *int64) (*domain.Emergency, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.now()
	code := req.IncidentCode
	if code == "" {
		var err error
		if code, err = domain.NewIncidentCode(now.In(s.loc), s.rand); err != nil {
			return nil, fmt.Errorf("failed to generate incident code: %w", err)
		}
	}

	e, err := s.emergencies.Create(ctx, &domain.Emergency{
		Type:                     req.Type,
		IncidentCode:             code,
		Status:                   domain.EmergencyActive,
		Location:                 req.Location,
		Notes:                    req.Notes,
		Reason:                   req.Reason,
		DepartmentName:           req.DepartmentName,
		GroupName:                req.GroupName,
		PocName:                  req.PocName,
		PocPhone:                 req.PocPhone,
		RepresentativeIDDocument: req.RepresentativeIDDocument,
		RepresentativeIDNumber:   req.RepresentativeIDNumber,
		Headcount:                req.Headcount,
		VisitorFirstName:         req.VisitorFirstName,
		VisitorLastName:          req.VisitorLastName,
		VisitorPhone:             req.VisitorPhone,
		IsMinor:                  req.IsMinor,
		GuardianContact:          req.GuardianContact,
		CreatedBy:                reportedBy,
		CreatedAt:                now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to report emergency: %w", err)
	}

	emergencyTransitions.WithLabelValues(string(e.Type), string(e.Status)).Inc()
	logger.WarnContext(ctx, "Emergency reported", "emergency_id", e.ID, "incident_code", e.IncidentCode,
		"type", e.Type, "location", e.Location)
	publish(ctx, s.eventBus, events.EmergencyCreated, emergencyEvent(e))

	if s.alerts != nil {
		if err := s.alerts.SendEmergencyAlert(ctx, e); err != nil {
			logger.ErrorContext(ctx, "Failed to send emergency alert", "error", err, "emergency_id", e.ID)
		}
	}
	return e, nil
}

func (s *emergencyService) Get(ctx context.Context, id int64) (*domain.Emergency, error) {
	e, err := s.emergencies.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get emergency: %w", err)
	}
	if e == nil {
		return nil, domain.NotFoundf("Emergency not found")
	}
	return e, nil
}

func (s *emergencyService) List(ctx context.Context, f domain.EmergencyFilter) (*domain.EmergencyList, error) {
	f.Normalize()
	rows, total, err := s.emergencies.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list emergencies: %w", err)
	}
	if rows == nil {
		rows = []domain.Emergency{}
	}
	return &domain.EmergencyList{Emergencies: rows, Total: total}, nil
}

func (s *emergencyService) Resolve(ctx context.Context, id int64, by *int64) (*domain.Emergency, error) {
	return s.transition(ctx, id, domain.EmergencyResolved, by)
}

func (s *emergencyService) Cancel(ctx context.Context, id int64, by *int64) (*domain.Emergency, error) {
	return s.transition(ctx, id, domain.EmergencyCancelled, by)
}

// transition moves an Active incident to a terminal status. Terminal incidents stay as they are.
func (s *emergencyService) transition(ctx context.Context, id int64, to domain.EmergencyStatus, by *int64) (*domain.Emergency, error) {
	e, err := s.emergencies.Transition(ctx, id, to, by, s.clock.now())
	if err != nil {
		return nil, fmt.Errorf("failed to update emergency: %w", err)
	}
	if e == nil {
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, domain.InvalidStatef("Emergency is already %s", current.Status)
	}

	emergencyTransitions.WithLabelValues(string(e.Type), string(e.Status)).Inc()
	logger.InfoContext(ctx, "Emergency closed", "emergency_id", e.ID, "status", e.Status)
	publish(ctx, s.eventBus, events.EmergencyUpdated, emergencyEvent(e))
	return e, nil
}

func emergencyEvent(e *domain.Emergency) events.EmergencyEvent {
	return events.EmergencyEvent{
		EmergencyID:  e.ID,
		IncidentCode: e.IncidentCode,
		Type:         string(e.Type),
		Status:       string(e.Status),
		Location:     e.Location,
		CreatedAt:    e.CreatedAt,
		ResolvedAt:   e.ResolvedAt,
	}
}

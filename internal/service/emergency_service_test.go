package service

import (
	"bytes"
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/vms/internal/domain"
	"github.com/diagnosis/vms/pkg/events"
)

func newTestEmergencyService(t *testing.T) (*emergencyService, *fakePublisher, *fakeAlerts, *testClock) {
	t.Helper()
	bus := &fakePublisher{}
	alerts := &fakeAlerts{}
	clk := &testClock{t: fixedNow}
	svc := NewEmergencyService(newFakeEmergencyRepo(), bus, alerts).(*emergencyService)
	svc.clock = clk.now
	svc.loc = time.UTC
	return svc, bus, alerts, clk
}

func TestEmergencyService_Report(t *testing.T) {
	svc, bus, alerts, _ := newTestEmergencyService(t)

	e, err := svc.Report(context.Background(), &domain.ReportEmergencyRequest{
		Type:           domain.EmergencyDepartmental,
		DepartmentName: strPtr(" Finance "),
		Headcount:      intPtr(12),
	}, nil)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^EMG-20240305-142207-[A-Z0-9]{4}$`), e.IncidentCode)
	assert.Equal(t, domain.EmergencyActive, e.Status)
	assert.Equal(t, domain.DefaultLocation, e.Location)
	assert.Equal(t, "Finance", *e.DepartmentName)
	assert.Nil(t, e.ResolvedAt)
	assert.Equal(t, []string{events.EmergencyCreated}, bus.subjects())
	assert.Equal(t, []string{e.IncidentCode}, alerts.sent)
}

func TestEmergencyService_ReportDeterministicSuffix(t *testing.T) {
	svc, _, _, _ := newTestEmergencyService(t)
	svc.rand = bytes.NewReader([]byte{0, 25, 26, 61})

	e, err := svc.Report(context.Background(), &domain.ReportEmergencyRequest{Type: domain.EmergencyVisitor}, nil)
	require.NoError(t, err)
	assert.Equal(t, "EMG-20240305-142207-AZ0Z", e.IncidentCode)
}

func TestEmergencyService_ReportCodeUsesLocalWallClock(t *testing.T) {
	svc, _, _, _ := newTestEmergencyService(t)
	svc.loc = time.FixedZone("IST", 5*3600+30*60)
	svc.rand = bytes.NewReader([]byte{0, 25, 26, 61})

	e, err := svc.Report(context.Background(), &domain.ReportEmergencyRequest{Type: domain.EmergencyVisitor}, nil)
	require.NoError(t, err)
	assert.Equal(t, "EMG-20240305-195207-AZ0Z", e.IncidentCode)
	assert.Equal(t, fixedNow, e.CreatedAt)
}

func TestEmergencyService_ReportKeepsSuppliedCode(t *testing.T) {
	svc, _, _, _ := newTestEmergencyService(t)
	by := int64(3)

	e, err := svc.Report(context.Background(), &domain.ReportEmergencyRequest{
		Type:         domain.EmergencyVisitor,
		IncidentCode: "DRILL-7",
	}, &by)
	require.NoError(t, err)
	assert.Equal(t, "DRILL-7", e.IncidentCode)
	assert.Equal(t, &by, e.CreatedBy)
}

func TestEmergencyService_ReportValidation(t *testing.T) {
	svc, bus, alerts, _ := newTestEmergencyService(t)

	tests := []struct {
		name string
		req  *domain.ReportEmergencyRequest
	}{
		{name: "unknown type", req: &domain.ReportEmergencyRequest{Type: "Fire"}},
		{name: "minor without guardian", req: &domain.ReportEmergencyRequest{Type: domain.EmergencyVisitor, IsMinor: true}},
		{name: "negative headcount", req: &domain.ReportEmergencyRequest{Type: domain.EmergencyDepartmental, Headcount: intPtr(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Report(context.Background(), tt.req, nil)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
	assert.Empty(t, bus.subjects())
	assert.Empty(t, alerts.sent)
}

func TestEmergencyService_Transitions(t *testing.T) {
	svc, bus, _, clk := newTestEmergencyService(t)
	ctx := context.Background()
	by := int64(1)

	first, err := svc.Report(ctx, &domain.ReportEmergencyRequest{Type: domain.EmergencyVisitor}, nil)
	require.NoError(t, err)
	second, err := svc.Report(ctx, &domain.ReportEmergencyRequest{Type: domain.EmergencyVisitor}, nil)
	require.NoError(t, err)

	clk.advance(10 * time.Minute)
	resolved, err := svc.Resolve(ctx, first.ID, &by)
	require.NoError(t, err)
	assert.Equal(t, domain.EmergencyResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, fixedNow.Add(10*time.Minute), *resolved.ResolvedAt)
	assert.Equal(t, &by, resolved.ResolvedBy)

	_, err = svc.Resolve(ctx, first.ID, &by)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = svc.Cancel(ctx, first.ID, &by)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, "Emergency is already Resolved", domain.Message(err))

	cancelled, err := svc.Cancel(ctx, second.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.EmergencyCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.ResolvedAt)

	_, err = svc.Resolve(ctx, 404, &by)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, []string{
		events.EmergencyCreated, events.EmergencyCreated, events.EmergencyUpdated, events.EmergencyUpdated,
	}, bus.subjects())
}

func TestEmergencyService_List(t *testing.T) {
	svc, _, _, _ := newTestEmergencyService(t)
	ctx := context.Background()

	for _, typ := range []domain.EmergencyType{domain.EmergencyVisitor, domain.EmergencyDepartmental, domain.EmergencyVisitor} {
		_, err := svc.Report(ctx, &domain.ReportEmergencyRequest{Type: typ}, nil)
		require.NoError(t, err)
	}

	typ := domain.EmergencyVisitor
	list, err := svc.List(ctx, domain.EmergencyFilter{Type: &typ})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
	assert.Len(t, list.Emergencies, 2)

	status := domain.EmergencyResolved
	list, err = svc.List(ctx, domain.EmergencyFilter{Status: &status})
	require.NoError(t, err)
	assert.NotNil(t, list.Emergencies)
	assert.Empty(t, list.Emergencies)
}

func intPtr(i int) *int { return &i }

package domain

import (
	"bytes"
	"crypto/rand"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var incidentCodePattern = regexp.MustCompile(`^EMG-20240305-142207-[A-Z0-9]{4}$`)

func TestNewIncidentCode(t *testing.T) {
	at := time.Date(2024, 3, 5, 14, 22, 7, 0, time.UTC)

	for i := 0; i < 50; i++ {
		code, err := NewIncidentCode(at, rand.Reader)
		require.NoError(t, err)
		assert.Regexp(t, incidentCodePattern, code)
	}
}

func TestNewIncidentCodeDeterministicSuffix(t *testing.T) {
	at := time.Date(2024, 3, 5, 14, 22, 7, 0, time.UTC)

	code, err := NewIncidentCode(at, bytes.NewReader([]byte{0, 25, 26, 35}))
	require.NoError(t, err)
	assert.Equal(t, "EMG-20240305-142207-AZ09", code)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestNewIncidentCodeReaderError(t *testing.T) {
	_, err := NewIncidentCode(time.Now(), failingReader{})
	assert.Error(t, err)
}

func TestReportEmergencyRequestValidate(t *testing.T) {
	req := &ReportEmergencyRequest{Type: "Fire"}
	assert.ErrorIs(t, req.Validate(), ErrValidation)

	req = &ReportEmergencyRequest{Type: EmergencyVisitor, IsMinor: true, GuardianContact: strPtr("  ")}
	req.Normalize()
	assert.ErrorIs(t, req.Validate(), ErrValidation)

	req.GuardianContact = strPtr("555-0199")
	assert.NoError(t, req.Validate())

	req = &ReportEmergencyRequest{Type: EmergencyDepartmental, DepartmentName: strPtr(" Finance ")}
	req.Normalize()
	assert.NoError(t, req.Validate())
	assert.Equal(t, "Finance", *req.DepartmentName)
}


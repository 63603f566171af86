package domain

import (
	"io"
	"strings"
	"time"
)

type EmergencyType string

const (
	EmergencyDepartmental EmergencyType = "Departmental"
	EmergencyVisitor      EmergencyType = "Visitor"
)

func (t EmergencyType) Valid() bool {
	return t == EmergencyDepartmental || t == EmergencyVisitor
}

type EmergencyStatus string

const (
	EmergencyActive    EmergencyStatus = "Active"
	EmergencyResolved  EmergencyStatus = "Resolved"
	EmergencyCancelled EmergencyStatus = "Cancelled"
)

func (s EmergencyStatus) Valid() bool {
	switch s {
	case EmergencyActive, EmergencyResolved, EmergencyCancelled:
		return true
	}
	return false
}

type Emergency struct {
	ID                       int64           `json:"id"`
	Type                     EmergencyType   `json:"type"`
	IncidentCode             string          `json:"incidentCode"`
	Status                   EmergencyStatus `json:"status"`
	Location                 string          `json:"location"`
	Notes                    *string         `json:"notes,omitempty"`
	Reason                   *string         `json:"reason,omitempty"`
	DepartmentName           *string         `json:"departmentName,omitempty"`
	GroupName                *string         `json:"groupName,omitempty"`
	PocName                  *string         `json:"pocName,omitempty"`
	PocPhone                 *string         `json:"pocPhone,omitempty"`
	RepresentativeIDDocument *string         `json:"representativeIdDocument,omitempty"`
	RepresentativeIDNumber   *string         `json:"representativeIdNumber,omitempty"`
	Headcount                *int            `json:"headcount,omitempty"`
	VisitorFirstName         *string         `json:"visitorFirstName,omitempty"`
	VisitorLastName          *string         `json:"visitorLastName,omitempty"`
	VisitorPhone             *string         `json:"visitorPhone,omitempty"`
	IsMinor                  bool            `json:"isMinor"`
	GuardianContact          *string         `json:"guardianContact,omitempty"`
	CreatedBy                *int64          `json:"createdBy,omitempty"`
	ResolvedBy               *int64          `json:"resolvedBy,omitempty"`
	ResolvedAt               *time.Time      `json:"resolvedAt,omitempty"`
	CreatedAt                time.Time       `json:"createdAt"`
	UpdatedAt                time.Time       `json:"updatedAt"`
}

type ReportEmergencyRequest struct {
	Type                     EmergencyType `json:"type"`
	IncidentCode             string        `json:"incidentCode,omitempty"`
	Location                 string        `json:"location"`
	Notes                    *string       `json:"notes,omitempty"`
	Reason                   *string       `json:"reason,omitempty"`
	DepartmentName           *string       `json:"departmentName,omitempty"`
	GroupName                *string       `json:"groupName,omitempty"`
	PocName                  *string       `json:"pocName,omitempty"`
	PocPhone                 *string       `json:"pocPhone,omitempty"`
	RepresentativeIDDocument *string       `json:"representativeIdDocument,omitempty"`
	RepresentativeIDNumber   *string       `json:"representativeIdNumber,omitempty"`
	Headcount                *int          `json:"headcount,omitempty"`
	VisitorFirstName         *string       `json:"visitorFirstName,omitempty"`
	VisitorLastName          *string       `json:"visitorLastName,omitempty"`
	VisitorPhone             *string       `json:"visitorPhone,omitempty"`
	IsMinor                  bool          `json:"isMinor"`
	GuardianContact          *string       `json:"guardianContact,omitempty"`
}

func (r *ReportEmergencyRequest) Normalize() {
	r.IncidentCode = strings.TrimSpace(r.IncidentCode)
	r.Location = strings.TrimSpace(r.Location)
	if r.Location == "" {
		r.Location = DefaultLocation
	}
	for _, s := range []**string{
		&r.Notes, &r.Reason, &r.DepartmentName, &r.GroupName, &r.PocName, &r.PocPhone,
		&r.RepresentativeIDDocument, &r.RepresentativeIDNumber, &r.VisitorFirstName,
		&r.VisitorLastName, &r.VisitorPhone, &r.GuardianContact,
	} {
		*s = trimOptional(*s)
	}
}

func (r *ReportEmergencyRequest) Validate() error {
	if !r.Type.Valid() {
		return Validationf("type must be Departmental or Visitor")
	}
	if r.Headcount != nil && *r.Headcount < 0 {
		return Validationf("headcount cannot be negative")
	}
	if r.IsMinor && r.GuardianContact == nil {
		return Validationf("guardianContact is required for a minor")
	}
	return nil
}

const (
	DefaultEmergencyPageSize = 50
	MaxEmergencyPageSize     = 200
)

// EmergencyFilter narrows an incident listing. Query is a free-text search.
type EmergencyFilter struct {
	Type     *EmergencyType
	Status   *EmergencyStatus
	Location *string
	From     *time.Time // inclusive, on created_at
	To       *time.Time // inclusive, on created_at
	Query    string
	Page     int
	Limit    int
}

func (f *EmergencyFilter) Normalize() {
	f.Query = strings.TrimSpace(f.Query)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultEmergencyPageSize
	}
	if f.Limit > MaxEmergencyPageSize {
		f.Limit = MaxEmergencyPageSize
	}
}

func (f *EmergencyFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type EmergencyList struct {
	Emergencies []Emergency `json:"emergencies"`
	Total       int64       `json:"total"`
}

const incidentAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewIncidentCode formats EMG-YYYYMMDD-HHMMSS-XXXX from t, with XXXX drawn from rnd.
func NewIncidentCode(t time.Time, rnd io.Reader) (string, error) {
	buf := make([]byte, 4)
	if _, err := io.ReadFull(rnd, buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = incidentAlphabet[int(b)%len(incidentAlphabet)]
	}
	return "EMG-" + t.Format("20060102-150405") + "-" + string(buf), nil
}

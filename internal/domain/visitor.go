package domain

import (
	"strings"
	"time"
)

type VisitorStatus string

const (
	VisitorCheckedIn  VisitorStatus = "Checked In"
	VisitorCheckedOut VisitorStatus = "Checked Out"
	VisitorExpired    VisitorStatus = "Expired"
)

func (s VisitorStatus) Valid() bool {
	switch s {
	case VisitorCheckedIn, VisitorCheckedOut, VisitorExpired:
		return true
	}
	return false
}

type SecurityLevel string

const (
	SecurityLow    SecurityLevel = "Low"
	SecurityMedium SecurityLevel = "Medium"
	SecurityHigh   SecurityLevel = "High"
)

func (l SecurityLevel) Valid() bool {
	switch l {
	case SecurityLow, SecurityMedium, SecurityHigh:
		return true
	}
	return false
}

const (
	DefaultExpectedDuration = 60 // minutes
	DefaultLocation         = "Main Lobby"
	DefaultEditWindow       = time.Hour
)

type Visitor struct {
	ID                int64         `json:"id"`
	FirstName         string        `json:"firstName"`
	LastName          string        `json:"lastName"`
	Email             string        `json:"email"`
	Phone             string        `json:"phone"`
	Company           *string       `json:"company,omitempty"`
	Purpose           string        `json:"purpose"`
	ExpectedDuration  int           `json:"expectedDuration"`
	Location          string        `json:"location"`
	SecurityLevel     SecurityLevel `json:"securityLevel"`
	IsVIP             bool          `json:"isVip"`
	AadhaarID         *string       `json:"aadhaarId,omitempty"`
	PanID             *string       `json:"panId,omitempty"`
	PassportID        *string       `json:"passportId,omitempty"`
	DrivingLicenseID  *string       `json:"drivingLicenseId,omitempty"`
	Photo             *string       `json:"photo,omitempty"`
	Temperature       *float64      `json:"temperature,omitempty"`
	HealthDeclaration bool          `json:"healthDeclaration"`
	Notes             *string       `json:"notes,omitempty"`
	CheckInTime       time.Time     `json:"checkInTime"`
	CheckOutTime      *time.Time    `json:"checkOutTime,omitempty"`
	Status            VisitorStatus `json:"status"`
	BadgeID           string        `json:"badgeId"`
	QRCode            string        `json:"qrCode"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// Deadline is the moment the visit is expected to end.
func (v *Visitor) Deadline() time.Time {
	return v.CheckInTime.Add(time.Duration(v.ExpectedDuration) * time.Minute)
}

// IsOverdue reports whether a checked-in visitor has passed the expected duration.
func (v *Visitor) IsOverdue(now time.Time) bool {
	return v.Status == VisitorCheckedIn && now.After(v.Deadline())
}

// CanEdit reports whether the correction window is still open at now.
func (v *Visitor) CanEdit(now time.Time, window time.Duration) bool {
	return v.Status == VisitorCheckedIn && now.Sub(v.CheckInTime) <= window
}

type CheckInRequest struct {
	FirstName         string        `json:"firstName"`
	LastName          string        `json:"lastName"`
	Email             string        `json:"email"`
	Phone             string        `json:"phone"`
	Company           *string       `json:"company,omitempty"`
	Purpose           string        `json:"purpose"`
	ExpectedDuration  int           `json:"expectedDuration"`
	Location          string        `json:"location"`
	SecurityLevel     SecurityLevel `json:"securityLevel"`
	IsVIP             bool          `json:"isVip"`
	AadhaarID         *string       `json:"aadhaarId,omitempty"`
	PanID             *string       `json:"panId,omitempty"`
	PassportID        *string       `json:"passportId,omitempty"`
	DrivingLicenseID  *string       `json:"drivingLicenseId,omitempty"`
	Photo             *string       `json:"photo,omitempty"`
	Temperature       *float64      `json:"temperature,omitempty"`
	HealthDeclaration bool          `json:"healthDeclaration"`
	Notes             *string       `json:"notes,omitempty"`
	QRCode            string        `json:"qrCode,omitempty"`
}

func (r *CheckInRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = normalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Purpose = strings.TrimSpace(r.Purpose)
	r.Location = strings.TrimSpace(r.Location)
	r.QRCode = strings.TrimSpace(r.QRCode)
	r.Company = trimOptional(r.Company)
	r.AadhaarID = trimOptional(r.AadhaarID)
	r.PanID = trimOptional(r.PanID)
	r.PassportID = trimOptional(r.PassportID)
	r.DrivingLicenseID = trimOptional(r.DrivingLicenseID)
	r.Notes = trimOptional(r.Notes)

	if r.ExpectedDuration == 0 {
		r.ExpectedDuration = DefaultExpectedDuration
	}
	if r.Location == "" {
		r.Location = DefaultLocation
	}
	if r.SecurityLevel == "" {
		r.SecurityLevel = SecurityLow
	}
}

func (r *CheckInRequest) Validate() error {
	if r.FirstName == "" {
		return Validationf("firstName is required")
	}
	if r.LastName == "" {
		return Validationf("lastName is required")
	}
	if r.Email == "" {
		return Validationf("email is required")
	}
	if !isValidEmail(r.Email) {
		return Validationf("invalid email format")
	}
	if r.Phone == "" {
		return Validationf("phone is required")
	}
	if !isValidPhone(r.Phone) {
		return Validationf("invalid phone format")
	}
	if r.Purpose == "" {
		return Validationf("purpose is required")
	}
	if r.ExpectedDuration < 0 {
		return Validationf("expectedDuration must be positive")
	}
	if !r.SecurityLevel.Valid() {
		return Validationf("invalid securityLevel")
	}
	return nil
}

// VisitorPatch carries the fields that may be corrected inside the edit window.
// Anything else in a request body is ignored.
type VisitorPatch struct {
	FirstName        *string `json:"firstName,omitempty"`
	LastName         *string `json:"lastName,omitempty"`
	Email            *string `json:"email,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	Company          *string `json:"company,omitempty"`
	Purpose          *string `json:"purpose,omitempty"`
	Notes            *string `json:"notes,omitempty"`
	AadhaarID        *string `json:"aadhaarId,omitempty"`
	PanID            *string `json:"panId,omitempty"`
	PassportID       *string `json:"passportId,omitempty"`
	DrivingLicenseID *string `json:"drivingLicenseId,omitempty"`
}

func (p *VisitorPatch) Normalize() {
	p.FirstName = trimPatch(p.FirstName)
	p.LastName = trimPatch(p.LastName)
	if p.Email != nil {
		e := normalizeEmail(*p.Email)
		p.Email = &e
	}
	p.Phone = trimPatch(p.Phone)
	p.Company = trimPatch(p.Company)
	p.Purpose = trimPatch(p.Purpose)
	p.Notes = trimPatch(p.Notes)
	p.AadhaarID = trimPatch(p.AadhaarID)
	p.PanID = trimPatch(p.PanID)
	p.PassportID = trimPatch(p.PassportID)
	p.DrivingLicenseID = trimPatch(p.DrivingLicenseID)
}

func (p *VisitorPatch) Validate() error {
	required := []struct {
		name  string
		value *string
	}{
		{"firstName", p.FirstName},
		{"lastName", p.LastName},
		{"email", p.Email},
		{"phone", p.Phone},
		{"purpose", p.Purpose},
	}
	for _, f := range required {
		if f.value != nil && *f.value == "" {
			return Validationf("%s cannot be empty", f.name)
		}
	}
	if p.Email != nil && !isValidEmail(*p.Email) {
		return Validationf("invalid email format")
	}
	if p.Phone != nil && !isValidPhone(*p.Phone) {
		return Validationf("invalid phone format")
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p *VisitorPatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Phone == nil &&
		p.Company == nil && p.Purpose == nil && p.Notes == nil && p.AadhaarID == nil &&
		p.PanID == nil && p.PassportID == nil && p.DrivingLicenseID == nil
}

const (
	DefaultVisitorPageSize = 100
	MaxVisitorPageSize     = 500
)

// VisitorFilter narrows a visitor listing. Zero values mean "no constraint".
type VisitorFilter struct {
	Statuses       []VisitorStatus
	From           *time.Time // inclusive, on check-in time
	To             *time.Time // exclusive, on check-in time
	Purposes       []string
	Companies      []string
	SecurityLevels []SecurityLevel
	Page           int
	Limit          int
}

func (f *VisitorFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultVisitorPageSize
	}
	if f.Limit > MaxVisitorPageSize {
		f.Limit = MaxVisitorPageSize
	}
}

func (f *VisitorFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type VisitorList struct {
	Visitors    []Visitor `json:"visitors"`
	Total       int64     `json:"total"`
	CurrentPage int       `json:"currentPage"`
	TotalPages  int       `json:"totalPages"`
}

type PurposeCount struct {
	Purpose string `json:"purpose"`
	Count   int64  `json:"count"`
}

type VisitorStats struct {
	Today     int64          `json:"today"`
	Current   int64          `json:"current"`
	Total     int64          `json:"total"`
	ByPurpose []PurposeCount `json:"byPurpose"`
}

package repository

import (
	"time"

	"github.com/pashagolub/pgxmock/v3"

	"github.com/diagnosis/vms/internal/domain"
)

func strPtr(s string) *string { return &s }

var fixedNow = time.Date(2024, 3, 5, 14, 22, 7, 0, time.UTC)

var visitorColumns = []string{
	"id", "first_name", "last_name", "email", "phone", "company", "purpose", "expected_duration",
	"location", "security_level", "is_vip", "aadhaar_id", "pan_id", "passport_id", "driving_license_id", "photo",
	"temperature", "health_declaration", "notes", "check_in_time", "check_out_time", "status", "badge_id", "qr_code",
	"created_at", "updated_at",
}

// visitorValues lays out v in column order with the exact Go types the scanner expects.
func visitorValues(v domain.Visitor) []any {
	return []any{
		v.ID, v.FirstName, v.LastName, v.Email, v.Phone, v.Company, v.Purpose, v.ExpectedDuration,
		v.Location, v.SecurityLevel, v.IsVIP, v.AadhaarID, v.PanID, v.PassportID, v.DrivingLicenseID, v.Photo,
		v.Temperature, v.HealthDeclaration, v.Notes, v.CheckInTime, v.CheckOutTime, v.Status, v.BadgeID, v.QRCode,
		v.CreatedAt, v.UpdatedAt,
	}
}

func sampleVisitor(id int64) domain.Visitor {
	return domain.Visitor{
		ID:               id,
		FirstName:        "Ada",
		LastName:         "Lovelace",
		Email:            "ada@example.com",
		Phone:            "+1-555-0101",
		Company:          strPtr("Analytical Engines"),
		Purpose:          "Meeting",
		ExpectedDuration: 60,
		Location:         domain.DefaultLocation,
		SecurityLevel:    domain.SecurityLow,
		CheckInTime:      fixedNow,
		Status:           domain.VisitorCheckedIn,
		BadgeID:          "3f2504e0-4f89-11d3-9a0c-0305e82c3301",
		QRCode:           "3f2504e0-4f89-11d3-9a0c-0305e82c3301",
		CreatedAt:        fixedNow,
		UpdatedAt:        fixedNow,
	}
}

func visitorRows(vs ...domain.Visitor) *pgxmock.Rows {
	rows := pgxmock.NewRows(visitorColumns)
	for _, v := range vs {
		rows.AddRow(visitorValues(v)...)
	}
	return rows
}

var adminColumns = []string{
	"id", "username", "email", "password_hash", "first_name", "last_name", "role", "department",
	"can_view_analytics", "can_manage_visitors", "can_manage_admins", "can_export_data", "can_view_reports",
	"is_active", "login_attempts", "lock_until", "last_login", "created_at", "updated_at",
}

func adminRows(as ...domain.Admin) *pgxmock.Rows {
	rows := pgxmock.NewRows(adminColumns)
	for _, a := range as {
		rows.AddRow(
			a.ID, a.Username, a.Email, a.PasswordHash, a.FirstName, a.LastName, a.Role, a.Department,
			a.Permissions.CanViewAnalytics, a.Permissions.CanManageVisitors, a.Permissions.CanManageAdmins,
			a.Permissions.CanExportData, a.Permissions.CanViewReports,
			a.IsActive, a.LoginAttempts, a.LockUntil, a.LastLogin, a.CreatedAt, a.UpdatedAt,
		)
	}
	return rows
}

func sampleAdmin(id int64, role domain.Role) domain.Admin {
	return domain.Admin{
		ID:          id,
		Username:    "admin",
		Email:       "admin@example.com",
		FirstName:   "Default",
		LastName:    "Admin",
		Role:        role,
		Department:  "Management",
		Permissions: domain.DefaultPermissions(role),
		IsActive:    true,
		CreatedAt:   fixedNow,
		UpdatedAt:   fixedNow,
	}
}

var emergencyColumns = []string{
	"id", "type", "incident_code", "status", "location", "notes", "reason", "department_name",
	"group_name", "poc_name", "poc_phone", "representative_id_document", "representative_id_number", "headcount",
	"visitor_first_name", "visitor_last_name", "visitor_phone", "is_minor", "guardian_contact", "created_by",
	"resolved_by", "resolved_at", "created_at", "updated_at",
}

func emergencyRows(es ...domain.Emergency) *pgxmock.Rows {
	rows := pgxmock.NewRows(emergencyColumns)
	for _, e := range es {
		rows.AddRow(
			e.ID, e.Type, e.IncidentCode, e.Status, e.Location, e.Notes, e.Reason, e.DepartmentName,
			e.GroupName, e.PocName, e.PocPhone, e.RepresentativeIDDocument, e.RepresentativeIDNumber, e.Headcount,
			e.VisitorFirstName, e.VisitorLastName, e.VisitorPhone, e.IsMinor, e.GuardianContact, e.CreatedBy,
			e.ResolvedBy, e.ResolvedAt, e.CreatedAt, e.UpdatedAt,
		)
	}
	return rows
}

func sampleEmergency(id int64, status domain.EmergencyStatus) domain.Emergency {
	return domain.Emergency{
		ID:             id,
		Type:           domain.EmergencyDepartmental,
		IncidentCode:   "EMG-20240305-142207-AB12",
		Status:         status,
		Location:       "Main Lobby",
		DepartmentName: strPtr("Finance"),
		CreatedAt:      fixedNow,
		UpdatedAt:      fixedNow,
	}
}

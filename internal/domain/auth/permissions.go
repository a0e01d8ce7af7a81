package auth

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

const (
	PermTimeOwn        = "time.own"
	PermTimeCorrect    = "time.correct"
	PermLeaveOwn       = "leave.own"
	PermLeaveApprove   = "leave.approve"
	PermPayrollOwnRead = "payroll.own.read"
	PermPayrollRead    = "payroll.read"
	PermPayrollWrite   = "payroll.write"
	PermPayrollRun     = "payroll.run"
	PermPayrollExport  = "payroll.export"
	PermShiftRead      = "shift.read"
	PermShiftWrite     = "shift.write"
	PermCalendarWrite  = "calendar.write"
	PermAuditRead      = "audit.read"
	PermSettingsWrite  = "settings.write"
	PermReportsRead    = "reports.read"
)

var AllPermissions = []string{
	PermTimeOwn,
	PermTimeCorrect,
	PermLeaveOwn,
	PermLeaveApprove,
	PermPayrollOwnRead,
	PermPayrollRead,
	PermPayrollWrite,
	PermPayrollRun,
	PermPayrollExport,
	PermShiftRead,
	PermShiftWrite,
	PermCalendarWrite,
	PermAuditRead,
	PermSettingsWrite,
	PermReportsRead,
}

var RolePermissions = map[string][]string{
	RoleAdmin: AllPermissions,
	RoleEmployee: {
		PermTimeOwn,
		PermLeaveOwn,
		PermPayrollOwnRead,
		PermShiftRead,
	},
}

func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

func HasPermission(role, permission string) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

package models

// UserRole represents the closed set of roles the API recognises.
type UserRole string

const (
	RoleSuperAdmin  UserRole = "SUPERADMIN"
	RoleAdmin       UserRole = "ADMIN"
	RoleCoordinator UserRole = "COORDINATOR"
	RoleTeacher     UserRole = "TEACHER"
	RoleStudent     UserRole = "STUDENT"
)

// Capability is an action a role may be granted.
type Capability string

const (
	CapScheduleRead    Capability = "schedule:read"
	CapScheduleWrite   Capability = "schedule:write"
	CapSectionWrite    Capability = "section:write"
	CapEnrollmentRead  Capability = "enrollment:read"
	CapEnrollmentWrite Capability = "enrollment:write"
	CapScoreWrite      Capability = "score:write"
	CapScoreFinalize   Capability = "score:finalize"
	CapAttendanceWrite Capability = "attendance:write"
	CapReportRead      Capability = "report:read"
)

// roleCapabilities is the single source of truth for authorisation decisions.
var roleCapabilities = map[UserRole][]Capability{
	RoleSuperAdmin: {
		CapScheduleRead, CapScheduleWrite, CapSectionWrite, CapEnrollmentRead, CapEnrollmentWrite,
		CapScoreWrite, CapScoreFinalize, CapAttendanceWrite, CapReportRead,
	},
	RoleAdmin: {
		CapScheduleRead, CapScheduleWrite, CapSectionWrite, CapEnrollmentRead, CapEnrollmentWrite,
		CapScoreWrite, CapScoreFinalize, CapAttendanceWrite, CapReportRead,
	},
	RoleCoordinator: {
		CapScheduleRead, CapScheduleWrite, CapEnrollmentRead, CapEnrollmentWrite,
		CapScoreFinalize, CapReportRead,
	},
	RoleTeacher: {
		CapScheduleRead, CapEnrollmentRead, CapScoreWrite, CapAttendanceWrite, CapReportRead,
	},
	RoleStudent: {
		CapScheduleRead, CapReportRead,
	},
}

// Valid reports whether the role belongs to the known set.
func (r UserRole) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether the role holds the capability.
func (r UserRole) Can(capability Capability) bool {
	for _, c := range roleCapabilities[r] {
		if c == capability {
			return true
		}
	}
	return false
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Capabilities returns a copy of the role's grants.
func (r UserRole) Capabilities() []Capability {
	granted := roleCapabilities[r]
	out := make([]Capability, len(granted))
	copy(out, granted)
	return out
}

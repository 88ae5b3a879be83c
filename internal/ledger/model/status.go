package model

// Lifecycle status shared by squads and users.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

// User roles.
const (
	RoleSuperAdmin = "super-admin"
	RoleAdmin      = "admin"
	RoleMember     = "member"
)

// IO statuses.
const (
	IOStatusNominated = "nominated"
	IOStatusSeconded  = "seconded"
	IOStatusAccepted  = "accepted"
	IOStatusPaid      = "paid"
	IOStatusVoided    = "voided"
)

// Notification types.
const (
	NotificationIONominated = "io_nominated"
	NotificationIOSeconded  = "io_seconded"
	NotificationIOAccepted  = "io_accepted"
	NotificationIOPaid      = "io_paid"
	NotificationIOVoided    = "io_voided"
	NotificationRankChanged = "rank_changed"
)

// User settings themes.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

var (
	lifecycleStatuses = []string{StatusActive, StatusInactive, StatusSuspended}
	roles             = []string{RoleSuperAdmin, RoleAdmin, RoleMember}
	ioStatuses        = []string{IOStatusNominated, IOStatusSeconded, IOStatusAccepted, IOStatusPaid, IOStatusVoided}
	notificationTypes = []string{
		NotificationIONominated,
		NotificationIOSeconded,
		NotificationIOAccepted,
		NotificationIOPaid,
		NotificationIOVoided,
		NotificationRankChanged,
	}
)

// ioTransitions maps an IO status to the statuses it may move to.
var ioTransitions = map[string][]string{
	IOStatusNominated: {IOStatusSeconded, IOStatusVoided},
	IOStatusSeconded:  {IOStatusAccepted, IOStatusVoided},
	IOStatusAccepted:  {IOStatusPaid, IOStatusVoided},
}

// CanTransitionIO reports whether an IO may move from one status to another.
func CanTransitionIO(from, to string) bool {
	for _, next := range ioTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsLifecycleStatus reports whether s is a valid squad or user status.
func IsLifecycleStatus(s string) bool { return oneOf(s, lifecycleStatuses) }

// IsRole reports whether s is a valid user role.
func IsRole(s string) bool { return oneOf(s, roles) }

// IsNotificationType reports whether s is a valid notification type.
func IsNotificationType(s string) bool { return oneOf(s, notificationTypes) }

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

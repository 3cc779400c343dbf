package carpool

// UserStatus is the moderation state of a member.
type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
)

// User is a platform member as shown in the admin panel. Role here is the
// member's carpool preference (driver, rider or both), not an access role.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	Status       UserStatus `json:"status"`
	JoinDate     string     `json:"joinDate"`
	TripsOffered int        `json:"tripsOffered"`
	TripsBooked  int        `json:"tripsBooked"`
}

// Stats are the admin panel headline numbers.
type Stats struct {
	TotalUsers     int `json:"totalUsers"`
	ActiveTrips    int `json:"activeTrips"`
	SuspendedUsers int `json:"suspendedUsers"`
	TotalReports   int `json:"totalReports"`
}

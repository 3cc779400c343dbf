package carpool

// TripStatus tracks where a posted trip is in its life.
type TripStatus string

const (
	TripActive    TripStatus = "active"
	TripCompleted TripStatus = "completed"
	TripCancelled TripStatus = "cancelled"
)

// Trip is a ride offered by a driver to a TD office.
type Trip struct {
	ID             string     `json:"id"`
	Driver         string     `json:"driver"`
	Origin         string     `json:"origin"`
	Destination    string     `json:"destination"`
	Date           string     `json:"date"`
	Time           string     `json:"time"`
	AvailableSeats int        `json:"availableSeats"`
	TotalSeats     int        `json:"totalSeats"`
	Price          *float64   `json:"price,omitempty"`
	Status         TripStatus `json:"status"`
	Bookings       int        `json:"bookings"`
	Reports        int        `json:"reports"`
	Notes          string     `json:"notes,omitempty"`
	Recurring      bool       `json:"recurring"`
	AutoApprove    bool       `json:"autoApprove"`
}

// TripDraft is what a driver submits from the "Offer a Ride" form.
type TripDraft struct {
	Driver      string   `json:"driver"`
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Seats       int      `json:"seats"`
	Price       *float64 `json:"price,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Recurring   bool     `json:"recurring"`
	AutoApprove *bool    `json:"autoApprove,omitempty"`
}

// Destinations are the TD offices a trip may target.
var Destinations = []string{"TD Centre", "TD Tower", "TD North Tower", "TD Waterfront"}

// MaxSeats is the largest seat count the form offers.
const MaxSeats = 4

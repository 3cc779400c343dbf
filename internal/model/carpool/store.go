package carpool

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTripNotFound = errors.New("trip not found")
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidTrip  = errors.New("invalid trip")
)

// Store exposes the mock trip and member data behind the dashboard and admin panel.
type Store interface {
	SearchTrips(query string) []Trip
	CreateTrip(draft TripDraft) (Trip, error)
	DeleteTrip(id string) error
	ListUsers() []User
	ToggleUserStatus(id string) (User, error)
	Stats() Stats
}

// MemoryStore implements Store over in-memory slices.
type MemoryStore struct {
	mu    sync.RWMutex
	trips []Trip
	users []User
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied records.
func NewMemoryStore(trips []Trip, users []User) *MemoryStore {
	return &MemoryStore{
		trips: append([]Trip(nil), trips...),
		users: append([]User(nil), users...),
	}
}

// SearchTrips returns trips whose origin, destination or driver contains
// query, ignoring case. An empty query returns every trip.
func (s *MemoryStore) SearchTrips(query string) []Trip {
	needle := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Trip, 0, len(s.trips))
	for _, trip := range s.trips {
		if needle == "" ||
			strings.Contains(strings.ToLower(trip.Origin), needle) ||
			strings.Contains(strings.ToLower(trip.Destination), needle) ||
			strings.Contains(strings.ToLower(trip.Driver), needle) {
			out = append(out, trip)
		}
	}
	return out
}

// CreateTrip validates a draft and appends it as an active trip.
func (s *MemoryStore) CreateTrip(draft TripDraft) (Trip, error) {
	if err := validateDraft(draft); err != nil {
		return Trip{}, err
	}

	autoApprove := true
	if draft.AutoApprove != nil {
		autoApprove = *draft.AutoApprove
	}

	trip := Trip{
		ID:             uuid.NewString(),
		Driver:         strings.TrimSpace(draft.Driver),
		Origin:         strings.TrimSpace(draft.Origin),
		Destination:    canonicalDestination(draft.Destination),
		Date:           draft.Date,
		Time:           draft.Time,
		AvailableSeats: draft.Seats,
		TotalSeats:     draft.Seats,
		Price:          draft.Price,
		Status:         TripActive,
		Notes:          strings.TrimSpace(draft.Notes),
		Recurring:      draft.Recurring,
		AutoApprove:    autoApprove,
	}

	s.mu.Lock()
	s.trips = append(s.trips, trip)
	s.mu.Unlock()

	return trip, nil
}

// DeleteTrip removes a trip by identifier.
func (s *MemoryStore) DeleteTrip(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, trip := range s.trips {
		if trip.ID == id {
			s.trips = append(s.trips[:i], s.trips[i+1:]...)
			return nil
		}
	}
	return ErrTripNotFound
}

// ListUsers returns every member.
func (s *MemoryStore) ListUsers() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]User(nil), s.users...)
}

// ToggleUserStatus flips a member between active and suspended.
func (s *MemoryStore) ToggleUserStatus(id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID != id {
			continue
		}
		if s.users[i].Status == UserActive {
			s.users[i].Status = UserSuspended
		} else {
			s.users[i].Status = UserActive
		}
		return s.users[i], nil
	}
	return User{}, ErrUserNotFound
}

// Stats computes the admin panel counters.
func (s *MemoryStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{TotalUsers: len(s.users)}
	for _, user := range s.users {
		if user.Status == UserSuspended {
			stats.SuspendedUsers++
		}
	}
	for _, trip := range s.trips {
		if trip.Status == TripActive {
			stats.ActiveTrips++
		}
		stats.TotalReports += trip.Reports
	}
	return stats
}

func validateDraft(d TripDraft) error {
	switch {
	case strings.TrimSpace(d.Driver) == "":
		return fmt.Errorf("%w: driver is required", ErrInvalidTrip)
	case strings.TrimSpace(d.Origin) == "":
		return fmt.Errorf("%w: origin is required", ErrInvalidTrip)
	case canonicalDestination(d.Destination) == "":
		return fmt.Errorf("%w: destination must be one of %s", ErrInvalidTrip, strings.Join(Destinations, ", "))
	case d.Seats < 1 || d.Seats > MaxSeats:
		return fmt.Errorf("%w: seats must be between 1 and %d", ErrInvalidTrip, MaxSeats)
	case d.Price != nil && *d.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidTrip)
	}

	if _, err := time.Parse("2006-01-02", d.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidTrip)
	}
	if _, err := time.Parse("15:04", d.Time); err != nil {
		return fmt.Errorf("%w: time must be HH:MM", ErrInvalidTrip)
	}
	return nil
}

// canonicalDestination accepts an office name or its form slug
// ("td-centre") and returns the display name, or "" when unknown.
func canonicalDestination(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	for _, name := range Destinations {
		if key == strings.ToLower(name) || key == strings.ReplaceAll(strings.ToLower(name), " ", "-") {
			return name
		}
	}
	return ""
}

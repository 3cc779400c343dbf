package carpool

func price(v float64) *float64 { return &v }

// SeedTrips provides the demo trips shown on the dashboard and admin panel.
func SeedTrips() []Trip {
	return []Trip{
		{
			ID:             "1",
			Driver:         "Sarah Johnson",
			Origin:         "Downtown Toronto",
			Destination:    "TD Centre",
			Date:           "2024-01-15",
			Time:           "08:30",
			AvailableSeats: 2,
			TotalSeats:     4,
			Price:          price(15),
			Status:         TripActive,
			Bookings:       2,
			AutoApprove:    true,
		},
		{
			ID:             "2",
			Driver:         "Mike Chen",
			Origin:         "Mississauga",
			Destination:    "TD Tower",
			Date:           "2024-01-15",
			Time:           "09:00",
			AvailableSeats: 1,
			TotalSeats:     3,
			Price:          price(20),
			Status:         TripActive,
			Bookings:       3,
			Reports:        1,
			AutoApprove:    true,
		},
		{
			ID:             "3",
			Driver:         "Emily Davis",
			Origin:         "North York",
			Destination:    "TD Centre",
			Date:           "2024-01-16",
			Time:           "08:45",
			AvailableSeats: 3,
			TotalSeats:     4,
			Price:          price(12),
			Status:         TripActive,
			Bookings:       1,
			AutoApprove:    true,
		},
	}
}

// SeedUsers provides the demo members listed in the admin panel.
func SeedUsers() []User {
	return []User{
		{
			ID:           "1",
			Name:         "Sarah Johnson",
			Email:        "sarah.johnson@td.com",
			Role:         "driver",
			Status:       UserActive,
			JoinDate:     "2024-01-10",
			TripsOffered: 12,
			TripsBooked:  5,
		},
		{
			ID:          "2",
			Name:        "Mike Chen",
			Email:       "mike.chen@td.com",
			Role:        "rider",
			Status:      UserActive,
			JoinDate:    "2024-01-08",
			TripsBooked: 15,
		},
		{
			ID:           "3",
			Name:         "Emily Davis",
			Email:        "emily.davis@td.com",
			Role:         "both",
			Status:       UserSuspended,
			JoinDate:     "2024-01-05",
			TripsOffered: 8,
			TripsBooked:  12,
		},
	}
}

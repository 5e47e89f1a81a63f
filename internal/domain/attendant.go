package domain

import "time"

// Attendant is the call-center agent a ticket is submitted for.
type Attendant struct {
	ID        string
	Name      string
	Active    bool
	CreatedAt time.Time
}

package domain

import "time"

// Machine is a piece of equipment requests are filed against.
type Machine struct {
	ID          string
	Name        string
	Location    string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

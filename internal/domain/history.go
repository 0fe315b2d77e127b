package domain

import "time"

// RequestHistory is an immutable audit trail entry.
type RequestHistory struct {
	ID        string
	RequestID string
	ActorID   string
	Action    string
	Message   string
	CreatedAt time.Time
}

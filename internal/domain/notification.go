package domain

import "time"

// Notification is an inbox entry for a single recipient.
type Notification struct {
	ID          string
	RecipientID string
	RequestID   string
	Message     string
	Read        bool
	CreatedAt   time.Time
}

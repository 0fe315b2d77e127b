package domain

import "time"

// DeletionRequest records a lower-privilege principal asking an admin to
// delete a request.
type DeletionRequest struct {
	ID          string
	RequestID   string
	RequestedBy string
	Reason      string
	CreatedAt   time.Time
}

package domain

import "time"

// RebuildJob identifies one requested corpus rebuild.
type RebuildJob struct {
	ID          string    `json:"id"`
	RequestedAt time.Time `json:"requested_at"`
}

// RebuildResult reports a completed rebuild back to serving processes so
// they can swap in the fresh index snapshot.
type RebuildResult struct {
	JobID       string    `json:"job_id"`
	Documents   int       `json:"documents"`
	CompletedAt time.Time `json:"completed_at"`
}

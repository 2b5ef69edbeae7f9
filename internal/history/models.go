// Package history records export runs in the local database. Only
// metadata is kept; the media artifacts themselves are ephemeral.
package history

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type Export struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Platform  string    `json:"platform"`
	StartSec  float64   `json:"start_s"`
	EndSec    float64   `json:"end_s"`
	Format    string    `json:"format"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Bytes     int64     `json:"bytes"`
	ElapsedMs int64     `json:"elapsed_ms"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewID() string {
	return uuid.NewString()
}

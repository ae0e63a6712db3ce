package model

import "github.com/google/uuid"

// NewID returns a fresh internal identifier. Internal ids are opaque and are
// never written to CSV exports.
func NewID() string {
	return uuid.NewString()
}

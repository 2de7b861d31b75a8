package flags

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("flag not found")
	ErrInvalidKey = errors.New("invalid flag key")
)

// Flag is an operator switch. Reason is a free-text note shown to other
// operators, e.g. why sponsorship was paused.
type Flag struct {
	Key       string    `json:"key"`
	Value     bool      `json:"value"`
	Reason    string    `json:"reason,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

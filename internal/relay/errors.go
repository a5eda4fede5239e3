// Package relay holds the error taxonomy shared by the relay components.
package relay

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistence marks a failed snapshot write or read. The mutation it
	// guarded has been rolled back in memory.
	ErrPersistence = errors.New("persistence failure")

	// ErrUnauthorized marks an admin-only action attempted by a non-admin.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMalformedInput marks an inbound payload missing required fields.
	ErrMalformedInput = errors.New("malformed input")

	// ErrUnknownSelection marks a stale or unmapped menu token. It is
	// acknowledged with a toast, never surfaced as a user-facing error.
	ErrUnknownSelection = errors.New("unknown selection")
)

// DeliveryError wraps a per-recipient transport failure during fan-out.
type DeliveryError struct {
	Recipient int64
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %d failed: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

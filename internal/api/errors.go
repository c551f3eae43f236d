package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the token is missing, expired or rejected (401)
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound means the requested entity does not exist
	ErrNotFound = errors.New("not found")
)

// StatusError is any other non-2xx answer
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.Code)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Endpoint, e.Code, e.Body)
}

// IsUnauthorized reports whether err means the session must be dropped
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

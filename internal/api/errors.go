package api

import (
	"errors"
	"fmt"
)

var (
	// the backend has no subtitle for the video/language pair
	ErrNotFound = errors.New("subtitle not found")

	// a 2xx response whose body could not be decoded
	ErrInvalidResponse = errors.New("invalid server response")

	// no usable csrf token; nothing was uploaded
	ErrCSRF = errors.New("failed to get csrf token")

	// language code outside the set the backend accepts
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// non-2xx response other than 404
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// a well-formed response with success set to false
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "request rejected by server"
	}
	return "request rejected by server: " + e.Message
}

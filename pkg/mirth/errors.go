package mirth

import (
	"fmt"
	"strings"
)

// LoginError reports a rejected login attempt.
type LoginError struct {
	Status  string
	Message *string
}

func (e *LoginError) Error() string {
	if e.Message != nil {
		return fmt.Sprintf("login failed with status %s: %s", e.Status, *e.Message)
	}
	return fmt.Sprintf("login failed with status %s", e.Status)
}

// PostError reports a message the engine accepted but could not process
// cleanly.
type PostError struct {
	Message string
}

func (e *PostError) Error() string {
	return "message post failed: " + e.Message
}

// APIError reports a non-success HTTP status from the management API.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, body)
}

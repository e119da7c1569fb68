package graphql

import (
	"errors"
	"fmt"
	"strings"
)

// Error is one entry of a GraphQL response's errors array.
type Error struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Code returns extensions.code (e.g. "constraint-violation", "invalid-jwt").
func (e Error) Code() string {
	c, _ := e.Extensions["code"].(string)
	return c
}

func (e Error) Error() string {
	if c := e.Code(); c != "" {
		return fmt.Sprintf("%s: %s", c, e.Message)
	}
	return e.Message
}

// Errors is returned when the response carries a non-empty errors array.
type Errors []Error

func (es Errors) Error() string {
	msgs := make([]string, 0, len(es))
	for _, e := range es {
		msgs = append(msgs, e.Error())
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// HasCode reports whether any error carries the extension code.
func (es Errors) HasCode(code string) bool {
	for _, e := range es {
		if e.Code() == code {
			return true
		}
	}
	return false
}

// HTTPError reports a non-2xx response.
type HTTPError struct {
	Status int
	Body   string
}

func (e HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("graphql: http %d", e.Status)
	}
	return fmt.Sprintf("graphql: http %d: %s", e.Status, body)
}

// TransportError wraps failures before a response arrived.
type TransportError struct {
	Op    string
	Cause error
}

func (e TransportError) Error() string {
	return fmt.Sprintf("graphql: %s: %v", e.Op, e.Cause)
}

func (e TransportError) Unwrap() error { return e.Cause }

// IsCode reports whether err is a GraphQL error response carrying code.
func IsCode(err error, code string) bool {
	var es Errors
	if errors.As(err, &es) {
		return es.HasCode(code)
	}
	return false
}

func retryable(err error) bool {
	var te TransportError
	if errors.As(err, &te) {
		return true
	}
	var he HTTPError
	if errors.As(err, &he) {
		return he.Status >= 500 || he.Status == 429
	}
	return false
}

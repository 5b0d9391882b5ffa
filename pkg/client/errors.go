package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork indicates the request never produced an HTTP response.
	ErrNetwork = errors.New("network error")

	// ErrTimeout indicates the call's deadline expired before a response
	// arrived.
	ErrTimeout = errors.New("request timed out")

	// ErrNoRoute indicates the aggregator found no route for the requested
	// pair and amount.
	ErrNoRoute = errors.New("no route found")

	// ErrTokenNotFound indicates a symbol or address matched no token in
	// the aggregator's list.
	ErrTokenNotFound = errors.New("token not found")
)

// APIError is a non-2xx response from the aggregation API. Body carries
// the raw response for caller inspection; Message is the API's own error
// message when the body contains one.
type APIError struct {
	Status  int
	Body    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("API returned status code %d", e.Status)
}

// DecodeError is a response body that does not match the expected schema.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

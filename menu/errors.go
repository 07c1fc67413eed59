package menu

import "fmt"

// Messages returned to tool callers. They are part of the external contract;
// the underlying cause is logged instead.
const (
	MsgTokenUnavailable    = "Failed to obtain JWT token"
	MsgResourceFetchFailed = "Failed to fetch menu with JWT token"
)

// HTTPError is a non-2xx response from the resource endpoint.
type HTTPError struct {
	StatusCode int    // HTTP status code (e.g., 401, 503)
	Status     string // Full status text (e.g., "401 Unauthorized")
	Message    string // Start of the response body, if any
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Status, e.Message)
	}
	return e.Status
}

// TokenUnavailableError means no usable bearer token could be obtained.
type TokenUnavailableError struct {
	Err error
}

func (e *TokenUnavailableError) Error() string {
	return fmt.Sprintf("token unavailable: %v", e.Err)
}

func (e *TokenUnavailableError) Unwrap() error {
	return e.Err
}

// ResourceFetchFailedError means the menu could not be fetched or decoded.
type ResourceFetchFailedError struct {
	Endpoint string
	Err      error
}

func (e *ResourceFetchFailedError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *ResourceFetchFailedError) Unwrap() error {
	return e.Err
}

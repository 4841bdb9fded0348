package apifootball

import (
	"errors"
	"fmt"
)

var (
	// ErrBadStatus marks a non-2xx response
	ErrBadStatus = errors.New("unexpected status")
	// ErrMalformedResponse marks a body that is not a valid envelope
	ErrMalformedResponse = errors.New("malformed response")
	// ErrAPIErrors marks a 2xx envelope carrying API-level errors
	ErrAPIErrors = errors.New("api reported errors")
)

// UpstreamError is returned for every failed upstream call:
// network failure, non-2xx status, malformed JSON or API-level errors.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s: status=%d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s: %v", e.Endpoint, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsUpstreamError reports whether err wraps an *UpstreamError
func IsUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

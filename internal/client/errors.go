package client

import (
	"errors"
	"fmt"
)

var ErrSourceUnavailable = errors.New("source unavailable")

// SourceUnavailableError reports that one upstream data source could not be used.
// StatusCode is zero when the request never got a response.
type SourceUnavailableError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *SourceUnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s unavailable: status %d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

func (e *SourceUnavailableError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

func unavailable(source string, status int, err error) error {
	return &SourceUnavailableError{Source: source, StatusCode: status, Err: err}
}

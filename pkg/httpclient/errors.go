package httpclient

import "fmt"

// RetryableError reports that the retry schedule was exhausted. It
// carries the final status code (0 for transport-level failures) and the
// number of retries performed.
type RetryableError struct {
	StatusCode int
	Attempts   int
	Message    string
	Err        error
}

func (e *RetryableError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

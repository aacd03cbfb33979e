package models

import "fmt"

// Error codes used in internal error handling and log output. Navigation
// failures and wait timeouts on the search path degrade to empty results
// instead of raising an error, so they carry no code here.
const (
	ErrCodeBrowserCrash = "BROWSER_CRASH"

	// LLM-related error codes for /api/deal.
	ErrCodeLLMFailure     = "LLM_FAILURE"
	ErrCodeLLMRateLimited = "LLM_RATE_LIMITED"
	ErrCodeLLMUnavailable = "LLM_UNAVAILABLE"
)

// SearchError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type SearchError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// NewSearchError creates a new SearchError.
func NewSearchError(code, message string, err error) *SearchError {
	return &SearchError{Code: code, Message: message, Err: err}
}

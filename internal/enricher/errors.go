package enricher

import "fmt"

// FetchError reports a failed website fetch: transport, timeout, or HTTP status.
type FetchError struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Cause != nil:
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Cause)
	case e.StatusCode > 0:
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	case e.Cause != nil:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
	default:
		return fmt.Sprintf("fetch %s failed", e.URL)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// ExtractionError reports a failed call to the extraction model.
type ExtractionError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *ExtractionError) Error() string {
	msg := "extraction failed"
	if e.Message != "" {
		msg = "extraction failed: " + e.Message
	}
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// ParseError reports a model reply that is not a JSON object after fence stripping.
type ParseError struct {
	Text  string
	Cause error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse model reply: %v", e.Cause)
	}
	return "parse model reply: not a JSON object"
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// PersistenceError reports a failed summary write. It aborts the run.
type PersistenceError struct {
	CompanyID int64
	Cause     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist summary for company %d: %v", e.CompanyID, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

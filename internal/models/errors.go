package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

type ErrorReason string

const (
	ReasonInvalidInput      ErrorReason = "invalid_input"
	ReasonNavigationFailed  ErrorReason = "navigation_failed"
	ReasonTimeout           ErrorReason = "timeout"
	ReasonParsingError      ErrorReason = "parsing_error"
	ReasonRateLimitExceeded ErrorReason = "rate_limit_exceeded"
	ReasonUnknown           ErrorReason = "unknown"
)

// ScrapeError is the single error type surfaced by the scrape pipeline.
// Reason is stable and machine readable, Message and Hint are meant for
// direct display.
type ScrapeError struct {
	Reason     ErrorReason
	Message    string
	Hint       string
	RetryAfter time.Duration
	Err        error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient.
func (e *ScrapeError) Retryable() bool {
	return e.Reason == ReasonNavigationFailed || e.Reason == ReasonTimeout
}

// Description is the long form shown to users: message plus next steps.
func (e *ScrapeError) Description() string {
	if e.Hint == "" {
		return e.Message
	}
	return e.Message + ". " + e.Hint
}

func NewInvalidInput(err error) *ScrapeError {
	return &ScrapeError{
		Reason:  ReasonInvalidInput,
		Message: "invalid search parameters: " + err.Error(),
		Hint:    "Check airport codes, dates (YYYY-MM-DD) and passenger counts, then try again.",
		Err:     err,
	}
}

func NewNavigationFailed(message string, err error) *ScrapeError {
	return &ScrapeError{
		Reason:  ReasonNavigationFailed,
		Message: message,
		Hint:    "The flight search site could not be reached or returned an error. Check your connection and try again in a moment.",
		Err:     err,
	}
}

func NewTimeout(message string, err error) *ScrapeError {
	return &ScrapeError{
		Reason:  ReasonTimeout,
		Message: message,
		Hint:    "The flight search site took too long to respond. Try again later or narrow the search.",
		Err:     err,
	}
}

func NewParsingError(message string, err error) *ScrapeError {
	return &ScrapeError{
		Reason:  ReasonParsingError,
		Message: message,
		Hint:    "The upstream page format may have changed. Retrying will not help; the extractor selectors need updating.",
		Err:     err,
	}
}

// RetryAfterSeconds rounds d up to whole seconds, never below one.
func RetryAfterSeconds(d time.Duration) int {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}

func NewRateLimitExceeded(retryAfter time.Duration) *ScrapeError {
	seconds := RetryAfterSeconds(retryAfter)
	unit := "seconds"
	if seconds == 1 {
		unit = "second"
	}
	return &ScrapeError{
		Reason:     ReasonRateLimitExceeded,
		Message:    fmt.Sprintf("too many searches, retry in %d %s", seconds, unit),
		Hint:       "Wait for the indicated time before searching again, or enable caching to reuse recent results.",
		RetryAfter: retryAfter,
	}
}

// NewCancelled reports a search abandoned by its caller. It is never retried.
func NewCancelled(err error) *ScrapeError {
	return &ScrapeError{
		Reason:  ReasonUnknown,
		Message: "search was cancelled",
		Hint:    "The request was cancelled before it finished; submit it again if the result is still needed.",
		Err:     err,
	}
}

func NewUnknown(err error) *ScrapeError {
	return &ScrapeError{
		Reason:  ReasonUnknown,
		Message: "unexpected failure",
		Hint:    "Try again; if the problem persists, report it with the request id from the logs.",
		Err:     err,
	}
}

// AsScrapeError returns err as a *ScrapeError, wrapping it as Unknown when it
// is not one already.
func AsScrapeError(err error) *ScrapeError {
	if err == nil {
		return nil
	}
	var se *ScrapeError
	if errors.As(err, &se) {
		return se
	}
	return NewUnknown(err)
}

func ReasonOf(err error) ErrorReason {
	if err == nil {
		return ""
	}
	return AsScrapeError(err).Reason
}

func IsRetryable(err error) bool {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return false
}

package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents page or payload parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeStore represents record store errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeTranscript represents transcript retrieval errors
	ErrorTypeTranscript ErrorType = "transcript"
	// ErrorTypeAnalysis represents analysis generation errors
	ErrorTypeAnalysis ErrorType = "analysis"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// WatchError represents a channel-watch pipeline error
type WatchError struct {
	Type    ErrorType
	Channel string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *WatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Channel, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Channel, e.Message)
}

// Unwrap returns the underlying error
func (e *WatchError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable.
// A parsing miss on a listing page retries the same way a network
// fault does; a rate limit is handled by the fetch blocklist instead.
func (e *WatchError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	case ErrorTypeParsing:
		return true
	case ErrorTypeRateLimit:
		return false
	default:
		return false
	}
}

// New creates a new WatchError
func New(errType ErrorType, channel, message string, err error) *WatchError {
	return &WatchError{
		Type:    errType,
		Channel: channel,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(channel, message string, err error) *WatchError {
	return New(ErrorTypeNetwork, channel, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(channel, message string, err error) *WatchError {
	return New(ErrorTypeParsing, channel, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(channel string, duration time.Duration) *WatchError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, channel, message, nil)
}

// NewStore creates a new record store error
func NewStore(channel, message string, err error) *WatchError {
	return New(ErrorTypeStore, channel, message, err)
}

// NewTranscript creates a new transcript error
func NewTranscript(channel, message string, err error) *WatchError {
	return New(ErrorTypeTranscript, channel, message, err)
}

// NewAnalysis creates a new analysis error
func NewAnalysis(channel, message string, err error) *WatchError {
	return New(ErrorTypeAnalysis, channel, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(channel, message string, err error) *WatchError {
	return New(ErrorTypePublisher, channel, message, err)
}

// NewValidation creates a new validation error
func NewValidation(channel, message string) *WatchError {
	return New(ErrorTypeValidation, channel, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *WatchError {
	return New(ErrorTypeConfiguration, "", message, err)
}

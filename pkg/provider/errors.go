package provider

import (
	"errors"
	"fmt"
)

// Common errors for provider operations.
var (
	// ErrRecordAbsent indicates the target record does not exist in the zone.
	// dnsanchor never creates records, so this is a permanent error that
	// requires operator intervention.
	ErrRecordAbsent = errors.New("record does not exist")

	// ErrUnauthorized indicates authentication was rejected by the backend.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTSIGVerification indicates the TSIG signature on a server response
	// failed to verify. This signals a broken trust relationship with the
	// server, never a retryable condition.
	ErrTSIGVerification = errors.New("tsig verification failed")

	// ErrRefused indicates the server refused the update by policy.
	ErrRefused = errors.New("update refused")

	// ErrZoneInvalid indicates the configured zone does not line up with
	// the backend: the zone is unknown to it, or the record name falls
	// outside it. Only a configuration change can fix this.
	ErrZoneInvalid = errors.New("configured zone not usable")

	// ErrUnavailable indicates the backend is unreachable or failing.
	ErrUnavailable = errors.New("provider unavailable")
)

// Error classification values, used for logging and metrics labels.
const (
	ClassPermanent = "permanent"
	ClassTransient = "transient"
)

// ConfigError represents a configuration error. Configuration errors are
// always permanent.
type ConfigError struct {
	Field   string
	Value   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("configuration error: %s=%q: %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// ErrConfigMissing creates an error for a missing required configuration field.
func ErrConfigMissing(field string) error {
	return &ConfigError{
		Field:   field,
		Message: "required but not set",
	}
}

// ErrConfigInvalid creates an error for an invalid configuration value.
func ErrConfigInvalid(field, value, message string) error {
	return &ConfigError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider  string
	Operation string
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Operation, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with provider context.
func WrapError(provider, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{
		Provider:  provider,
		Operation: operation,
		Err:       err,
	}
}

// IsRecordAbsent returns true if the error indicates the target record is missing.
func IsRecordAbsent(err error) bool {
	return errors.Is(err, ErrRecordAbsent)
}

// IsUnauthorized returns true if the error indicates authentication failed.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsPermanent returns true if the error will not resolve itself without
// operator intervention: missing record, rejected credentials, failed TSIG
// verification, refused updates, zone mismatches, and configuration errors.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRecordAbsent) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrTSIGVerification) ||
		errors.Is(err, ErrRefused) ||
		errors.Is(err, ErrZoneInvalid) {
		return true
	}
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// IsTransient returns true for errors that are expected to clear on a later
// attempt: timeouts, 5xx-class failures, connection resets, and anything not
// classified as permanent.
func IsTransient(err error) bool {
	return err != nil && !IsPermanent(err)
}

// Classify returns the classification label for an error, either
// ClassPermanent or ClassTransient.
func Classify(err error) string {
	if IsPermanent(err) {
		return ClassPermanent
	}
	return ClassTransient
}

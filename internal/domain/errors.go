package domain

import "errors"

// RecoverableError defines an interface for errors that the resolution chain
// can absorb by moving on to the next source.
type RecoverableError interface {
	error
	IsRecoverable() bool
}

// IsRecoverable checks if an error can be absorbed by the chain.
func IsRecoverable(err error) bool {
	var re RecoverableError
	if errors.As(err, &re) {
		return re.IsRecoverable()
	}
	return false
}

// SourceError represents a failure talking to a single upstream price or rate
// source. These are always recoverable: the chain logs and continues.
type SourceError struct {
	Source string // source name (e.g., "Binance")
	Op     string // operation that failed (e.g., "get", "decode", "extract")
	Err    error  // underlying error
}

func (e *SourceError) Error() string {
	return e.Source + " " + e.Op + ": " + e.Err.Error()
}

func (e *SourceError) IsRecoverable() bool {
	return true
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError wraps a per-source failure.
func NewSourceError(source, op string, err error) *SourceError {
	return &SourceError{Source: source, Op: op, Err: err}
}

// ConfigError represents a configuration error (never recoverable).
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRecoverable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrBadStatus is returned when a source answers with a non-200 status.
	ErrBadStatus = errors.New("unexpected status code")

	// ErrNoPrice is returned when a 200 response carries no usable price field.
	ErrNoPrice = errors.New("no price in response")

	// ErrNoRates is returned when a rate provider's body lacks the rates object.
	ErrNoRates = errors.New("no rates in response")

	// ErrConfigNotFound is returned when the configuration file is missing.
	ErrConfigNotFound = errors.New("configuration not found")
)

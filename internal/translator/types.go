// Package translator defines the batch translation backend contract and
// its concrete adapters (IndicTrans2 HTTP API, Google Cloud Translation,
// OpenAI chat models).
package translator

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Options carries generation controls passed through to the model.
// Zero values mean backend defaults.
type Options struct {
	MaxLength          int `mapstructure:"max_length" json:"max_length"`
	NumBeams           int `mapstructure:"num_beams" json:"num_beams"`
	NumReturnSequences int `mapstructure:"num_return_sequences" json:"num_return_sequences"`
}

// Config holds backend connection settings.
type Config struct {
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	APIKey      string        `mapstructure:"api_key" json:"api_key"`
	Model       string        `mapstructure:"model" json:"model"`
	Credentials string        `mapstructure:"credentials" json:"credentials"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
}

// Backend is a black-box batch translation function. Implementations must
// return exactly one translated string per input string, in input order.
// Anything else is a contract violation reported as ErrCountMismatch.
type Backend interface {
	Name() string
	Translate(ctx context.Context, batch []string, sourceLang, targetLang string, opts Options) ([]string, error)
	IsAvailable(ctx context.Context) error
}

// ErrEmptyBatch is returned when Translate is called with no input.
var ErrEmptyBatch = errors.New("translator: empty batch")

// ErrCountMismatch reports a backend returning a different number of
// results than inputs. It must never be papered over by padding or
// truncation; the enclosing batch fails.
var ErrCountMismatch = errors.New("translator: result count mismatch")

// CountMismatchError wraps ErrCountMismatch with the observed sizes.
func CountMismatchError(backend string, want, got int) error {
	return fmt.Errorf("%w: %s returned %d results for %d inputs", ErrCountMismatch, backend, got, want)
}

// BackendError wraps a transport, capacity, or timeout failure from a
// backend call. It is fatal for the enclosing batch but retryable.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("translator: %s: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a backend call failure that the
// caller may retry with backoff. Count mismatches are not retryable.
func IsRetryable(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}

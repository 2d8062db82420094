// Package resilience wraps transport calls in a circuit breaker. The breaker
// only fails fast while the server is unreachable; it never retries.
package resilience

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/erazemk/biotrack/internal/metrics"
)

// ErrCircuitOpen is returned without calling the server while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Defaults.
const (
	DefaultMaxRequests      uint32 = 1
	DefaultInterval                = time.Minute
	DefaultTimeout                 = 30 * time.Second
	DefaultFailureThreshold uint32 = 5
)

// Config holds breaker configuration.
type Config struct {
	Name             string        `yaml:"name"`
	MaxRequests      uint32        `yaml:"max_requests"`      // requests allowed while half-open
	Interval         time.Duration `yaml:"interval"`          // closed-state window after which counts reset
	Timeout          time.Duration `yaml:"timeout"`           // open duration before probing again
	FailureThreshold uint32        `yaml:"failure_threshold"` // consecutive failures that trip the breaker
}

// DefaultConfig returns the default configuration for name.
func DefaultConfig(name string) *Config {
	return &Config{
		Name:             name,
		MaxRequests:      DefaultMaxRequests,
		Interval:         DefaultInterval,
		Timeout:          DefaultTimeout,
		FailureThreshold: DefaultFailureThreshold,
	}
}

// Breaker wraps gobreaker with logging and metrics.
type Breaker struct {
	cb   *gobreaker.CircuitBreaker
	name string
}

// New creates a breaker. Only errors for which isFailure returns true trip it,
// so callers can keep server-side rejections (conflicts, validation) from
// opening the circuit.
func New(config *Config, isFailure func(error) bool, logger *slog.Logger, m *metrics.Metrics) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			m.BreakerState(name, float64(to))
		},
	}
	if isFailure != nil {
		settings.IsSuccessful = func(err error) bool { return err == nil || !isFailure(err) }
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings), name: config.Name}
}

// Do runs fn through the breaker.
func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.name }

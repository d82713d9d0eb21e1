package loader

import (
	stderrors "errors"

	"resumerank/internal/config"
	"resumerank/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// ConverterBreaker stops calling the external .doc converter after repeated
// failures, so a missing or wedged antiword fails fast instead of per upload
type ConverterBreaker struct {
	cb *gobreaker.CircuitBreaker[string]
}

// NewConverterBreaker returns nil when the breaker is disabled
func NewConverterBreaker(cfg config.CircuitBreakerConfig, logger *errors.Logger) *ConverterBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        "doc-converter",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &ConverterBreaker{cb: gobreaker.NewCircuitBreaker[string](settings)}
}

// Execute runs fn under the breaker. While the breaker is open fn is not
// called and a CONVERTER_UNAVAILABLE error is returned.
func (b *ConverterBreaker) Execute(fn func() (string, error)) (string, error) {
	if b == nil || b.cb == nil {
		return fn()
	}

	text, err := b.cb.Execute(fn)
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", errors.NewDocumentError(errors.ErrCodeConverterUnavailable,
			"document converter is unavailable, try again later", err).
			WithContext("format", string(FormatDOC))
	}
	return text, err
}

// GetStats returns circuit breaker statistics
func (b *ConverterBreaker) GetStats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the breaker is closed or disabled
func (b *ConverterBreaker) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}

package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/courseloom/backend/internal/observability"
)

// ErrGenerationFailed is returned once retries are exhausted or a permanent
// upstream error is hit. Match with errors.Is.
var ErrGenerationFailed = errors.New("generation failed")

const (
	DefaultMaxAttempts = 3
	backoffStep        = 2 * time.Second
)

// Retryer wraps a Client with bounded retry and linear backoff. Only
// transient upstream errors are retried; everything else aborts on the
// first attempt. Sleep is injectable so tests can fake time.
type Retryer struct {
	Client      Client
	MaxAttempts int
	Sleep       func(time.Duration)
	Log         *slog.Logger
}

func NewRetryer(client Client, log *slog.Logger) *Retryer {
	if log == nil {
		log = slog.Default()
	}
	return &Retryer{
		Client:      client,
		MaxAttempts: DefaultMaxAttempts,
		Sleep:       time.Sleep,
		Log:         log,
	}
}

// Complete calls the underlying client up to MaxAttempts times. The label
// identifies the call site in logs and metrics only; it never reaches the
// upstream service.
func (r *Retryer) Complete(ctx context.Context, prompt, label string) (string, error) {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		observability.GenerationAttempts.WithLabelValues(label).Inc()

		text, err := r.Client.Complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !IsTransient(err) {
			r.Log.Warn("generation failed permanently", "label", label, "attempt", attempt, "error", err)
			return "", fmt.Errorf("%w (%s): %v", ErrGenerationFailed, label, err)
		}

		if attempt < attempts {
			wait := time.Duration(attempt) * backoffStep
			r.Log.Warn("generation overloaded, backing off",
				"label", label, "attempt", attempt, "wait", wait, "error", err)
			observability.GenerationRetries.WithLabelValues(label).Inc()
			sleep(wait)
		}
	}

	return "", fmt.Errorf("%w (%s) after %d attempts: %v", ErrGenerationFailed, label, attempts, lastErr)
}

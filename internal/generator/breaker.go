// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package generator

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/pelixflow/internal/config"
	"github.com/tomtom215/pelixflow/internal/logging"
	"github.com/tomtom215/pelixflow/internal/metrics"
	"github.com/tomtom215/pelixflow/internal/models"
)

// BreakerName labels the generator circuit breaker in metrics.
const BreakerName = "generator"

// Breaker wraps a Generator with a circuit breaker. Only outages count as
// failures; empty or malformed answers, invalid input and caller
// cancellation pass through without tripping it.
type Breaker struct {
	next Generator
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// NewBreaker wraps next with a breaker configured by cfg.
func NewBreaker(next Generator, cfg config.BreakerConfig) *Breaker {
	name := BreakerName

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			trip := ratio >= cfg.FailureRatio
			if trip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).
					Msg("[CIRCUIT BREAKER] Opening generator circuit")
			}
			return trip
		},

		IsSuccessful: func(err error) bool {
			return !IsTransient(err)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &Breaker{next: next, cb: cb, name: name}
}

// State returns the current breaker state as closed, half-open or open.
func (b *Breaker) State() string {
	return stateToString(b.cb.State())
}

func (b *Breaker) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Generator request rejected")
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		if IsTransient(err) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return result, nil
}

func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// Recommend implements Generator.
func (b *Breaker) Recommend(ctx context.Context, in RecommendInput) ([]models.Recommendation, error) {
	return castResult[[]models.Recommendation](b.execute(func() (any, error) {
		return b.next.Recommend(ctx, in)
	}))
}

// Mood implements Generator.
func (b *Breaker) Mood(ctx context.Context, mood string) ([]models.Recommendation, error) {
	return castResult[[]models.Recommendation](b.execute(func() (any, error) {
		return b.next.Mood(ctx, mood)
	}))
}

// Search implements Generator.
func (b *Breaker) Search(ctx context.Context, query string, searchType SearchType) ([]models.Recommendation, error) {
	return castResult[[]models.Recommendation](b.execute(func() (any, error) {
		return b.next.Search(ctx, query, searchType)
	}))
}

// Fuse implements Generator.
func (b *Breaker) Fuse(ctx context.Context, titles []string) (string, error) {
	return castResult[string](b.execute(func() (any, error) {
		return b.next.Fuse(ctx, titles)
	}))
}

// Chat implements Generator.
func (b *Breaker) Chat(ctx context.Context, in ChatInput) (string, error) {
	return castResult[string](b.execute(func() (any, error) {
		return b.next.Chat(ctx, in)
	}))
}

// AdjustPreferences implements Generator.
func (b *Breaker) AdjustPreferences(ctx context.Context, in AdjustInput) (*Adjustment, error) {
	return castResult[*Adjustment](b.execute(func() (any, error) {
		return b.next.AdjustPreferences(ctx, in)
	}))
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

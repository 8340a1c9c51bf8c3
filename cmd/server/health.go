// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package main

import (
	"context"
	"errors"
)

var (
	errStoreClosed = errors.New("document store is closed")
	errBreakerOpen = errors.New("generator circuit is open")
)

type healthReporter interface {
	Healthy() bool
}

type stateReporter interface {
	State() string
}

func storeCheck(s healthReporter) func(context.Context) error {
	return func(context.Context) error {
		if !s.Healthy() {
			return errStoreClosed
		}
		return nil
	}
}

// breakerCheck reports not ready while the breaker is open. Half-open is
// ready so probe requests can reach the generator.
func breakerCheck(b stateReporter) func(context.Context) error {
	return func(context.Context) error {
		if b.State() == "open" {
			return errBreakerOpen
		}
		return nil
	}
}

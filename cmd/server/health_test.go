// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package main

import (
	"context"
	"errors"
	"testing"
)

type fakeStore bool

func (f fakeStore) Healthy() bool { return bool(f) }

type fakeBreaker string

func (f fakeBreaker) State() string { return string(f) }

func TestStoreCheck(t *testing.T) {
	t.Parallel()

	if err := storeCheck(fakeStore(true))(context.Background()); err != nil {
		t.Errorf("healthy store: %v", err)
	}
	if err := storeCheck(fakeStore(false))(context.Background()); !errors.Is(err, errStoreClosed) {
		t.Errorf("closed store: %v", err)
	}
}

func TestBreakerCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state   string
		wantErr bool
	}{
		{"closed", false},
		{"half-open", false},
		{"open", true},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			t.Parallel()
			err := breakerCheck(fakeBreaker(tt.state))(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("breakerCheck(%q) = %v", tt.state, err)
			}
		})
	}
}

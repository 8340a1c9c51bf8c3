// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package session

import (
	"context"
	"time"

	"github.com/tomtom215/pelixflow/internal/logging"
)

// Sweeper periodically evicts idle sessions. It implements suture.Service.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
}

// NewSweeper creates a sweeper running every interval (default one minute).
func NewSweeper(m *Manager, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{manager: m, interval: interval}
}

// Serve runs until ctx is canceled.
func (s *Sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.manager.Sweep(); n > 0 {
				logging.Debug().Int("evicted", n).Int("remaining", s.manager.Len()).Msg("Idle sessions swept")
			}
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (s *Sweeper) String() string {
	return "session-sweeper"
}

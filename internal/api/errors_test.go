// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/tomtom215/pelixflow/internal/chat"
	"github.com/tomtom215/pelixflow/internal/generator"
	"github.com/tomtom215/pelixflow/internal/recommend"
	"github.com/tomtom215/pelixflow/internal/session"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	wrap := func(outer, inner error) error { return fmt.Errorf("%w: %w", outer, inner) }

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"generation", wrap(recommend.ErrGeneration, generator.ErrEmptyResult), http.StatusBadGateway, CodeGenerationFailed},
		{"breaker open", wrap(recommend.ErrGeneration, generator.ErrUnavailable), http.StatusServiceUnavailable, CodeGeneratorUnavailable},
		{"invalid generator input", wrap(recommend.ErrGeneration, generator.ErrInvalidInput), http.StatusBadRequest, CodeValidation},
		{"generation and persist", errors.Join(wrap(chat.ErrGeneration, generator.ErrEmptyResult), chat.ErrPersist), http.StatusBadGateway, CodeGenerationFailed},
		{"persist", wrap(recommend.ErrPersist, errors.New("disk")), http.StatusServiceUnavailable, CodePersistenceFailed},
		{"in flight", chat.ErrSendInFlight, http.StatusConflict, CodeConflict},
		{"deleted", chat.ErrChatDeleted, http.StatusConflict, CodeConflict},
		{"list not found", recommend.ErrListNotFound, http.StatusNotFound, CodeNotFound},
		{"load", wrap(session.ErrLoad, errors.New("io")), http.StatusServiceUnavailable, CodePersistenceFailed},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			status, code, msg := classify(tt.err)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Errorf("classify() = %d %s, want %d %s", status, code, tt.wantStatus, tt.wantCode)
			}
			if msg == "" {
				t.Error("empty message")
			}
		})
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	if got := sanitizeLogValue("a\nb\tc"); got != `a\x0ab\x09c` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}

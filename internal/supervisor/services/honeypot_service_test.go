// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/thejerf/suture/v4"
)

type fakeCapture struct {
	err error
}

func (f *fakeCapture) Serve(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

var _ suture.Service = (*HoneypotService)(nil)

func TestHoneypotService_Serve(t *testing.T) {
	listenErr := errors.New("address already in use")
	permErr := fmt.Errorf("honeypot listen on :22: %w", os.ErrPermission)

	tests := []struct {
		name          string
		err           error
		cancel        bool
		wantIs        error
		wantNoRestart bool
	}{
		{"canceled", nil, true, context.Canceled, false},
		{"transient failure restarts", listenErr, false, listenErr, false},
		{"permission denied stops", permErr, false, os.ErrPermission, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			if tt.cancel {
				cancel()
			} else {
				defer cancel()
			}

			err := NewHoneypotService(&fakeCapture{err: tt.err}).Serve(ctx)
			if !errors.Is(err, tt.wantIs) {
				t.Errorf("Serve() = %v, want %v", err, tt.wantIs)
			}
			if got := errors.Is(err, suture.ErrDoNotRestart); got != tt.wantNoRestart {
				t.Errorf("ErrDoNotRestart = %v, want %v", got, tt.wantNoRestart)
			}
		})
	}
}

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

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/knockwatch/internal/logging"
)

// CaptureListener is satisfied by *honeypot.Listener.
type CaptureListener interface {
	Serve(ctx context.Context) error
}

// HoneypotService supervises the decoy SSH accept loop.
//
// A listener that fails is restarted with suture's backoff, except when
// binding is refused for lack of privilege: retrying cannot fix that, so
// the error is marked suture.ErrDoNotRestart.
type HoneypotService struct {
	listener CaptureListener
}

// NewHoneypotService wraps listener.
func NewHoneypotService(listener CaptureListener) *HoneypotService {
	return &HoneypotService{listener: listener}
}

// Serve implements suture.Service.
func (h *HoneypotService) Serve(ctx context.Context) error {
	err := h.listener.Serve(ctx)
	switch {
	case err == nil, ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, os.ErrPermission):
		logging.Error().Err(err).Msg("honeypot cannot bind its port; not restarting")
		return fmt.Errorf("%w: %w", suture.ErrDoNotRestart, err)
	default:
		return err
	}
}

func (h *HoneypotService) String() string {
	return "honeypot-listener"
}

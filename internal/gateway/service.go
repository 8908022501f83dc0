// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package gateway implements the two operations exposed to callers:
//   - Probe: connect, ping, write/read/delete a scoped key and report server metadata
//   - ExecuteBatch: run a validated batch of commands on one connection, in order
//
// Both validate their input before any connection is opened and run on a lease
// from internal/conn that is released on every exit path. Transports (HTTP, gRPC,
// local CLI) shape the results with NewProbeResponse and NewBatchResponse.
package gateway

import (
	"context"
	"time"

	"redisgate/cli/internal/conn"
	apperrors "redisgate/cli/internal/errors"
	"redisgate/cli/internal/metrics"

	"github.com/rs/zerolog"
)

// DefaultCommandTimeout bounds a single command when no timeout is configured.
const DefaultCommandTimeout = 10 * time.Second

// Options configures a Service.
type Options struct {
	// CommandTimeout bounds each command of a batch and each probe step.
	// Zero disables the per-command deadline.
	CommandTimeout time.Duration
	Logger         zerolog.Logger
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Service runs probes and batches against caller-supplied targets.
type Service struct {
	manager        *conn.Manager
	commandTimeout time.Duration
	logger         zerolog.Logger
	metrics        *metrics.Metrics
}

// New creates a Service that acquires connections from m.
func New(m *conn.Manager, opts Options) *Service {
	return &Service{
		manager:        m,
		commandTimeout: opts.CommandTimeout,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
	}
}

// Manager returns the connection manager backing s.
func (s *Service) Manager() *conn.Manager { return s.manager }

// stepContext derives the deadline for one network step.
func (s *Service) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.commandTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.commandTimeout)
}

func (s *Service) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.logger
}

// outcome labels an operation result for metrics.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperrors.KindOf(err))
}

// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package conn owns the lifecycle of the single connection a request uses:
// acquire with a bounded connect timeout, use, and release exactly once on every
// exit path. Connections are never pooled or shared; each Lease belongs to one
// request.
//
// The only process-wide state is a counting semaphore that caps how many leases
// may be live at once, and a gauge of open connections.
package conn

import (
	"context"
	"crypto/tls"
	"errors"
	"sync/atomic"
	"time"

	"redisgate/cli/internal/descriptor"
	apperrors "redisgate/cli/internal/errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// ConnectTimeout bounds how long Acquire waits for a connection to be usable.
const ConnectTimeout = 5 * time.Second

// loserGrace is how long an abandoned connect attempt may keep running after
// the timer won before its context expires.
const loserGrace = time.Second

// Options configures a Manager.
type Options struct {
	// ConnectTimeout overrides the default connect bound (tests only).
	ConnectTimeout time.Duration
	// CommandTimeout sets the driver read/write timeout. Zero keeps the driver default.
	CommandTimeout time.Duration
	// MaxConnections caps live leases. Zero or negative means unlimited.
	MaxConnections int64
	Logger         zerolog.Logger
}

// Manager acquires and releases leases.
type Manager struct {
	connectTimeout time.Duration
	commandTimeout time.Duration
	sem            *semaphore.Weighted
	logger         zerolog.Logger
	open           atomic.Int64

	newClient func(*redis.Options) *redis.Client
}

// NewManager creates a Manager from opts.
func NewManager(opts Options) *Manager {
	m := &Manager{
		connectTimeout: opts.ConnectTimeout,
		commandTimeout: opts.CommandTimeout,
		logger:         opts.Logger,
		newClient:      redis.NewClient,
	}
	if m.connectTimeout <= 0 {
		m.connectTimeout = ConnectTimeout
	}
	if opts.MaxConnections > 0 {
		m.sem = semaphore.NewWeighted(opts.MaxConnections)
	}
	return m
}

// Open returns the number of connections that have been created and not yet
// closed, including abandoned connect attempts still winding down.
func (m *Manager) Open() int64 { return m.open.Load() }

// ConnectTimeout returns the effective connect bound.
func (m *Manager) ConnectTimeout() time.Duration { return m.connectTimeout }

// options maps a descriptor onto driver options for a single dedicated connection.
func (m *Manager) options(d descriptor.Descriptor) *redis.Options {
	opts := &redis.Options{
		Addr:                  d.Addr(),
		Username:              d.Username,
		Password:              d.Password,
		DB:                    d.Database,
		Protocol:              2,
		DialTimeout:           m.connectTimeout,
		ReadTimeout:           m.ioTimeout(),
		WriteTimeout:          m.ioTimeout(),
		ContextTimeoutEnabled: true,
		PoolSize:              1,
		MaxRetries:            -1,
	}
	if d.TLS {
		opts.TLSConfig = &tls.Config{ServerName: d.Host, MinVersion: tls.VersionTLS12}
	}
	return opts
}

// ioTimeout is the driver read/write timeout. A command timeout of zero or
// less disables it; the driver treats 0 as its own 3s default, so -1 is used.
func (m *Manager) ioTimeout() time.Duration {
	if m.commandTimeout <= 0 {
		return -1
	}
	return m.commandTimeout
}

// Acquire opens a connection for d and waits until it answers, racing the
// attempt against the connect timer. Exactly one of a Connected lease or an
// error is returned; on error nothing is left open (an abandoned attempt is
// closed as soon as it returns).
func (m *Manager) Acquire(ctx context.Context, d descriptor.Descriptor) (*Lease, error) {
	if m.sem != nil && !m.sem.TryAcquire(1) {
		m.logger.Warn().Object("target", d).Msg("connection limit reached")
		return nil, &apperrors.E{Kind: apperrors.Busy, Message: apperrors.MsgBusy, Code: "EBUSY"}
	}

	client := m.newClient(m.options(d))
	m.open.Add(1)
	l := &Lease{
		manager: m,
		target:  d,
		client:  client,
		conn:    client.Conn(),
		logger:  m.logger,
	}
	l.state.Store(int32(Connecting))
	m.logger.Debug().Object("target", d).Msg("connecting")

	dialCtx, cancel := context.WithTimeout(ctx, m.connectTimeout+loserGrace)
	done := make(chan error, 1)
	start := time.Now()
	go func() {
		done <- l.conn.Ping(dialCtx).Err()
	}()

	timer := time.NewTimer(m.connectTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		cancel()
		if err != nil {
			l.fail()
			classified := apperrors.Classify(err)
			m.logger.Info().Object("target", d).Str("code", classified.Code).Msg("connect failed")
			return nil, classified
		}
		l.state.Store(int32(Connected))
		l.connectedAt = time.Now()
		m.logger.Debug().Object("target", d).Dur("took", time.Since(start)).Msg("connected")
		return l, nil

	case <-timer.C:
		cancel()
		l.abandon(done)
		m.logger.Info().Object("target", d).Dur("after", m.connectTimeout).Msg("connect timed out")
		return nil, &apperrors.E{
			Kind:    apperrors.Timeout,
			Message: apperrors.MsgTimeout,
			Err:     context.DeadlineExceeded,
			Code:    "ETIMEDOUT",
			Syscall: "connect",
		}

	case <-ctx.Done():
		cancel()
		l.abandon(done)
		return nil, apperrors.Wrap(apperrors.Unknown, "Request cancelled", ctx.Err())
	}
}

// With acquires a lease for d, runs fn and releases the lease on every exit
// path, including a panic in fn.
func (m *Manager) With(ctx context.Context, d descriptor.Descriptor, fn func(*Lease) error) error {
	lease, err := m.Acquire(ctx, d)
	if err != nil {
		return err
	}
	defer lease.Release()
	return fn(lease)
}

// errNotReady is returned by Lease.Exec when the lease is not Connected.
var errNotReady = errors.New("connection is not ready")

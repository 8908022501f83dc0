// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package conn

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"redisgate/cli/internal/descriptor"
	apperrors "redisgate/cli/internal/errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Lease is one exclusively-owned live connection. It must not be shared
// between requests.
type Lease struct {
	manager     *Manager
	target      descriptor.Descriptor
	client      *redis.Client
	conn        *redis.Conn
	logger      zerolog.Logger
	state       atomic.Int32
	closeOnce   sync.Once
	connectedAt time.Time
}

// State returns the current lifecycle state.
func (l *Lease) State() State { return State(l.state.Load()) }

// ConnectedAt returns when the connection became usable.
func (l *Lease) ConnectedAt() time.Time { return l.connectedAt }

// Exec marks the lease Executing while fn runs on the connection.
func (l *Lease) Exec(fn func(s *redis.Conn) error) error {
	if !l.state.CompareAndSwap(int32(Connected), int32(Executing)) {
		return errNotReady
	}
	defer l.state.CompareAndSwap(int32(Executing), int32(Connected))
	return fn(l.conn)
}

// Reconnect replaces a connection that a failed command left unusable, for
// instance after a command deadline expired mid-reply. The new connection is
// dialed with the same options, so AUTH and SELECT run again, and it must
// answer PING within the connect timeout. Only valid while Executing; the
// returned connection replaces the one handed to Exec.
func (l *Lease) Reconnect(ctx context.Context) (*redis.Conn, error) {
	if l.State() != Executing {
		return nil, errNotReady
	}
	l.closeConn("reconnect")
	l.client = l.manager.newClient(l.manager.options(l.target))
	l.conn = l.client.Conn()
	pingCtx, cancel := context.WithTimeout(ctx, l.manager.connectTimeout)
	defer cancel()
	if err := l.conn.Ping(pingCtx).Err(); err != nil {
		classified := apperrors.Classify(err)
		l.logger.Info().Object("target", l.target).Str("code", classified.Code).Msg("reconnect failed")
		return nil, classified
	}
	l.logger.Debug().Object("target", l.target).Msg("reconnected")
	return l.conn, nil
}

// Release closes the connection. It is safe to call more than once; only the
// first call closes. Close failures are logged and swallowed because the
// request's result is already decided by then.
func (l *Lease) Release() {
	l.closeOnce.Do(func() {
		l.state.Store(int32(Closed))
		l.closeConn("release")
		l.manager.open.Add(-1)
		if l.manager.sem != nil {
			l.manager.sem.Release(1)
		}
	})
}

// closeConn closes the dedicated connection and its client. A connection the
// driver already discarded reports ErrClosed, which is not worth a warning.
func (l *Lease) closeConn(op string) {
	if err := l.conn.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		l.logger.Warn().Err(err).Object("target", l.target).Msg(op + ": close conn")
	}
	if err := l.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		l.logger.Warn().Err(err).Object("target", l.target).Msg(op + ": close client")
	}
}

// fail records a failed connect and closes immediately.
func (l *Lease) fail() {
	l.state.Store(int32(Failed))
	l.Release()
}

// abandon records a lost race. The in-flight attempt keeps running until its
// context expires; its result is discarded and the connection closed then.
func (l *Lease) abandon(done <-chan error) {
	l.state.Store(int32(Failed))
	go func() {
		<-done
		l.Release()
	}()
}

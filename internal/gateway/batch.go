// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"redisgate/cli/internal/command"
	"redisgate/cli/internal/conn"
	"redisgate/cli/internal/descriptor"
	apperrors "redisgate/cli/internal/errors"
	"redisgate/cli/internal/logging"

	"github.com/redis/go-redis/v9"
)

// MsgMissingInput is returned when a batch request lacks its connection config
// or its command list.
const MsgMissingInput = "Connection config and commands are required"

// BatchRequest is the body of a batch execution.
type BatchRequest struct {
	ConnectionConfig *descriptor.Request `json:"connectionConfig"`
	Commands         []string            `json:"commands"`
}

// Outcome is the result of one command. Outcomes are returned in input order,
// one per command.
type Outcome struct {
	Command      string `json:"command"`
	Success      bool   `json:"success"`
	Result       any    `json:"result,omitempty"`
	Error        string `json:"error,omitempty"`
	ResponseTime int64  `json:"responseTime"`
}

// ExecuteBatch validates the batch and then the descriptor, and only then opens
// a connection. A rejected batch never reaches the network. Command failures
// are reported in their Outcome; only validation, connect and cancellation
// errors fail the whole call.
func (s *Service) ExecuteBatch(ctx context.Context, req BatchRequest) ([]Outcome, error) {
	outcomes, err := s.executeBatch(ctx, req)
	s.metrics.RecordOperation("batch", outcome(err))
	return outcomes, err
}

func (s *Service) executeBatch(ctx context.Context, req BatchRequest) ([]Outcome, error) {
	if req.ConnectionConfig == nil || req.Commands == nil {
		return nil, apperrors.New(apperrors.Validation, MsgMissingInput)
	}
	classified, err := command.ValidateBatch(req.Commands)
	if err != nil {
		s.log(ctx).Info().Int("commands", len(req.Commands)).Str("reason", apperrors.Message(err)).Msg("batch rejected")
		return nil, err
	}
	d, err := descriptor.Build(*req.ConnectionConfig)
	if err != nil {
		return nil, err
	}
	logger := s.log(ctx).With().Object("target", d).Logger()

	var outcomes []Outcome
	err = s.manager.With(ctx, d, func(l *conn.Lease) error {
		return l.Exec(func(c *redis.Conn) error {
			var err error
			outcomes, err = s.run(ctx, l, c, classified)
			return err
		})
	})
	if err != nil {
		classified := apperrors.Classify(err)
		logger.Info().Str("kind", string(classified.Kind)).Str("code", classified.Code).Msg("batch failed")
		return nil, classified
	}

	failed := 0
	for _, o := range outcomes {
		if !o.Success {
			failed++
		}
	}
	logger.Info().Int("commands", len(outcomes)).Int("failed", failed).Msg("batch executed")
	return outcomes, nil
}

// reconnector swaps in a fresh connection after a command broke the current one.
type reconnector interface {
	Reconnect(ctx context.Context) (*redis.Conn, error)
}

// run executes commands strictly in order. It stops without emitting an
// outcome for the in-flight command when ctx is cancelled. A command that
// leaves the connection unusable (an expired deadline, a dropped socket) only
// fails itself: the connection is replaced before the next command. When the
// replacement cannot be established, the remaining commands fail with that
// connection error.
func (s *Service) run(ctx context.Context, rc reconnector, sess command.Session, commands []command.Classified) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(commands))
	var lost error
	for i, c := range commands {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(apperrors.Unknown, "Request cancelled", err)
		}

		o := Outcome{Command: c.Raw}
		var elapsed time.Duration
		if lost != nil {
			o.Error = apperrors.Message(lost)
		} else {
			stepCtx, cancel := s.stepContext(ctx)
			start := time.Now()
			result, err := command.Dispatch(stepCtx, sess, c)
			elapsed = time.Since(start)
			cancel()

			if ctx.Err() != nil {
				return nil, apperrors.Wrap(apperrors.Unknown, "Request cancelled", ctx.Err())
			}

			o.ResponseTime = elapsed.Milliseconds()
			if err != nil {
				o.Error = s.commandError(err)
			} else {
				o.Success = true
				o.Result = result
			}

			if connectionBroken(err) && i < len(commands)-1 {
				next, rerr := rc.Reconnect(ctx)
				if rerr != nil {
					lost = rerr
					s.log(ctx).Warn().Str("reason", apperrors.Message(rerr)).Msg("connection lost; failing remaining commands")
				} else {
					sess = next
				}
			}
		}

		s.metrics.RecordCommand(verbLabel(c), o.Success)
		s.log(ctx).Debug().
			Str("command", logging.MaskCommand(c.Raw)).
			Bool("success", o.Success).
			Dur("took", elapsed).
			Msg("command executed")
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

// connectionBroken reports whether err left the connection unusable. Server
// error replies and argument errors do not; timeouts and transport failures do.
func connectionBroken(err error) bool {
	if err == nil {
		return false
	}
	var e *apperrors.E
	if errors.As(err, &e) {
		return false
	}
	var replyErr redis.Error
	if errors.As(err, &replyErr) {
		return false
	}
	var netErr net.Error
	return isTimeout(err) || isDiscarded(err) || errors.As(err, &netErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
}

// isDiscarded matches errors the driver returns for a connection it already
// closed or marked bad. The bad-connection error type is internal to the
// driver, so its text is matched.
func isDiscarded(err error) bool {
	return errors.Is(err, redis.ErrClosed) || strings.Contains(err.Error(), "Conn is in a bad state")
}

// commandError renders a per-command failure. Connection-state errors are
// checked before timeouts because a discarded connection wraps the timeout
// that broke it.
func (s *Service) commandError(err error) string {
	var e *apperrors.E
	if errors.As(err, &e) {
		return e.Message
	}
	switch {
	case isDiscarded(err):
		return "Connection is no longer usable after a previous failure"
	case isTimeout(err) && s.commandTimeout > 0:
		return fmt.Sprintf("Command timed out after %s", s.commandTimeout)
	case isTimeout(err):
		return "Command timed out"
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Command execution failed"
}

// verbLabel keeps metric labels to the typed verbs.
func verbLabel(c command.Classified) string {
	if command.Known(c.Verb) {
		return c.Verb
	}
	return "OTHER"
}

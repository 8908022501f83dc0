// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package gateway

import (
	"bufio"
	"context"
	"strings"
	"time"

	"redisgate/cli/internal/command"
	"redisgate/cli/internal/conn"
	"redisgate/cli/internal/descriptor"
	apperrors "redisgate/cli/internal/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Probe constants.
const (
	ProbeKeyPrefix = "probe:connection:"
	ProbeValue     = "success"
	ProbeKeyTTL    = 10 * time.Second
	Unknown        = "Unknown"
)

// Report is the outcome of a successful probe.
type Report struct {
	Ping             string
	Latency          time.Duration
	Version          string
	Mode             string
	ConnectedClients string
	UsedMemory       string
}

// Probe validates req, connects and runs the diagnostic sequence. Metadata
// is best-effort: when INFO fails the fields are "Unknown" and the probe still
// succeeds. Every returned error is an *errors.E.
func (s *Service) Probe(ctx context.Context, req descriptor.Request) (Report, error) {
	report, err := s.runProbe(ctx, req)
	s.metrics.RecordOperation("probe", outcome(err))
	return report, err
}

func (s *Service) runProbe(ctx context.Context, req descriptor.Request) (Report, error) {
	d, err := descriptor.Build(req)
	if err != nil {
		return Report{}, err
	}
	logger := s.log(ctx).With().Object("target", d).Logger()

	var report Report
	err = s.manager.With(ctx, d, func(l *conn.Lease) error {
		return l.Exec(func(c *redis.Conn) error {
			var err error
			report, err = s.probe(ctx, c)
			return err
		})
	})
	if err != nil {
		classified := apperrors.Classify(err)
		logger.Info().Str("kind", string(classified.Kind)).Str("code", classified.Code).Msg("probe failed")
		return Report{}, classified
	}

	logger.Info().Dur("latency", report.Latency).Str("version", report.Version).Msg("probe succeeded")
	return report, nil
}

// probe runs the fixed sequence on an already connected session.
func (s *Service) probe(ctx context.Context, sess command.Session) (Report, error) {
	start := time.Now()

	var report Report
	if err := s.step(ctx, func(ctx context.Context) (err error) {
		report.Ping, err = sess.Ping(ctx).Result()
		return err
	}); err != nil {
		return Report{}, err
	}

	key := ProbeKeyPrefix + uuid.NewString()
	if err := s.step(ctx, func(ctx context.Context) error {
		return sess.Set(ctx, key, ProbeValue, ProbeKeyTTL).Err()
	}); err != nil {
		return Report{}, err
	}

	var got string
	if err := s.step(ctx, func(ctx context.Context) (err error) {
		got, err = sess.Get(ctx, key).Result()
		return err
	}); err != nil {
		return Report{}, err
	}
	if got != ProbeValue {
		return Report{}, apperrors.New(apperrors.Unknown, "Probe value was not read back")
	}

	if err := s.step(ctx, func(ctx context.Context) error {
		return sess.Del(ctx, key).Err()
	}); err != nil {
		return Report{}, err
	}

	report.Latency = time.Since(start)

	var info map[string]string
	_ = s.step(ctx, func(ctx context.Context) error {
		raw, err := sess.Info(ctx).Result()
		if err != nil {
			s.log(ctx).Debug().Err(err).Msg("server info unavailable")
			return err
		}
		info = ParseInfo(raw)
		return nil
	})
	report.Version = orUnknown(info["redis_version"])
	report.Mode = orUnknown(info["redis_mode"])
	report.ConnectedClients = orUnknown(info["connected_clients"])
	report.UsedMemory = orUnknown(info["used_memory_human"])
	return report, nil
}

func (s *Service) step(ctx context.Context, fn func(ctx context.Context) error) error {
	stepCtx, cancel := s.stepContext(ctx)
	defer cancel()
	return fn(stepCtx)
}

// ParseInfo turns an INFO reply into a flat key/value map. Section headers and
// blank lines are skipped; values keep everything after the first colon.
func ParseInfo(raw string) map[string]string {
	out := make(map[string]string)
	sc := bufio.NewScanner(strings.NewReader(raw))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		out[k] = v
	}
	return out
}

func orUnknown(v string) string {
	if v == "" {
		return Unknown
	}
	return v
}

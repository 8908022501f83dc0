// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package client

import (
	"context"

	"redisgate/cli/internal/descriptor"
	"redisgate/cli/internal/gateway"
)

// Local runs operations in-process.
type Local struct {
	service *gateway.Service
}

// NewLocal wraps svc.
func NewLocal(svc *gateway.Service) *Local { return &Local{service: svc} }

func (l *Local) Probe(ctx context.Context, req descriptor.Request) (gateway.ProbeResponse, error) {
	report, err := l.service.Probe(ctx, req)
	return gateway.NewProbeResponse(report, err), nil
}

func (l *Local) ExecuteBatch(ctx context.Context, req gateway.BatchRequest) (gateway.BatchResponse, error) {
	outcomes, err := l.service.ExecuteBatch(ctx, req)
	return gateway.NewBatchResponse(outcomes, err), nil
}

func (l *Local) Close() error   { return nil }
func (l *Local) Target() string { return "local" }

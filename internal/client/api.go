// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package client provides the caller-side API the CLI uses to run probes and
// batches. The same interface is served in-process (Local), by a remote gateway
// over HTTP, or by a remote gateway over gRPC.
package client

import (
	"context"

	"redisgate/cli/internal/descriptor"
	"redisgate/cli/internal/gateway"
)

// API defines the gateway operations the CLI depends on.
// Operation failures are reported in the response (Success=false); the error
// return is reserved for failing to reach the gateway at all.
type API interface {
	Probe(ctx context.Context, req descriptor.Request) (gateway.ProbeResponse, error)
	ExecuteBatch(ctx context.Context, req gateway.BatchRequest) (gateway.BatchResponse, error)
	// Close releases transport resources.
	Close() error
	// Target names where operations run, for display.
	Target() string
}

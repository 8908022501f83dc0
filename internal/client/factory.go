// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package client

import (
	"errors"
	"time"

	"redisgate/cli/internal/gateway"
	"redisgate/cli/internal/rpc"
)

// Options selects the implementation returned by New.
type Options struct {
	// Remote is the base URL of a gateway's HTTP API.
	Remote string
	// GRPC is the host:port of a gateway's gRPC API.
	GRPC string
	// GRPCTLS enables TLS for GRPC.
	GRPCTLS bool
	// Timeout bounds one remote HTTP call.
	Timeout time.Duration
	// Service backs the local implementation. Required when no remote is set.
	Service *gateway.Service
}

// grpcAPI adapts rpc.Client to API.
type grpcAPI struct {
	*rpc.Client
	addr string
}

func (g grpcAPI) Target() string { return "grpc://" + g.addr }

// New returns the HTTP client when Remote is set, the gRPC client when GRPC is
// set, and the in-process implementation otherwise.
func New(opts Options) (API, error) {
	switch {
	case opts.Remote != "" && opts.GRPC != "":
		return nil, errors.New("choose either a remote HTTP gateway or a gRPC gateway, not both")
	case opts.Remote != "":
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = time.Minute
		}
		return newHTTP(opts.Remote, timeout), nil
	case opts.GRPC != "":
		c, err := rpc.Dial(opts.GRPC, opts.GRPCTLS)
		if err != nil {
			return nil, err
		}
		return grpcAPI{Client: c, addr: opts.GRPC}, nil
	case opts.Service != nil:
		return NewLocal(opts.Service), nil
	default:
		return nil, errors.New("no gateway configured")
	}
}

// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package rpc

import (
	"context"
	"crypto/tls"
	"net"

	"redisgate/cli/internal/descriptor"
	apperrors "redisgate/cli/internal/errors"
	"redisgate/cli/internal/gateway"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls a remote gateway over gRPC.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client for addr. With useTLS the server name is taken from
// addr; otherwise the connection is plaintext.
func Dial(addr string, useTLS bool, opts ...grpc.DialOption) (*Client, error) {
	creds := insecure.NewCredentials()
	if useTLS {
		host := addr
		if h, _, err := net.SplitHostPort(addr); err == nil {
			host = h
		}
		creds = credentials.NewTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
	}
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Probe calls the remote Probe method.
func (c *Client) Probe(ctx context.Context, req descriptor.Request) (gateway.ProbeResponse, error) {
	var out gateway.ProbeResponse
	err := c.invoke(ctx, ProbeMethod, req, &out)
	return out, err
}

// ExecuteBatch calls the remote ExecuteBatch method.
func (c *Client) ExecuteBatch(ctx context.Context, req gateway.BatchRequest) (gateway.BatchResponse, error) {
	var out gateway.BatchResponse
	err := c.invoke(ctx, ExecuteBatchMethod, req, &out)
	return out, err
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, req, out any) error {
	in, err := toStruct(req)
	if err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, resp); err != nil {
		return fromStatus(err)
	}
	return fromStruct(resp, out)
}

// fromStatus turns a status error back into a typed error.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.ResourceExhausted:
		return apperrors.Wrap(apperrors.Busy, st.Message(), err)
	case codes.InvalidArgument:
		return apperrors.Wrap(apperrors.Validation, st.Message(), err)
	case codes.DeadlineExceeded:
		return apperrors.Wrap(apperrors.Timeout, "Gateway call timed out", err)
	case codes.Unavailable:
		return apperrors.Wrap(apperrors.Transport, "Gateway unavailable", err)
	default:
		return apperrors.Wrap(apperrors.Unknown, st.Message(), err)
	}
}

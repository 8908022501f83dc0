// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"redisgate/cli/internal/conn"
	"redisgate/cli/internal/descriptor"
	apperrors "redisgate/cli/internal/errors"
	"redisgate/cli/internal/gateway"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// startBufconn serves a gateway over an in-memory listener and returns a
// connected client.
func startBufconn(t *testing.T, opts conn.Options) *Client {
	t.Helper()
	opts.Logger = zerolog.Nop()
	svc := gateway.New(conn.NewManager(opts), gateway.Options{CommandTimeout: 2 * time.Second, Logger: zerolog.Nop()})

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(svc, ServerOptions{Logger: zerolog.Nop()})
	require.NoError(t, srv.Serve(lis))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})

	client, err := Dial("passthrough:///bufnet", false, grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func target(t *testing.T, addr string) descriptor.Request {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	return descriptor.Request{Host: host, Port: port}
}

func TestExecuteBatch(t *testing.T) {
	mr := miniredis.RunT(t)
	client := startBufconn(t, conn.Options{})
	req := target(t, mr.Addr())

	resp, err := client.ExecuteBatch(context.Background(), gateway.BatchRequest{
		ConnectionConfig: &req,
		Commands:         []string{"SET k v", "GET k", "DEL k", "GET"},
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Len(t, resp.Results, 4)
	assert.Equal(t, "OK", resp.Results[0].Result)
	assert.Equal(t, "v", resp.Results[1].Result)
	assert.Equal(t, float64(1), resp.Results[2].Result)
	assert.False(t, resp.Results[3].Success)
	assert.Equal(t, "GET requires a key", resp.Results[3].Error)
}

func TestExecuteBatch_Rejected(t *testing.T) {
	client := startBufconn(t, conn.Options{})
	req := descriptor.Request{Host: "localhost", Port: "6379"}

	resp, err := client.ExecuteBatch(context.Background(), gateway.BatchRequest{ConnectionConfig: &req, Commands: []string{"EVAL return 1 0"}})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "not allowed")
}

func TestProbe(t *testing.T) {
	mr := miniredis.RunT(t)
	client := startBufconn(t, conn.Options{})

	resp, err := client.Probe(context.Background(), target(t, mr.Addr()))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Details)
	assert.Equal(t, "PONG", resp.Details.Ping)

	resp, err = client.Probe(context.Background(), descriptor.Request{Host: "localhost", Port: ""})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Port is required", resp.Error)
	assert.Nil(t, resp.Failure)
}

func TestProbe_Busy(t *testing.T) {
	mr := miniredis.RunT(t)
	m := conn.NewManager(conn.Options{MaxConnections: 1, Logger: zerolog.Nop()})
	req := target(t, mr.Addr())

	d, err := descriptor.Build(req)
	require.NoError(t, err)
	held, err := m.Acquire(context.Background(), d)
	require.NoError(t, err)
	defer held.Release()

	h := NewHandler(gateway.New(m, gateway.Options{Logger: zerolog.Nop()}))
	in, err := toStruct(req)
	require.NoError(t, err)

	_, err = h.Probe(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
	assert.Equal(t, apperrors.Busy, apperrors.KindOf(fromStatus(err)))
}

func TestHandler_InvalidArgument(t *testing.T) {
	h := NewHandler(gateway.New(conn.NewManager(conn.Options{Logger: zerolog.Nop()}), gateway.Options{Logger: zerolog.Nop()}))
	in, err := structpb.NewStruct(map[string]any{"commands": "PING"})
	require.NoError(t, err)

	_, err = h.ExecuteBatch(context.Background(), in)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		code codes.Code
		kind apperrors.Kind
	}{
		{codes.ResourceExhausted, apperrors.Busy},
		{codes.InvalidArgument, apperrors.Validation},
		{codes.DeadlineExceeded, apperrors.Timeout},
		{codes.Unavailable, apperrors.Transport},
		{codes.Internal, apperrors.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			err := fromStatus(status.Error(tt.code, "x"))
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
		})
	}
}

func TestStructRoundTrip(t *testing.T) {
	s, err := toStruct(gateway.BatchRequest{
		ConnectionConfig: &descriptor.Request{Host: "h", Port: "6379", SSL: true},
		Commands:         []string{"PING"},
	})
	require.NoError(t, err)

	var back gateway.BatchRequest
	require.NoError(t, fromStruct(s, &back))
	require.NotNil(t, back.ConnectionConfig)
	assert.Equal(t, "h", back.ConnectionConfig.Host)
	assert.Equal(t, true, back.ConnectionConfig.SSL)
	assert.Equal(t, []string{"PING"}, back.Commands)
}

// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package client

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"redisgate/cli/internal/conn"
	"redisgate/cli/internal/descriptor"
	apperrors "redisgate/cli/internal/errors"
	"redisgate/cli/internal/gateway"
	"redisgate/cli/internal/server"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() *gateway.Service {
	return gateway.New(conn.NewManager(conn.Options{Logger: zerolog.Nop()}), gateway.Options{
		CommandTimeout: 2 * time.Second,
		Logger:         zerolog.Nop(),
	})
}

func target(t *testing.T, addr string) descriptor.Request {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	return descriptor.Request{Host: host, Port: port}
}

// exercise runs the same checks against any API implementation.
func exercise(t *testing.T, api API, redisAddr string) {
	t.Helper()
	ctx := context.Background()
	req := target(t, redisAddr)

	probe, err := api.Probe(ctx, req)
	require.NoError(t, err)
	assert.True(t, probe.Success)
	require.NotNil(t, probe.Details)
	assert.Equal(t, "PONG", probe.Details.Ping)

	batch, err := api.ExecuteBatch(ctx, gateway.BatchRequest{ConnectionConfig: &req, Commands: []string{"SET a 1", "EXISTS a"}})
	require.NoError(t, err)
	require.True(t, batch.Success)
	require.Len(t, batch.Results, 2)
	assert.Equal(t, "OK", batch.Results[0].Result)

	rejected, err := api.ExecuteBatch(ctx, gateway.BatchRequest{ConnectionConfig: &req, Commands: []string{"SCRIPT FLUSH"}})
	require.NoError(t, err)
	assert.False(t, rejected.Success)
	assert.Contains(t, rejected.Error, "not allowed")

	bad, err := api.Probe(ctx, descriptor.Request{Host: "localhost", Port: "abc"})
	require.NoError(t, err)
	assert.False(t, bad.Success)
	assert.Equal(t, descriptor.MsgPortRange, bad.Error)
}

func TestLocal(t *testing.T) {
	mr := miniredis.RunT(t)
	api, err := New(Options{Service: newService()})
	require.NoError(t, err)
	defer api.Close()

	assert.Equal(t, "local", api.Target())
	exercise(t, api, mr.Addr())
}

func TestHTTP(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := httptest.NewServer(server.New(newService(), server.Options{Logger: zerolog.Nop()}).Handler())
	defer srv.Close()

	api, err := New(Options{Remote: srv.URL + "/"})
	require.NoError(t, err)
	defer api.Close()

	assert.Equal(t, srv.URL, api.Target())
	exercise(t, api, mr.Addr())
}

func TestHTTP_Version(t *testing.T) {
	srv := httptest.NewServer(server.New(newService(), server.Options{Logger: zerolog.Nop(), Version: "1.2.3"}).Handler())
	defer srv.Close()

	v, err := NewHTTP(srv.URL, time.Second).Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", v)
}

func TestHTTP_Busy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	api := newHTTP(srv.URL, time.Second)
	_, err := api.Probe(context.Background(), descriptor.Request{Host: "localhost", Port: "6379"})
	assert.Equal(t, apperrors.Busy, apperrors.KindOf(err))
}

func TestHTTP_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	api := newHTTP("http://"+addr, time.Second)
	_, err = api.ExecuteBatch(context.Background(), gateway.BatchRequest{})
	assert.Equal(t, apperrors.Transport, apperrors.KindOf(err))
}

func TestHTTP_NotJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>proxy error</html>"))
	}))
	defer srv.Close()

	_, err := newHTTP(srv.URL, time.Second).Probe(context.Background(), descriptor.Request{})
	require.Error(t, err)
	assert.Contains(t, apperrors.Message(err), "Unexpected gateway response")
}

func TestNew(t *testing.T) {
	_, err := New(Options{Remote: "http://a", GRPC: "b:1"})
	assert.Error(t, err)

	_, err = New(Options{})
	assert.Error(t, err)

	api, err := New(Options{GRPC: "localhost:9090"})
	require.NoError(t, err)
	assert.Equal(t, "grpc://localhost:9090", api.Target())
	assert.NoError(t, api.Close())
}

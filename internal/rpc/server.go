// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"redisgate/cli/internal/descriptor"
	apperrors "redisgate/cli/internal/errors"
	"redisgate/cli/internal/gateway"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// RequestIDKey is the metadata key carrying the request id.
const RequestIDKey = "x-request-id"

// MsgInvalidRequest is the status message for undecodable requests.
const MsgInvalidRequest = "Invalid request body"

// Handler adapts a gateway.Service to GatewayServer.
type Handler struct {
	service *gateway.Service
}

var _ GatewayServer = (*Handler)(nil)

// NewHandler creates a Handler for svc.
func NewHandler(svc *gateway.Service) *Handler { return &Handler{service: svc} }

func (h *Handler) Probe(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req descriptor.Request
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, MsgInvalidRequest)
	}
	report, err := h.service.Probe(ctx, req)
	if st := busyStatus(err); st != nil {
		return nil, st
	}
	return toStruct(gateway.NewProbeResponse(report, err))
}

func (h *Handler) ExecuteBatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req gateway.BatchRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, MsgInvalidRequest)
	}
	outcomes, err := h.service.ExecuteBatch(ctx, req)
	if st := busyStatus(err); st != nil {
		return nil, st
	}
	return toStruct(gateway.NewBatchResponse(outcomes, err))
}

func busyStatus(err error) error {
	if apperrors.KindOf(err) == apperrors.Busy {
		return status.Error(codes.ResourceExhausted, apperrors.Message(err))
	}
	return nil
}

// ServerOptions configures a Server.
type ServerOptions struct {
	Addr   string
	Logger zerolog.Logger
}

// Server runs the gRPC service.
type Server struct {
	// Addr is the address to listen on (e.g., ":9090").
	Addr string

	logger   zerolog.Logger
	grpc     *grpc.Server
	listener net.Listener
	mu       sync.Mutex
	running  bool
}

// NewServer creates a Server for svc.
func NewServer(svc *gateway.Service, opts ServerOptions) *Server {
	s := &Server{Addr: opts.Addr, logger: opts.Logger}
	s.grpc = grpc.NewServer(grpc.UnaryInterceptor(s.unaryLogger))
	RegisterGatewayServer(s.grpc, NewHandler(svc))
	return s
}

// Start listens on Addr and serves in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}
	if err := s.Serve(listener); err != nil {
		_ = listener.Close()
		return err
	}
	return nil
}

// Serve serves on lis in the background.
func (s *Server) Serve(lis net.Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("grpc server already running")
	}
	s.listener = lis
	s.running = true

	go func() {
		if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			s.logger.Error().Err(err).Msg("grpc server stopped")
		}
	}()
	s.logger.Info().Str("addr", lis.Addr().String()).Msg("grpc server listening")
	return nil
}

// Stop drains in-flight calls, forcing the stop when ctx expires first.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.grpc.Stop()
		return ctx.Err()
	}
}

// ListenAddr returns the actual address the server is listening on.
func (s *Server) ListenAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// unaryLogger attaches a request-scoped logger and writes one line per call.
func (s *Server) unaryLogger(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(RequestIDKey); len(v) > 0 {
			id = v[0]
		}
	}
	if id == "" || len(id) > 128 {
		id = uuid.NewString()
	}
	logger := s.logger.With().Str("req_id", id).Logger()
	ctx = logger.WithContext(ctx)
	_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDKey, id))

	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	event := logger.Info()
	if code != codes.OK {
		event = logger.Warn()
	}
	event.
		Str("method", info.FullMethod).
		Str("code", code.String()).
		Dur("duration", time.Since(start)).
		Msg("grpc_request")
	return resp, err
}

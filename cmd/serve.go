// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"

	"redisgate/cli/internal/conn"
	"redisgate/cli/internal/gateway"
	"redisgate/cli/internal/metrics"
	"redisgate/cli/internal/rpc"
	"redisgate/cli/internal/server"

	"github.com/spf13/cobra"
)

var (
	serveHTTPAddr string
	serveGRPCAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway HTTP API (and optionally the gRPC API)",
	Long: `Starts the gateway. The HTTP API serves:

  POST /api/test-connection   verify connectivity to a server
  POST /api/test-commands     run a guarded batch of commands
  GET  /healthz, /version, /metrics

When grpc_addr is configured (or --grpc-addr is given) the same operations
are served over gRPC. The process shuts down gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("http-addr") {
			cfg.HTTPAddr = serveHTTPAddr
		}
		if cmd.Flags().Changed("grpc-addr") {
			cfg.GRPCAddr = serveGRPCAddr
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger := newLogger(cfg, false)
		manager := conn.NewManager(conn.Options{
			CommandTimeout: cfg.CommandTimeout,
			MaxConnections: cfg.MaxConnections,
			Logger:         logger,
		})
		m := metrics.New(manager.Open)
		svc := gateway.New(manager, gateway.Options{
			CommandTimeout: cfg.CommandTimeout,
			Logger:         logger,
			Metrics:        m,
		})

		httpSrv := server.New(svc, server.Options{
			Addr:         cfg.HTTPAddr,
			MaxBodyBytes: cfg.MaxBodyBytes,
			CORSOrigins:  cfg.CORSOrigins,
			Version:      Version,
			Logger:       logger,
			Metrics:      m,
		})
		if err := httpSrv.Start(); err != nil {
			return err
		}

		var grpcSrv *rpc.Server
		if cfg.GRPCAddr != "" {
			grpcSrv = rpc.NewServer(svc, rpc.ServerOptions{Addr: cfg.GRPCAddr, Logger: logger})
			if err := grpcSrv.Start(); err != nil {
				_ = httpSrv.Stop(context.Background())
				return err
			}
		}

		logger.Info().
			Str("version", Version).
			Dur("command_timeout", cfg.CommandTimeout).
			Int64("max_connections", cfg.MaxConnections).
			Msg("gateway started")

		<-cmd.Context().Done()
		logger.Info().Msg("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := httpSrv.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
		if grpcSrv != nil {
			if err := grpcSrv.Stop(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			logger.Error().Err(err).Msg("shutdown incomplete")
			return err
		}
		logger.Info().Int64("open_connections", manager.Open()).Msg("gateway stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http-addr", "", "HTTP listen address (overrides http_addr)")
	serveCmd.Flags().StringVar(&serveGRPCAddr, "grpc-addr", "", "gRPC listen address (overrides grpc_addr; empty disables)")
}

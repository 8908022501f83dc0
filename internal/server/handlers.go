// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package server

import (
	"errors"
	"net/http"

	"redisgate/cli/internal/descriptor"
	apperrors "redisgate/cli/internal/errors"
	"redisgate/cli/internal/gateway"

	"github.com/gin-gonic/gin"
)

// Request body failures.
const (
	MsgInvalidBody  = "Invalid request body"
	MsgBodyTooLarge = "Request body too large"
)

func (s *Server) handleProbe(c *gin.Context) {
	var req descriptor.Request
	if !s.bind(c, &req, func(msg string) any { return gateway.ProbeResponse{Error: msg} }) {
		return
	}
	report, err := s.service.Probe(c.Request.Context(), req)
	c.JSON(StatusFor(err), gateway.NewProbeResponse(report, err))
}

func (s *Server) handleBatch(c *gin.Context) {
	var req gateway.BatchRequest
	if !s.bind(c, &req, func(msg string) any { return gateway.BatchResponse{Error: msg} }) {
		return
	}
	outcomes, err := s.service.ExecuteBatch(c.Request.Context(), req)
	c.JSON(StatusFor(err), gateway.NewBatchResponse(outcomes, err))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"open_connections": s.service.Manager().Open(),
	})
}

// bind decodes a size-capped JSON body into v. On failure it writes the
// response built by fail and returns false.
func (s *Server) bind(c *gin.Context, v any, fail func(msg string) any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes)
	err := c.ShouldBindJSON(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, fail(MsgBodyTooLarge))
		return false
	}
	c.JSON(http.StatusBadRequest, fail(MsgInvalidBody))
	return false
}

// StatusFor maps an operation error to an HTTP status. Every failure the
// caller can act on is a 400; only a full connection table is a 503.
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if apperrors.KindOf(err) == apperrors.Busy {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

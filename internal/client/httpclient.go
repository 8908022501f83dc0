// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"redisgate/cli/internal/descriptor"
	apperrors "redisgate/cli/internal/errors"
	"redisgate/cli/internal/gateway"
)

// HTTP paths served by a remote gateway.
const (
	ProbePath   = "/api/test-connection"
	BatchPath   = "/api/test-commands"
	VersionPath = "/version"
)

// HTTP implements API against a remote gateway's JSON endpoints.
type HTTP struct {
	// baseURL is the base URL for all requests (e.g., "http://gateway:8080")
	baseURL string
	// client is the underlying HTTP client with configured timeout
	client *http.Client
}

// newHTTP creates an HTTP client for baseURL. The timeout covers the connect
// bound plus a full batch of commands.
func newHTTP(baseURL string, timeout time.Duration) *HTTP {
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Probe calls POST /api/test-connection.
func (h *HTTP) Probe(ctx context.Context, req descriptor.Request) (gateway.ProbeResponse, error) {
	var out gateway.ProbeResponse
	err := h.post(ctx, ProbePath, req, &out)
	return out, err
}

// ExecuteBatch calls POST /api/test-commands.
func (h *HTTP) ExecuteBatch(ctx context.Context, req gateway.BatchRequest) (gateway.BatchResponse, error) {
	var out gateway.BatchResponse
	err := h.post(ctx, BatchPath, req, &out)
	return out, err
}

// Version fetches the build version of the remote gateway.
func (h *HTTP) Version(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+VersionPath, nil)
	if err != nil {
		return "", err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.Transport, "Gateway unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	var out struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Version, nil
}

// NewHTTP returns an HTTP client for the gateway at baseURL.
func NewHTTP(baseURL string, timeout time.Duration) *HTTP { return newHTTP(baseURL, timeout) }

func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}

func (h *HTTP) Target() string { return h.baseURL }

// post sends body as JSON and decodes the reply into out. Non-2xx replies
// that still carry a JSON body are decoded as well; they hold the in-band
// failure. A 503 becomes a busy error.
func (h *HTTP) post(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.Transport, "Gateway unreachable", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return apperrors.Wrap(apperrors.Transport, "Gateway response could not be read", err)
	}
	if resp.StatusCode == http.StatusServiceUnavailable {
		return apperrors.New(apperrors.Busy, apperrors.MsgBusy)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.Wrap(apperrors.Unknown, fmt.Sprintf("Unexpected gateway response (status %d)", resp.StatusCode), err)
	}
	return nil
}

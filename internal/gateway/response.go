// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package gateway

import (
	"encoding/json"

	apperrors "redisgate/cli/internal/errors"
)

// MsgConnected is the message of a successful probe response.
const MsgConnected = "Connection successful!"

// ProbeDetails is the details object of a successful probe.
type ProbeDetails struct {
	Ping             string `json:"ping"`
	ResponseTime     int64  `json:"responseTime"`
	Version          string `json:"version"`
	Mode             string `json:"mode"`
	ConnectedClients string `json:"connectedClients"`
	UsedMemory       string `json:"usedMemory"`
}

// FailureDetails carries the low-level diagnostics of a failed probe.
type FailureDetails struct {
	Code    string `json:"code"`
	Errno   int    `json:"errno,omitempty"`
	Syscall string `json:"syscall,omitempty"`
}

// ProbeResponse is the wire shape of a probe. Exactly one of Details or
// Failure is set when the response carries details; both marshal to "details".
type ProbeResponse struct {
	Success bool
	Message string
	Error   string
	Details *ProbeDetails
	Failure *FailureDetails
}

type probeWire struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r ProbeResponse) MarshalJSON() ([]byte, error) {
	w := probeWire{Success: r.Success, Message: r.Message, Error: r.Error}
	var details any
	switch {
	case r.Details != nil:
		details = r.Details
	case r.Failure != nil:
		details = r.Failure
	}
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return nil, err
		}
		w.Details = b
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. The success flag decides how
// details are read.
func (r *ProbeResponse) UnmarshalJSON(b []byte) error {
	var w probeWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*r = ProbeResponse{Success: w.Success, Message: w.Message, Error: w.Error}
	if len(w.Details) == 0 || string(w.Details) == "null" {
		return nil
	}
	if w.Success {
		r.Details = &ProbeDetails{}
		return json.Unmarshal(w.Details, r.Details)
	}
	r.Failure = &FailureDetails{}
	return json.Unmarshal(w.Details, r.Failure)
}

// BatchResponse is the wire shape of a batch execution.
type BatchResponse struct {
	Success bool      `json:"success"`
	Results []Outcome `json:"results,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// NewProbeResponse shapes the result of Service.Probe. Validation failures
// carry no details; every other failure carries its diagnostic code.
func NewProbeResponse(r Report, err error) ProbeResponse {
	if err != nil {
		resp := ProbeResponse{Error: apperrors.Message(err)}
		e := apperrors.Classify(err)
		if e.Kind == apperrors.Validation {
			return resp
		}
		code := e.Code
		if code == "" {
			code = "UNKNOWN_ERROR"
		}
		resp.Failure = &FailureDetails{Code: code, Errno: e.Errno, Syscall: e.Syscall}
		return resp
	}
	return ProbeResponse{
		Success: true,
		Message: MsgConnected,
		Details: &ProbeDetails{
			Ping:             r.Ping,
			ResponseTime:     r.Latency.Milliseconds(),
			Version:          r.Version,
			Mode:             r.Mode,
			ConnectedClients: r.ConnectedClients,
			UsedMemory:       r.UsedMemory,
		},
	}
}

// NewBatchResponse shapes the result of Service.ExecuteBatch.
func NewBatchResponse(outcomes []Outcome, err error) BatchResponse {
	if err != nil {
		return BatchResponse{Error: apperrors.Message(err)}
	}
	return BatchResponse{Success: true, Results: outcomes}
}

// Kind recovers the error kind of a failed probe from its diagnostics.
// A failure without details is a validation failure.
func (r ProbeResponse) Kind() apperrors.Kind {
	if r.Success {
		return ""
	}
	if r.Failure == nil {
		return apperrors.Validation
	}
	return apperrors.KindOfCode(r.Failure.Code)
}

// Kind recovers the error kind of a failed batch from its message. Messages
// that are not connection failures are validation failures.
func (r BatchResponse) Kind() apperrors.Kind {
	if r.Success {
		return ""
	}
	if k := apperrors.KindOfMessage(r.Error); k != apperrors.Unknown {
		return k
	}
	return apperrors.Validation
}

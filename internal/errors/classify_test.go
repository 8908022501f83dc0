// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	dns := &net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}}

	tests := []struct {
		name     string
		err      error
		kind     Kind
		code     string
		message  string
		syscall  string
		hasErrno bool
	}{
		{
			name:     "connection refused",
			err:      refused,
			kind:     Transport,
			code:     "ECONNREFUSED",
			message:  MsgRefused,
			syscall:  "connect",
			hasErrno: true,
		},
		{
			name:    "dns failure",
			err:     dns,
			kind:    Transport,
			code:    "ENOTFOUND",
			message: MsgHostNotFound,
			syscall: "getaddrinfo",
		},
		{
			name:    "wrong password",
			err:     fmt.Errorf("WRONGPASS invalid username-password pair or user is disabled."),
			kind:    Auth,
			code:    "WRONGPASS",
			message: MsgWrongPass,
		},
		{
			name:    "auth required",
			err:     fmt.Errorf("NOAUTH Authentication required."),
			kind:    Auth,
			code:    "NOAUTH",
			message: MsgNoAuth,
		},
		{
			name:    "context deadline",
			err:     fmt.Errorf("dial: %w", context.DeadlineExceeded),
			kind:    Timeout,
			code:    "ETIMEDOUT",
			message: MsgTimeout,
		},
		{
			name:    "tls failure",
			err:     fmt.Errorf("tls: first record does not look like a TLS handshake"),
			kind:    Transport,
			code:    "ERR_TLS",
			message: MsgTLS,
		},
		{
			name:    "db index out of range",
			err:     fmt.Errorf("ERR DB index is out of range"),
			kind:    Transport,
			code:    "ERR_DB_INDEX",
			message: MsgDBIndex,
		},
		{
			name:    "unknown keeps original text",
			err:     fmt.Errorf("something odd"),
			kind:    Unknown,
			code:    "UNKNOWN_ERROR",
			message: "something odd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.message, got.Message)
			assert.Equal(t, tt.syscall, got.Syscall)
			if tt.hasErrno {
				assert.Equal(t, int(syscall.ECONNREFUSED), got.Errno)
			}
			assert.True(t, stderrors.Is(got, tt.err))
		})
	}
}

func TestClassify_KeepsTypedErrors(t *testing.T) {
	in := New(Validation, "Host is required")
	assert.Same(t, in, Classify(fmt.Errorf("wrapped: %w", in)))
	assert.Nil(t, Classify(nil))
}

func TestKindOfAndMessage(t *testing.T) {
	err := fmt.Errorf("probe: %w", Wrap(Timeout, MsgTimeout, context.DeadlineExceeded))
	assert.Equal(t, Timeout, KindOf(err))
	assert.Equal(t, MsgTimeout, Message(err))

	plain := stderrors.New("boom")
	assert.Equal(t, Unknown, KindOf(plain))
	assert.Equal(t, "boom", Message(plain))
	assert.Equal(t, "", Message(nil))
}

func TestKindOfCodeAndMessage(t *testing.T) {
	tests := []struct {
		code string
		msg  string
		kind Kind
	}{
		{"ETIMEDOUT", MsgTimeout, Timeout},
		{"WRONGPASS", MsgWrongPass, Auth},
		{"NOAUTH", MsgNoAuth, Auth},
		{"ECONNREFUSED", MsgRefused, Transport},
		{"ENOTFOUND", MsgHostNotFound, Transport},
		{"ERR_TLS", MsgTLS, Transport},
		{"ERR_DB_INDEX", MsgDBIndex, Transport},
		{"EBUSY", MsgBusy, Busy},
		{"UNKNOWN_ERROR", "something odd", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOfCode(tt.code))
			assert.Equal(t, tt.kind, KindOfMessage(tt.msg))
		})
	}
}

// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package errors

import (
	"context"
	stderrors "errors"
	"net"
	"os"
	"strings"
	"syscall"
)

// Messages surfaced to callers for the known connection failure categories.
const (
	MsgRefused      = "Connection refused - Redis server may not be running or accessible"
	MsgTimeout      = "Connection timeout - Please check host, port, and network connectivity"
	MsgHostNotFound = "Host not found - Please verify the hostname or IP address"
	MsgWrongPass    = "Authentication failed - Invalid password"
	MsgNoAuth       = "Authentication required - Please provide a password"
	MsgTLS          = "Secure connection failed - Please check the SSL setting and the server certificate"
	MsgDBIndex      = "Database index is not supported by this server"
	MsgBusy         = "Too many concurrent connections - Please retry shortly"
)

// Classify converts a driver or network error into an *E with a known Kind.
// Errors that already are an *E are returned unchanged. Unrecognised errors
// become Unknown with the original text as message.
func Classify(err error) *E {
	if err == nil {
		return nil
	}
	var e *E
	if stderrors.As(err, &e) {
		return e
	}

	out := &E{Err: err, Errno: errnoOf(err), Syscall: syscallOf(err)}
	lower := strings.ToLower(err.Error())

	switch {
	case isConnectionRefusedError(err):
		out.Kind, out.Code, out.Message = Transport, "ECONNREFUSED", MsgRefused
	case isDNSError(err):
		out.Kind, out.Code, out.Message = Transport, "ENOTFOUND", MsgHostNotFound
		if out.Syscall == "" || out.Syscall == "dial" {
			out.Syscall = "getaddrinfo"
		}
	case strings.Contains(lower, "wrongpass") || strings.Contains(lower, "invalid password") ||
		strings.Contains(lower, "invalid username-password"):
		out.Kind, out.Code, out.Message = Auth, "WRONGPASS", MsgWrongPass
	case strings.Contains(lower, "noauth") || strings.Contains(lower, "authentication required"):
		out.Kind, out.Code, out.Message = Auth, "NOAUTH", MsgNoAuth
	case isTimeoutError(err):
		out.Kind, out.Code, out.Message = Timeout, "ETIMEDOUT", MsgTimeout
	case isSSLError(err):
		out.Kind, out.Code, out.Message = Transport, "ERR_TLS", MsgTLS
	case strings.Contains(lower, "db index is out of range") ||
		strings.Contains(lower, "select is not allowed"):
		out.Kind, out.Code, out.Message = Transport, "ERR_DB_INDEX", MsgDBIndex
	default:
		out.Kind, out.Code, out.Message = Unknown, "UNKNOWN_ERROR", err.Error()
	}
	return out
}

// isTimeoutError checks if the error is a timeout error.
func isTimeoutError(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// isDNSError checks if the error is a DNS resolution error.
func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return stderrors.As(err, &dnsErr)
}

// isConnectionRefusedError checks if the error is a connection refused error.
func isConnectionRefusedError(err error) bool {
	if stderrors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

// isSSLError checks if the error is an SSL/TLS error.
func isSSLError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls:") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}

func errnoOf(err error) int {
	var errno syscall.Errno
	if stderrors.As(err, &errno) {
		return int(errno)
	}
	return 0
}

func syscallOf(err error) string {
	var sysErr *os.SyscallError
	if stderrors.As(err, &sysErr) {
		return sysErr.Syscall
	}
	var opErr *net.OpError
	if stderrors.As(err, &opErr) {
		return opErr.Op
	}
	return ""
}

// KindOfCode maps a diagnostic code produced by Classify back to its Kind.
func KindOfCode(code string) Kind {
	switch code {
	case "ETIMEDOUT":
		return Timeout
	case "WRONGPASS", "NOAUTH":
		return Auth
	case "ECONNREFUSED", "ENOTFOUND", "ERR_TLS", "ERR_DB_INDEX":
		return Transport
	case "EBUSY":
		return Busy
	default:
		return Unknown
	}
}

// KindOfMessage maps a caller-facing message produced by Classify back to its
// Kind. Any other message is Unknown.
func KindOfMessage(msg string) Kind {
	switch msg {
	case MsgTimeout:
		return Timeout
	case MsgWrongPass, MsgNoAuth:
		return Auth
	case MsgRefused, MsgHostNotFound, MsgTLS, MsgDBIndex:
		return Transport
	case MsgBusy:
		return Busy
	default:
		return Unknown
	}
}

// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package descriptor validates untrusted connection parameters and turns them
// into an immutable Descriptor. Validation is pure: it never touches the network
// and accumulates every failing rule instead of stopping at the first one.
//
// Callers hand in a loosely-typed Request (as decoded from JSON or built from a
// redis:// URL) and only receive a Descriptor once every rule passed.
package descriptor

import (
	"fmt"
	"net"
	"strconv"

	"github.com/rs/zerolog"
)

// Limits applied by Validate.
const (
	MaxHostLength = 255
	MinPort       = 1
	MaxPort       = 65535
	MinDatabase   = 0
	MaxDatabase   = 15
	DefaultPort   = 6379
)

// Request is the connection part of a probe or batch request. Fields are
// loosely typed because they come straight from a JSON body: port and database
// may arrive as strings or numbers, and a caller may send the wrong type.
type Request struct {
	Host     any `json:"host"`
	Port     any `json:"port"`
	Password any `json:"password,omitempty"`
	Username any `json:"username,omitempty"`
	Database any `json:"database,omitempty"`
	SSL      any `json:"ssl,omitempty"`
}

// Descriptor identifies and authenticates one target store. It is only built by
// Build, after validation succeeded, and is never mutated afterwards.
type Descriptor struct {
	Host     string
	Port     int
	Username string
	// Password lives for the request scope only and is never logged.
	Password string
	Database int
	TLS      bool
}

// Addr returns host:port suitable for dialing.
func (d Descriptor) Addr() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// String renders the descriptor with the password redacted.
func (d Descriptor) String() string {
	scheme := "redis"
	if d.TLS {
		scheme = "rediss"
	}
	auth := ""
	if d.Username != "" || d.Password != "" {
		auth = d.Username
		if d.Password != "" {
			auth += ":***"
		}
		auth += "@"
	}
	return fmt.Sprintf("%s://%s%s/%d", scheme, auth, d.Addr(), d.Database)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler without the password.
func (d Descriptor) MarshalZerologObject(e *zerolog.Event) {
	e.Str("host", d.Host).
		Int("port", d.Port).
		Int("db", d.Database).
		Bool("tls", d.TLS).
		Bool("auth", d.Password != "")
	if d.Username != "" {
		e.Str("user", d.Username)
	}
}

// Result is the outcome of Validate.
type Result struct {
	OK     bool
	Errors []string
}

// ParseError represents an error that occurred while parsing a connection URL.
type ParseError struct {
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid connection URL: %s\nHint: %s", e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid connection URL: %s", e.Reason)
}

// NewParseError creates a new ParseError. The offending URL is not kept
// since it may carry a password.
func NewParseError(reason, hint string) *ParseError {
	return &ParseError{Reason: reason, Hint: hint}
}

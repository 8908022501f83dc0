// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package descriptor

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

const urlFormat = "redis://[user[:password]@]host[:port][/db] or rediss:// for TLS"

// ParseURL converts a redis:// or rediss:// URL into a Request. The result still
// has to go through Validate/Build; ParseURL only splits the URL apart.
//
// Standard URL parsing is tried first. Passwords containing unencoded special
// characters ('/', '#', '?') break it, in which case the URL is split manually
// on the last '@'.
func ParseURL(raw string) (Request, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Request{}, NewParseError("empty URL", "provide a connection URL: "+urlFormat)
	}

	var tls bool
	lower := strings.ToLower(raw)
	var remainder string
	switch {
	case strings.HasPrefix(lower, "rediss://"):
		tls = true
		remainder = raw[len("rediss://"):]
	case strings.HasPrefix(lower, "redis://"):
		remainder = raw[len("redis://"):]
	default:
		return Request{}, NewParseError("missing or invalid scheme", "use "+urlFormat)
	}

	req, err := fromStandardURL(raw)
	if err != nil {
		req, err = manualParse(remainder)
		if err != nil {
			return Request{}, err
		}
	}
	if tls {
		req.SSL = true
	}
	return req, nil
}

// fromStandardURL extracts a Request from a URL that net/url accepts.
func fromStandardURL(raw string) (Request, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return Request{}, err
	}
	if parsed.Hostname() == "" {
		return Request{}, NewParseError("missing host", "use "+urlFormat)
	}

	req := Request{
		Host: parsed.Hostname(),
		Port: parsed.Port(),
	}
	if req.Port == "" {
		req.Port = strconv.Itoa(DefaultPort)
	}
	if parsed.User != nil {
		if u := parsed.User.Username(); u != "" {
			req.Username = u
		}
		if p, ok := parsed.User.Password(); ok && p != "" {
			req.Password = p
		}
	}
	if db := strings.Trim(parsed.Path, "/"); db != "" {
		req.Database = db
	} else if db := parsed.Query().Get("db"); db != "" {
		req.Database = db
	}
	return req, nil
}

// manualParse handles URLs whose userinfo is not URL-encoded.
// Pattern: [user[:password]@]host[:port][/db][?params]
func manualParse(remainder string) (Request, error) {
	var req Request

	hostAndDB := remainder
	if at := strings.LastIndex(remainder, "@"); at != -1 {
		authPart := remainder[:at]
		hostAndDB = remainder[at+1:]

		user, pass, _ := strings.Cut(authPart, ":")
		if user != "" {
			req.Username = unescape(user)
		}
		if pass != "" {
			req.Password = unescape(pass)
		}
	}

	if q := strings.Index(hostAndDB, "?"); q != -1 {
		hostAndDB = hostAndDB[:q]
	}
	hostPart, db, _ := strings.Cut(hostAndDB, "/")
	if db = strings.TrimSpace(db); db != "" {
		req.Database = db
	}

	host, port := hostPart, strconv.Itoa(DefaultPort)
	if h, p, err := net.SplitHostPort(hostPart); err == nil {
		host, port = h, p
	}
	if strings.TrimSpace(host) == "" {
		return Request{}, NewParseError("missing host", "use "+urlFormat)
	}
	req.Host = host
	req.Port = port
	return req, nil
}

func unescape(s string) string {
	if out, err := url.PathUnescape(s); err == nil {
		return out
	}
	return s
}

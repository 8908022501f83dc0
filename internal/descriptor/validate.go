// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package descriptor

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	apperrors "redisgate/cli/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Validation messages, in the order they are reported.
const (
	MsgHostRequired    = "Host is required"
	MsgHostTooLong     = "Host must be less than 255 characters"
	MsgPortRequired    = "Port is required"
	MsgPortRange       = "Port must be a valid number between 1 and 65535"
	MsgDatabaseRange   = "Database must be a number between 0 and 15"
	MsgPasswordNotText = "Password must be a string"
	MsgUsernameNotText = "Username must be a string"
)

// validate is a package-level singleton; building a validator is expensive.
var validate = validator.New()

// fields is the typed view of a Request that the struct tags are checked on.
type fields struct {
	Host     string `validate:"required,max=255"`
	Port     int    `validate:"min=1,max=65535"`
	Database int    `validate:"min=0,max=15"`
}

// Validate checks every rule on req and reports all failures in a fixed order:
// host, port, database, password, username. It has no side effects.
func Validate(req Request) Result {
	var (
		f           fields
		portMissing bool
		errs        []string
	)

	// A blank host is missing, but the length limit applies to the host as sent.
	if s, ok := req.Host.(string); ok {
		f.Host = strings.TrimSpace(s)
		if f.Host != "" && len(s) > MaxHostLength {
			f.Host = s
		}
	}

	if isAbsent(req.Port) {
		portMissing = true
	} else if p, ok := toInt(req.Port); ok {
		f.Port = p
	}

	if !isAbsent(req.Database) {
		f.Database = -1
		if db, ok := toInt(req.Database); ok {
			f.Database = db
		}
	}

	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Result{Errors: []string{err.Error()}}
		}
		for _, fe := range verrs {
			switch fe.StructField() {
			case "Host":
				if fe.Tag() == "max" {
					errs = append(errs, MsgHostTooLong)
				} else {
					errs = append(errs, MsgHostRequired)
				}
			case "Port":
				if portMissing {
					errs = append(errs, MsgPortRequired)
				} else {
					errs = append(errs, MsgPortRange)
				}
			case "Database":
				errs = append(errs, MsgDatabaseRange)
			}
		}
	}

	if !isAbsent(req.Password) {
		if _, ok := req.Password.(string); !ok {
			errs = append(errs, MsgPasswordNotText)
		}
	}
	if !isAbsent(req.Username) {
		if _, ok := req.Username.(string); !ok {
			errs = append(errs, MsgUsernameNotText)
		}
	}

	return Result{OK: len(errs) == 0, Errors: errs}
}

// Build validates req and returns the Descriptor. On failure the error is a
// validation *errors.E whose message joins every failing rule with ", ".
func Build(req Request) (Descriptor, error) {
	res := Validate(req)
	if !res.OK {
		return Descriptor{}, apperrors.New(apperrors.Validation, strings.Join(res.Errors, ", "))
	}

	d := Descriptor{
		Host: strings.TrimSpace(req.Host.(string)),
		TLS:  truthy(req.SSL),
	}
	d.Port, _ = toInt(req.Port)
	if !isAbsent(req.Database) {
		d.Database, _ = toInt(req.Database)
	}
	if s, ok := req.Username.(string); ok {
		d.Username = strings.TrimSpace(s)
	}
	if s, ok := req.Password.(string); ok && strings.TrimSpace(s) != "" {
		d.Password = s
	}
	return d, nil
}

// isAbsent treats nil and blank strings as "not provided".
func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// toInt accepts decimal strings and integral JSON numbers.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	case int:
		return n, true
	case int64:
		if n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return toInt(i)
	default:
		return 0, false
	}
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "on", "yes":
			return true
		}
	}
	return false
}

package command

import (
	"strings"
	"unicode/utf8"

	apperrors "redisgate/cli/internal/errors"
)

// Batch limits. They are fixed and cannot be changed per request.
const (
	MaxBatchSize     = 10
	MaxCommandLength = 1000
)

// Batch rejection messages.
const (
	MsgEmptyBatch  = "At least one command is required"
	MsgBatchTooBig = "Maximum 10 commands allowed per request"
	MsgDangerous   = "Dangerous commands are not allowed for security reasons"
	MsgTooLong     = "Commands must be less than 1000 characters each"
)

// ValidateBatch classifies every command and applies the batch-level rules.
// A single Denied command rejects the whole batch, as does an oversized batch or
// an over-long command. On rejection the error is a validation *errors.E whose
// message joins every failing rule with ", ".
func ValidateBatch(commands []string) ([]Classified, error) {
	if len(commands) == 0 {
		return nil, apperrors.New(apperrors.Validation, MsgEmptyBatch)
	}

	var errs []string
	if len(commands) > MaxBatchSize {
		errs = append(errs, MsgBatchTooBig)
	}

	classified := make([]Classified, len(commands))
	var denied, tooLong bool
	for i, raw := range commands {
		classified[i] = Classify(raw)
		if classified[i].Verdict == Denied {
			denied = true
		}
		if utf8.RuneCountInString(raw) > MaxCommandLength {
			tooLong = true
		}
	}
	if denied {
		errs = append(errs, MsgDangerous)
	}
	if tooLong {
		errs = append(errs, MsgTooLong)
	}

	if len(errs) > 0 {
		return nil, apperrors.New(apperrors.Validation, strings.Join(errs, ", "))
	}
	return classified, nil
}

// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"strings"

	apperrors "redisgate/cli/internal/errors"

	"github.com/pterm/pterm"
)

// PresentError formats an error for user display with masking.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
}

// FormatConnectionError renders a failed probe or batch for the terminal.
// kind selects the explanation block; message is the caller-facing message and
// code the diagnostic code, both shown verbatim after masking.
func FormatConnectionError(kind apperrors.Kind, message, code string) string {
	var builder strings.Builder

	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint(title(kind)))
	builder.WriteString("\n\n")

	switch kind {
	case apperrors.Validation:
		builder.WriteString("The request was rejected before any connection was opened.\n")
		builder.WriteString("Fix the following and try again:\n")
		for _, part := range strings.Split(message, ", ") {
			builder.WriteString("  • " + part + "\n")
		}

	case apperrors.Timeout:
		builder.WriteString("The server did not answer within 5 seconds.\n")
		builder.WriteString("This could mean:\n")
		builder.WriteString("  • The host or port is wrong\n")
		builder.WriteString("  • A firewall is silently dropping the connection\n")
		builder.WriteString("  • The server expects TLS and --tls was not set (or the reverse)\n")

	case apperrors.Auth:
		builder.WriteString("The server rejected the credentials.\n")
		builder.WriteString("To fix this:\n")
		builder.WriteString("  • Check the password (and username for ACL users)\n")
		builder.WriteString("  • Use --ask-pass to enter the password without echo\n")

	case apperrors.Transport:
		builder.WriteString("The connection could not be established.\n")
		builder.WriteString("Please check:\n")
		builder.WriteString("  • The server is running and reachable from this machine\n")
		builder.WriteString("  • The hostname resolves and the port is open\n")
		builder.WriteString("  • The TLS setting matches the server\n")

	case apperrors.Busy:
		builder.WriteString("The gateway is handling too many connections right now.\n")
		builder.WriteString("  • Retry in a few seconds\n")

	default:
		builder.WriteString("The request failed unexpectedly.\n")
	}

	builder.WriteString("\n")
	builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ " + Mask(message)))
	builder.WriteString("\n")

	if strings.TrimSpace(code) != "" {
		builder.WriteString("\n")
		builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + code))
	}

	return builder.String()
}

// PresentConnectionError displays a formatted connection error.
func PresentConnectionError(kind apperrors.Kind, message, code string) {
	fmt.Println()
	fmt.Println(FormatConnectionError(kind, message, code))
	fmt.Println()
}

func title(kind apperrors.Kind) string {
	switch kind {
	case apperrors.Validation:
		return "Invalid Request"
	case apperrors.Timeout:
		return "Connection Timeout"
	case apperrors.Auth:
		return "Authentication Failed"
	case apperrors.Transport:
		return "Connection Failed"
	case apperrors.Busy:
		return "Gateway Busy"
	default:
		return "Request Failed"
	}
}

// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"redisgate/cli/internal/descriptor"
	apperrors "redisgate/cli/internal/errors"
	"redisgate/cli/internal/gateway"
	"redisgate/cli/internal/logging"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var probeFlags targetFlags

// probeCmd verifies connectivity: connect, PING, a SET/GET/DEL round trip and
// INFO, all on one short-lived connection.
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Verify connectivity to a Redis-protocol server",
	Long: `The probe command connects to the server, pings it, writes, reads back and
deletes a short-lived probe key, and reports server information.

The connection is given 5 seconds to come up. The password is never stored.

Examples:
  redisgate probe --host localhost --port 6379
  redisgate probe --url rediss://default@cache.example.com:6380 --ask-pass
  redisgate probe --host 10.0.0.5 --remote http://gateway:8080`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := probeFlags.request(cmd)
		if err != nil {
			return presentParseError(err)
		}
		api, err := probeFlags.api()
		if err != nil {
			return err
		}
		defer api.Close()

		var resp gateway.ProbeResponse
		spin("verifying connection", probeFlags.json, func() {
			resp, err = api.Probe(cmd.Context(), req)
		})
		if err != nil {
			logging.PresentConnectionError(apperrors.KindOf(err), apperrors.Message(err), "")
			return errReported
		}

		if probeFlags.json {
			if err := printJSON(resp); err != nil {
				return err
			}
			if !resp.Success {
				return errReported
			}
			return nil
		}

		if !resp.Success {
			code := ""
			if resp.Failure != nil {
				code = resp.Failure.Code
			}
			logging.PresentConnectionError(resp.Kind(), resp.Error, code)
			return errReported
		}

		renderProbe(describe(req), api.Target(), resp)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeFlags.bind(probeCmd, true)
}

func renderProbe(target, via string, resp gateway.ProbeResponse) {
	d := resp.Details
	if d == nil {
		d = &gateway.ProbeDetails{}
	}
	rows := [][]string{
		{"Target", target},
		{"Via", via},
		{"Ping", d.Ping},
		{"Round trip", strconv.FormatInt(d.ResponseTime, 10) + " ms"},
		{"Version", d.Version},
		{"Mode", d.Mode},
		{"Clients", d.ConnectedClients},
		{"Memory", d.UsedMemory},
	}
	table, err := pterm.DefaultTable.WithData(rows).Srender()
	if err != nil {
		table = fmt.Sprint(rows)
	}

	pterm.DefaultBox.
		WithTitle(pterm.NewStyle(pterm.FgGreen, pterm.Bold).Sprint("✅ " + resp.Message)).
		WithPadding(1).
		Println(table)
}

// presentParseError prints a malformed connection URL with its hint. Other
// errors are returned unchanged.
func presentParseError(err error) error {
	var pe *descriptor.ParseError
	if errors.As(err, &pe) {
		pterm.Println("❌ Invalid connection URL: " + pe.Reason)
		if pe.Hint != "" {
			pterm.Println("   " + pe.Hint)
		}
		return errReported
	}
	return err
}

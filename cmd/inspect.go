// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"strconv"

	"redisgate/cli/internal/descriptor"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var inspectFlags targetFlags

// inspectCmd shows how a URL or a set of flags is understood, without
// connecting. The password is masked.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the parsed connection target without connecting",
	Long: `The inspect command parses a connection URL (or the --host/--port flags),
validates it the same way the gateway does, and prints the result with the
password masked. No connection is opened.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := inspectFlags.request(cmd)
		if err != nil {
			return presentParseError(err)
		}

		res := descriptor.Validate(req)
		if !res.OK {
			pterm.Println("❌ The connection target is not valid:")
			for _, e := range res.Errors {
				pterm.Println("   • " + e)
			}
			return errReported
		}

		d, err := descriptor.Build(req)
		if err != nil {
			return err
		}

		password := "(none)"
		if d.Password != "" {
			password = "***"
		}
		username := d.Username
		if username == "" {
			username = "(default)"
		}
		rows := [][]string{
			{"URL", d.String()},
			{"Host", d.Host},
			{"Port", strconv.Itoa(d.Port)},
			{"Username", username},
			{"Password", password},
			{"Database", strconv.Itoa(d.Database)},
			{"TLS", strconv.FormatBool(d.TLS)},
		}
		table, err := pterm.DefaultTable.WithData(rows).Srender()
		if err != nil {
			return err
		}

		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Connection Target")).
			WithPadding(1).
			Println(table)
		pterm.Println()
		pterm.Println("To verify it, run: redisgate probe with the same flags")
		pterm.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectFlags.bind(inspectCmd, false)
}

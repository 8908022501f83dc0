// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	apperrors "redisgate/cli/internal/errors"
	"redisgate/cli/internal/gateway"
	"redisgate/cli/internal/logging"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	execFlags targetFlags
	execFile  string
)

// execCmd runs a guarded batch of commands on one connection.
var execCmd = &cobra.Command{
	Use:   "exec [flags] COMMAND...",
	Short: "Run a guarded batch of commands",
	Long: `The exec command runs up to 10 commands, in order, on one connection.
Each argument is one command line. Commands can also be read from a file
(one per line, '#' starts a comment) with --file; use --file - for stdin.

The whole batch is rejected before connecting when it contains a command that
is not allowed (FLUSHALL, CONFIG SET, SCRIPT, SHUTDOWN, ...). A failing
command does not stop the ones after it.

Examples:
  redisgate exec --host localhost "SET greeting hello" "GET greeting"
  redisgate exec --url redis://localhost/2 --file commands.txt
  redisgate exec --host cache --grpc gateway:9090 "INFO server"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		commands := append([]string{}, args...)
		if execFile != "" {
			fromFile, err := readCommands(execFile)
			if err != nil {
				return err
			}
			commands = append(commands, fromFile...)
		}

		req, err := execFlags.request(cmd)
		if err != nil {
			return presentParseError(err)
		}
		api, err := execFlags.api()
		if err != nil {
			return err
		}
		defer api.Close()

		var resp gateway.BatchResponse
		spin(fmt.Sprintf("running %d command(s)", len(commands)), execFlags.json, func() {
			resp, err = api.ExecuteBatch(cmd.Context(), gateway.BatchRequest{
				ConnectionConfig: &req,
				Commands:         commands,
			})
		})
		if err != nil {
			logging.PresentConnectionError(apperrors.KindOf(err), apperrors.Message(err), "")
			return errReported
		}

		if execFlags.json {
			if err := printJSON(resp); err != nil {
				return err
			}
		} else if !resp.Success {
			logging.PresentConnectionError(resp.Kind(), resp.Error, "")
			return errReported
		} else {
			renderOutcomes(resp.Results)
		}

		if !resp.Success || failed(resp.Results) > 0 {
			return errReported
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
	execFlags.bind(execCmd, true)
	execCmd.Flags().StringVarP(&execFile, "file", "f", "", "Read commands from a file, one per line ('-' for stdin)")
}

// readCommands reads one command per line, skipping blank lines and lines
// starting with '#'.
func readCommands(path string) ([]string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read commands: %w", err)
	}
	return out, nil
}

func failed(outcomes []gateway.Outcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.Success {
			n++
		}
	}
	return n
}

// renderOutcomes prints one table row per outcome. Credential arguments are
// masked in the command column.
func renderOutcomes(outcomes []gateway.Outcome) {
	okStyle := pterm.NewStyle(pterm.FgGreen)
	errStyle := pterm.NewStyle(pterm.FgRed)

	data := [][]string{{"#", "Command", "Status", "Result", "Time"}}
	for i, o := range outcomes {
		status := okStyle.Sprint("ok")
		result := formatValue(o.Result, 60)
		if !o.Success {
			status = errStyle.Sprint("error")
			result = formatValue(o.Error, 60)
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			formatValue(logging.MaskCommand(o.Command), 40),
			status,
			result,
			strconv.FormatInt(o.ResponseTime, 10) + " ms",
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		for _, row := range data[1:] {
			fmt.Println(strings.Join(row, "  "))
		}
	}

	if n := failed(outcomes); n > 0 {
		pterm.Println(fmt.Sprintf("\n⚠️  %d of %d command(s) failed", n, len(outcomes)))
		return
	}
	pterm.Println(fmt.Sprintf("\n✅ %d command(s) succeeded", len(outcomes)))
}

// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"time"

	"redisgate/cli/internal/client"

	"github.com/spf13/cobra"
)

var (
	// Version holds the CLI version information.
	// This value is typically set at build time using -ldflags.
	Version = "0.0.0-dev"

	versionRemote string
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Prints the redisgate version. With --remote, the version of a running gateway
is fetched and printed as well.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printVersion(cmd.Context(), versionRemote)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().StringVar(&versionRemote, "remote", "", "Base URL of a running gateway (e.g. http://localhost:8080)")
}

// printVersion prints the local version and, when remote is set, the version
// reported by that gateway ("unknown" when it cannot be reached).
func printVersion(ctx context.Context, remote string) {
	fmt.Printf("redisgate %s\n", Version)
	if remote == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	gatewayVersion, err := client.NewHTTP(remote, 5*time.Second).Version(ctx)
	if err != nil || gatewayVersion == "" {
		gatewayVersion = "unknown"
	}
	fmt.Printf("gateway %s\n", gatewayVersion)
}

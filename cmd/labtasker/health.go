package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/luocfprime/labtasker/pkg/client"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check coordinator liveness and database connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadClientConfig()
		return runHealth(cmd.Context(), cfg.APIBaseURL, cmd.OutOrStdout())
	},
}

func runHealth(ctx context.Context, baseURL string, out io.Writer) error {
	resp, err := client.Health(ctx, baseURL)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return writeJSON(out, resp)
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/luocfprime/labtasker/internal/config"
)

var (
	configAPIBaseURL string
	configQueueName  string
	configPassword   string
	configHeartbeat  time.Duration
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or write the client configuration",
	Long: `Show the client configuration or, with flags, write a new
client.env TOML document at $LABTASKER_ROOT (or --root).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("api-base-url") || cmd.Flags().Changed("queue-name") ||
			cmd.Flags().Changed("password") || cmd.Flags().Changed("heartbeat-interval") {
			return runConfigWrite(resolveRoot(), config.ClientConfig{
				APIBaseURL:        configAPIBaseURL,
				QueueName:         configQueueName,
				Password:          configPassword,
				HeartbeatInterval: configHeartbeat,
			}, cmd.OutOrStdout())
		}
		return runConfigShow(resolveRoot(), cmd.OutOrStdout())
	},
}

func init() {
	configCmd.Flags().StringVar(&configAPIBaseURL, "api-base-url", "http://localhost:9321", "coordinator base URL")
	configCmd.Flags().StringVar(&configQueueName, "queue-name", "", "queue name")
	configCmd.Flags().StringVar(&configPassword, "password", "", "queue password")
	configCmd.Flags().DurationVar(&configHeartbeat, "heartbeat-interval", 10*time.Second, "heartbeat tick interval")
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(root string, out io.Writer) error {
	cfg, err := config.LoadClient(root)
	if err != nil {
		return fmt.Errorf("failed to load client config: %w", err)
	}
	return writeJSON(out, cfg)
}

func runConfigWrite(root string, cfg config.ClientConfig, out io.Writer) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("failed to create root directory: %w", err)
	}

	path := filepath.Join(root, "client.env")
	contents := fmt.Sprintf(
		"api_base_url = %q\nqueue_name = %q\npassword = %q\nheartbeat_interval = %q\n",
		cfg.APIBaseURL, cfg.QueueName, cfg.Password, cfg.HeartbeatInterval.String(),
	)

	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		return fmt.Errorf("failed to write client.env: %w", err)
	}

	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}

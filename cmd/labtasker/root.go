package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/luocfprime/labtasker/internal/config"
	"github.com/luocfprime/labtasker/internal/redact"
	"github.com/luocfprime/labtasker/pkg/client"
)

var rootCmd = &cobra.Command{
	Use:   "labtasker",
	Short: "Client for the labtasker coordinator",
	Long: `labtasker drives lab/experiment task queues against a labtasker
coordinator: submit tasks, inspect queues/workers, and run worker loops
that fetch and execute tasks one at a time.`,
}

var labtaskerRoot string

func init() {
	rootCmd.PersistentFlags().StringVar(&labtaskerRoot, "root", "",
		"root directory for client.env and run logs (default $LABTASKER_ROOT or .labtasker)")
}

func Execute() error {
	return rootCmd.Execute()
}

func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %s\n", msg, redact.Error(err))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", redact.Scrub(msg))
	}
	os.Exit(1)
}

func resolveRoot() string {
	if labtaskerRoot != "" {
		return labtaskerRoot
	}
	return config.DefaultRoot()
}

func loadClientConfig() *config.ClientConfig {
	cfg, err := config.LoadClient(resolveRoot())
	if err != nil {
		exitWithError("failed to load client config", err)
	}
	return cfg
}

func newSDK(cfg *config.ClientConfig) *client.Client {
	return client.New(cfg.APIBaseURL, cfg.QueueName, cfg.Password)
}

func printJSON(v interface{}) {
	if err := writeJSON(os.Stdout, v); err != nil {
		exitWithError("failed to encode output", err)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

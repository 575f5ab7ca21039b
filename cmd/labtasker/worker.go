package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/luocfprime/labtasker/internal/model"
	"github.com/luocfprime/labtasker/pkg/client"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Manage workers",
}

var (
	workerCreateName       string
	workerCreateMaxRetries int
)

var workerCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		sdk := newSDK(loadClientConfig())
		return runWorkerCreate(cmd.Context(), sdk, client.CreateWorkerRequest{
			WorkerName: workerCreateName,
			MaxRetries: workerCreateMaxRetries,
		}, cmd.OutOrStdout())
	},
}

func runWorkerCreate(ctx context.Context, sdk *client.Client, req client.CreateWorkerRequest, out io.Writer) error {
	resp, err := sdk.CreateWorker(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}
	return writeJSON(out, resp)
}

var workerLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		sdk := newSDK(loadClientConfig())
		return runWorkerLs(cmd.Context(), sdk, cmd.OutOrStdout())
	},
}

func runWorkerLs(ctx context.Context, sdk *client.Client, out io.Writer) error {
	resp, err := sdk.ListWorkers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list workers: %w", err)
	}
	return writeJSON(out, resp)
}

var workerReportCmd = &cobra.Command{
	Use:   "report <worker-id> <status>",
	Short: "Report a worker's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sdk := newSDK(loadClientConfig())
		return runWorkerReport(cmd.Context(), sdk, args[0], model.WorkerStatus(args[1]))
	},
}

func runWorkerReport(ctx context.Context, sdk *client.Client, workerID string, status model.WorkerStatus) error {
	if err := sdk.ReportWorkerStatus(ctx, workerID, client.ReportWorkerStatusRequest{Status: status}); err != nil {
		return fmt.Errorf("failed to report worker status: %w", err)
	}
	return nil
}

func init() {
	workerCreateCmd.Flags().StringVar(&workerCreateName, "name", "", "worker name")
	workerCreateCmd.Flags().IntVar(&workerCreateMaxRetries, "max-retries", 0, "max retries before the worker is crashed")

	workerCmd.AddCommand(workerCreateCmd, workerLsCmd, workerReportCmd)
	rootCmd.AddCommand(workerCmd)
}

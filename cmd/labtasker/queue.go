package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/luocfprime/labtasker/pkg/client"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Manage the queue",
}

var queueCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadClientConfig()
		return runQueueCreate(cmd.Context(), cfg.APIBaseURL, cfg.QueueName, cfg.Password, cmd.OutOrStdout())
	},
}

func runQueueCreate(ctx context.Context, baseURL, queueName, password string, out io.Writer) error {
	resp, err := client.CreateQueue(ctx, baseURL, client.CreateQueueRequest{
		QueueName: queueName,
		Password:  password,
	})
	if err != nil {
		return fmt.Errorf("failed to create queue: %w", err)
	}
	return writeJSON(out, resp)
}

var queueGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the authenticated queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		sdk := newSDK(loadClientConfig())
		return runQueueGet(cmd.Context(), sdk, cmd.OutOrStdout())
	},
}

func runQueueGet(ctx context.Context, sdk *client.Client, out io.Writer) error {
	q, err := sdk.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch queue: %w", err)
	}
	return writeJSON(out, q)
}

var (
	queueUpdateNewName     string
	queueUpdateNewPassword string
)

var queueUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Rename the queue and/or rotate its password",
	RunE: func(cmd *cobra.Command, args []string) error {
		sdk := newSDK(loadClientConfig())

		req := client.UpdateQueueRequest{}
		if cmd.Flags().Changed("new-name") {
			req.NewName = &queueUpdateNewName
		}
		if cmd.Flags().Changed("new-password") {
			req.NewPassword = &queueUpdateNewPassword
		}
		return runQueueUpdate(cmd.Context(), sdk, req, cmd.OutOrStdout())
	},
}

func runQueueUpdate(ctx context.Context, sdk *client.Client, req client.UpdateQueueRequest, out io.Writer) error {
	q, err := sdk.UpdateMe(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to update queue: %w", err)
	}
	return writeJSON(out, q)
}

var queueDeleteCascade bool

var queueDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		sdk := newSDK(loadClientConfig())
		return runQueueDelete(cmd.Context(), sdk, queueDeleteCascade)
	},
}

func runQueueDelete(ctx context.Context, sdk *client.Client, cascade bool) error {
	if err := sdk.DeleteMe(ctx, cascade); err != nil {
		return fmt.Errorf("failed to delete queue: %w", err)
	}
	return nil
}

func init() {
	queueUpdateCmd.Flags().StringVar(&queueUpdateNewName, "new-name", "", "new queue name")
	queueUpdateCmd.Flags().StringVar(&queueUpdateNewPassword, "new-password", "", "new queue password")
	queueDeleteCmd.Flags().BoolVar(&queueDeleteCascade, "cascade", false, "also delete the queue's tasks and workers")

	queueCmd.AddCommand(queueCreateCmd, queueGetCmd, queueUpdateCmd, queueDeleteCmd)
	rootCmd.AddCommand(queueCmd)
}

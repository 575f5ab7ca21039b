package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/luocfprime/labtasker/internal/model"
	"github.com/luocfprime/labtasker/pkg/client"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

func parseValueFlag(raw string) (model.Value, error) {
	if raw == "" {
		return model.Null(), nil
	}
	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return model.Value{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return model.FromAny(decoded)
}

var (
	taskSubmitName             string
	taskSubmitArgs             string
	taskSubmitMetadata         string
	taskSubmitCmd              []string
	taskSubmitPriority         string
	taskSubmitMaxRetries       int
	taskSubmitHeartbeatTimeout int
	taskSubmitTaskTimeout      int
)

var priorityByName = map[string]model.Priority{
	"low":    model.PriorityLow,
	"medium": model.PriorityMedium,
	"high":   model.PriorityHigh,
}

var taskSubmitCmdCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a new task",
	RunE: func(cmd *cobra.Command, args []string) error {
		sdk := newSDK(loadClientConfig())

		taskArgs, err := parseValueFlag(taskSubmitArgs)
		if err != nil {
			return fmt.Errorf("--args: %w", err)
		}
		metadata, err := parseValueFlag(taskSubmitMetadata)
		if err != nil {
			return fmt.Errorf("--metadata: %w", err)
		}

		priority, ok := priorityByName[taskSubmitPriority]
		if !ok {
			priority = model.PriorityMedium
		}

		req := client.CreateTaskRequest{
			TaskName:         taskSubmitName,
			Args:             taskArgs,
			Metadata:         metadata,
			Cmd:              taskSubmitCmd,
			Priority:         priority,
			MaxRetries:       taskSubmitMaxRetries,
			HeartbeatTimeout: taskSubmitHeartbeatTimeout,
		}
		if cmd.Flags().Changed("task-timeout") {
			req.TaskTimeout = &taskSubmitTaskTimeout
		}

		return runTaskSubmit(cmd.Context(), sdk, req, cmd.OutOrStdout())
	},
}

func runTaskSubmit(ctx context.Context, sdk *client.Client, req client.CreateTaskRequest, out io.Writer) error {
	resp, err := sdk.CreateTask(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to submit task: %w", err)
	}
	return writeJSON(out, resp)
}

var (
	taskLsOffset int64
	taskLsLimit  int64
)

var taskLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		sdk := newSDK(loadClientConfig())
		return runTaskLs(cmd.Context(), sdk, taskLsOffset, taskLsLimit, cmd.OutOrStdout())
	},
}

func runTaskLs(ctx context.Context, sdk *client.Client, offset, limit int64, out io.Writer) error {
	resp, err := sdk.ListTasks(ctx, offset, limit)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	return writeJSON(out, resp)
}

var taskReportSummary string

var taskReportCmd = &cobra.Command{
	Use:   "report <task-id> <status>",
	Short: "Report a task's terminal status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sdk := newSDK(loadClientConfig())
		summary, err := parseValueFlag(taskReportSummary)
		if err != nil {
			return fmt.Errorf("--summary: %w", err)
		}
		return runTaskReport(cmd.Context(), sdk, args[0], model.TaskStatus(args[1]), summary)
	},
}

func runTaskReport(ctx context.Context, sdk *client.Client, taskID string, status model.TaskStatus, summary model.Value) error {
	req := client.ReportStatusRequest{Status: status, Summary: summary}
	if err := sdk.ReportTaskStatus(ctx, taskID, req); err != nil {
		return fmt.Errorf("failed to report task status: %w", err)
	}
	return nil
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sdk := newSDK(loadClientConfig())
		return runTaskDelete(cmd.Context(), sdk, args[0])
	},
}

func runTaskDelete(ctx context.Context, sdk *client.Client, taskID string) error {
	if err := sdk.DeleteTask(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func init() {
	taskSubmitCmdCmd.Flags().StringVar(&taskSubmitName, "name", "", "task name")
	taskSubmitCmdCmd.Flags().StringVar(&taskSubmitArgs, "args", "", "task arguments as a JSON object")
	taskSubmitCmdCmd.Flags().StringVar(&taskSubmitMetadata, "metadata", "", "task metadata as a JSON object")
	taskSubmitCmdCmd.Flags().StringSliceVar(&taskSubmitCmd, "cmd", nil, "command template tokens")
	taskSubmitCmdCmd.Flags().StringVar(&taskSubmitPriority, "priority", "medium", "low, medium, or high")
	taskSubmitCmdCmd.Flags().IntVar(&taskSubmitMaxRetries, "max-retries", 3, "max retries before the task fails")
	taskSubmitCmdCmd.Flags().IntVar(&taskSubmitHeartbeatTimeout, "heartbeat-timeout", 60, "seconds without a heartbeat before the task is swept")
	taskSubmitCmdCmd.Flags().IntVar(&taskSubmitTaskTimeout, "task-timeout", 0, "overall task timeout in seconds")

	taskLsCmd.Flags().Int64Var(&taskLsOffset, "offset", 0, "pagination offset")
	taskLsCmd.Flags().Int64Var(&taskLsLimit, "limit", 100, "pagination limit")

	taskReportCmd.Flags().StringVar(&taskReportSummary, "summary", "", "task summary as a JSON object")

	taskCmd.AddCommand(taskSubmitCmdCmd, taskLsCmd, taskReportCmd, taskDeleteCmd)
	rootCmd.AddCommand(taskCmd)
}

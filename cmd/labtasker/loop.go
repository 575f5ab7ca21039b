package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	internalclient "github.com/luocfprime/labtasker/internal/client"
	"github.com/luocfprime/labtasker/internal/config"
	"github.com/luocfprime/labtasker/internal/duration"
	"github.com/luocfprime/labtasker/internal/interpolate"
	"github.com/luocfprime/labtasker/internal/model"
	"github.com/luocfprime/labtasker/pkg/client"
)

var (
	loopCmdTemplate string
	loopExtraFilter string
	loopWorkerName  string
	loopHeartbeat   time.Duration
	loopEtaMax      string
)

var loopCmd = &cobra.Command{
	Use:   "loop",
	Short: "Run a worker loop that fetches and executes tasks one at a time",
	Long: `loop fetches tasks from the queue one at a time, renders --cmd
against each task's args (§6.4 placeholder grammar), runs it as a shell
command, and reports the resulting status back to the coordinator. Each
task's stdout/stderr is teed into run.log under its own run directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if loopCmdTemplate == "" {
			return fmt.Errorf("--cmd is required")
		}

		if loopEtaMax != "" {
			if _, err := duration.Parse(loopEtaMax); err != nil {
				return fmt.Errorf("invalid --eta-max: %w", err)
			}
		}

		cfg := loadClientConfig()
		sdk := newSDK(cfg)

		heartbeatInterval := loopHeartbeat
		if heartbeatInterval <= 0 {
			heartbeatInterval = cfg.HeartbeatInterval
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-quit
			cancel()
		}()

		return runLoop(ctx, sdk, loopCmdTemplate, loopConfig{
			extraFilter:       loopExtraFilter,
			workerName:        loopWorkerName,
			heartbeatInterval: heartbeatInterval,
			etaMax:            loopEtaMax,
			logRoot:           config.LogRoot(resolveRoot()),
		}, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

// loopConfig bundles the loop subcommand's flags, so runLoop stays
// testable without depending on the package-level flag variables.
type loopConfig struct {
	extraFilter       string
	workerName        string
	heartbeatInterval time.Duration
	etaMax            string
	logRoot           string
}

func runLoop(ctx context.Context, sdk *client.Client, cmdTemplate string, cfg loopConfig, stdout, stderr io.Writer) error {
	paths, err := interpolate.CollectPaths(cmdTemplate)
	if err != nil {
		return fmt.Errorf("invalid --cmd template: %w", err)
	}

	opts := internalclient.LoopOptions{
		RequiredFields:    interpolate.RequiredFieldsTemplate(paths),
		ExtraFilter:       cfg.extraFilter,
		HeartbeatInterval: cfg.heartbeatInterval,
		LogRoot:           cfg.logRoot,
		CreateWorker:      client.CreateWorkerRequest{WorkerName: cfg.workerName},
	}
	if cfg.etaMax != "" {
		opts.EtaMax = &cfg.etaMax
	}

	fn := func(ctx context.Context, taskArgs model.Value) {
		runCommandForTask(ctx, cmdTemplate, taskArgs, stdout, stderr)
	}

	if err := internalclient.Loop(ctx, sdk, fn, []internalclient.Param{internalclient.Require("", nil)}, opts); err != nil {
		return fmt.Errorf("loop exited with an error: %w", err)
	}
	return nil
}

// runCommandForTask interpolates cmdTemplate against a task's args and
// runs it as a shell command, teeing output into the task's run.log.
// Any failure panics so Loop's runUserFunc records it as the task's
// failure summary instead of silently swallowing it.
func runCommandForTask(ctx context.Context, cmdTemplate string, taskArgs model.Value, stdout, stderr io.Writer) {
	info := internalclient.TaskInfoFromContext(ctx)

	result, err := interpolate.Interpolate(cmdTemplate, taskArgs)
	if err != nil {
		panic(err)
	}

	logPath := filepath.Join(info.LogDir, "run.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		panic(err)
	}
	defer logFile.Close()

	c := exec.CommandContext(ctx, "sh", "-c", result.Text)
	c.Stdout = io.MultiWriter(stdout, logFile)
	c.Stderr = io.MultiWriter(stderr, logFile)

	if err := c.Run(); err != nil {
		panic(fmt.Errorf("command failed: %w", err))
	}
}

func init() {
	loopCmd.Flags().StringVar(&loopCmdTemplate, "cmd", "", "shell command template with {{ dotted.path }} placeholders")
	loopCmd.Flags().StringVar(&loopExtraFilter, "extra-filter", "", "server-side filter expression")
	loopCmd.Flags().StringVar(&loopWorkerName, "worker-name", "", "name for the worker created for this loop")
	loopCmd.Flags().DurationVar(&loopHeartbeat, "heartbeat-interval", 0, "heartbeat tick interval (defaults to the client config's)")
	loopCmd.Flags().StringVar(&loopEtaMax, "eta-max", "", "max duration a claimed task may run before it is swept (e.g. \"1h30m\", \"30m\")")

	rootCmd.AddCommand(loopCmd)
}

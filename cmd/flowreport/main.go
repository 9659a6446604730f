// Command flowreport loads a network-flow CSV file, enriches it, and writes
// per-client traffic reports as charts and CSV/XLSX exports. With -serve the
// output is browsable over HTTP once the run completes.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flowcli/internal/config"
	apperrors "flowcli/internal/errors"
	"flowcli/internal/infrastructure"
	"flowcli/internal/pipeline"
	transporthttp "flowcli/internal/transport/http"
	"flowcli/pkg/contracts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	input      string
	output     string
	configFile string
	serve      string
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("flowreport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.input, "in", "", "input flow CSV file (overrides input.path)")
	fs.StringVar(&opts.output, "out", "", "output directory for charts and exports (overrides output.dir)")
	fs.StringVar(&opts.configFile, "config", "", "YAML configuration file")
	fs.StringVar(&opts.serve, "serve", "", "after the run, serve the output on this address (e.g. :8090)")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// run executes the command and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return 0
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		fmt.Fprintf(stderr, "flowreport: %v\n", err)
		return 1
	}
	if opts.input != "" {
		cfg.Input.Path = opts.input
	}
	if opts.output != "" {
		cfg.Output.Dir = opts.output
	}
	if opts.serve != "" {
		cfg.Server.Addr = opts.serve
	}

	logger, closeLog, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "flowreport: %v\n", err)
		return 1
	}
	defer closeLog()
	slog.SetDefault(logger)

	paths, err := config.NewPaths(cfg.Output.Dir, cfg.Output.MetricsFile)
	if err != nil {
		logger.ErrorContext(ctx, "invalid output directory", slog.String("error", err.Error()))
		return 1
	}

	tel, err := infrastructure.InitializeTelemetry(cfg.Telemetry, logger, stderr)
	if err != nil {
		logger.ErrorContext(ctx, "failed to initialize telemetry", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.WarnContext(shutdownCtx, "telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	ctx = infrastructure.ContextWithTraceID(ctx)
	logger.InfoContext(ctx, "starting flowreport",
		slog.String("version", contracts.Version),
		slog.String("input", cfg.Input.Path),
		slog.String("output_dir", paths.OutputDir))

	if _, err := pipeline.New(cfg, paths, tel, logger).Run(ctx); err != nil {
		if apperrors.IsNotFound(err) {
			fmt.Fprintf(stdout, "File %s could not be found\n", cfg.Input.Path)
			return 1
		}
		logger.ErrorContext(ctx, "run failed",
			slog.String("error", err.Error()),
			slog.String("error_type", string(apperrors.TypeOf(err))))
		return 1
	}

	if opts.serve == "" {
		return 0
	}

	fmt.Fprintf(stdout, "Serving reports on %s\n", cfg.Server.Addr)
	server := transporthttp.NewServer(cfg.Server, paths, tel, logger)
	if err := server.Run(ctx); err != nil {
		logger.ErrorContext(ctx, "server failed", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

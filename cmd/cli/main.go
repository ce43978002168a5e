package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/tensorgrid/internal/app"
	"github.com/vk/tensorgrid/internal/cli"
)

// main is the entrypoint for the tensorgrid binary.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW io.Writer, args []string) (err error) {
	opts, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical config errors; recover here so the user
	// gets a clean exit message instead of a stack trace.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked | %v", r)
		}
	}()

	appConfig, err := app.NewConfig(app.Config{
		ModelPath:     opts.ModelPath,
		CheckpointDir: opts.CheckpointDir,
		Iterations:    opts.Iterations,
		Fetch:         opts.Fetch,
		LogFormat:     opts.LogFormat,
		LogLevel:      opts.LogLevel,
	})
	if err != nil {
		return err
	}

	gridApp := app.NewApp(outW, appConfig)
	return gridApp.Run(context.Background(), appConfig)
}

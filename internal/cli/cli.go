// Package cli parses command-line arguments into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Options is the parsed command line, mirroring app.Config fields.
type Options struct {
	ModelPath     string
	CheckpointDir string
	Iterations    int
	Fetch         []string
	LogFormat     string
	LogLevel      string
}

// Parse processes command-line arguments. It returns populated Options,
// a boolean indicating if the program should exit cleanly, or an error.
func Parse(args []string, output io.Writer) (*Options, bool, error) {
	flagSet := flag.NewFlagSet("tensorgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
TensorGrid - a scope-buffered computation graph runtime.

Usage:
  tensorgrid [options] [MODEL_PATH]

Arguments:
  MODEL_PATH
    Path to an .hcl file describing variables, ops, and the execution strategy.

Options:
`)
		flagSet.PrintDefaults()
	}

	modelFlag := flagSet.String("model", "", "Path to the model file.")
	checkpointFlag := flagSet.String("checkpoint-dir", "", "Directory for loading/saving persistent variables. Empty disables checkpointing.")
	iterationsFlag := flagSet.Int("iterations", 1, "Number of graph iterations to run.")
	fetchFlag := flagSet.String("fetch", "", "Comma-separated variable names to fetch each iteration.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	helpFlag := flagSet.Bool("help", false, "Show this help message.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if *helpFlag {
		flagSet.Usage()
		return nil, true, nil
	}

	modelPath := *modelFlag
	if modelPath == "" && flagSet.NArg() > 0 {
		modelPath = flagSet.Arg(0)
	}
	if modelPath == "" {
		flagSet.Usage()
		return nil, false, &ExitError{Code: 2, Message: "a model path is required"}
	}

	var fetch []string
	if *fetchFlag != "" {
		for _, name := range strings.Split(*fetchFlag, ",") {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				fetch = append(fetch, trimmed)
			}
		}
	}

	return &Options{
		ModelPath:     modelPath,
		CheckpointDir: *checkpointFlag,
		Iterations:    *iterationsFlag,
		Fetch:         fetch,
		LogFormat:     *logFormatFlag,
		LogLevel:      *logLevelFlag,
	}, false, nil
}

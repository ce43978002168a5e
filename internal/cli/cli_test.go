package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	t.Parallel()

	args := []string{
		"-model", "model.hcl",
		"-checkpoint-dir", "/tmp/ck",
		"-iterations", "5",
		"-fetch", "loss, accuracy,",
		"-log-format", "text",
		"-log-level", "debug",
	}

	opts, shouldExit, err := Parse(args, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, shouldExit)
	require.Equal(t, "model.hcl", opts.ModelPath)
	require.Equal(t, "/tmp/ck", opts.CheckpointDir)
	require.Equal(t, 5, opts.Iterations)
	require.Equal(t, []string{"loss", "accuracy"}, opts.Fetch)
	require.Equal(t, "text", opts.LogFormat)
	require.Equal(t, "debug", opts.LogLevel)
}

func TestParsePositionalModelPath(t *testing.T) {
	t.Parallel()

	opts, shouldExit, err := Parse([]string{"model.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, shouldExit)
	require.Equal(t, "model.hcl", opts.ModelPath)
}

func TestParseModelFlagWinsOverPositional(t *testing.T) {
	t.Parallel()

	opts, _, err := Parse([]string{"-model", "a.hcl", "b.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, "a.hcl", opts.ModelPath)
}

func TestParseMissingModelPath(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	_, _, err := Parse(nil, out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, out.String(), "Usage:")
}

func TestParseHelp(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	_, shouldExit, err := Parse([]string{"-help"}, out)
	require.NoError(t, err)
	require.True(t, shouldExit)
	require.Contains(t, out.String(), "scope-buffered computation graph runtime")
}

func TestParseDefaults(t *testing.T) {
	t.Parallel()

	opts, _, err := Parse([]string{"model.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, 1, opts.Iterations)
	require.Empty(t, opts.Fetch)
	require.Equal(t, "json", opts.LogFormat)
	require.Equal(t, "info", opts.LogLevel)
}

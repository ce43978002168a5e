package system

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/tensorgrid/internal/app"
	"github.com/vk/tensorgrid/internal/testutil"
)

const trivialModel = `
	variable "out" {
		kind = "tensor"
	}

	op "fill_constant" "seed" {
		outputs = ["out"]
		attrs {
			shape = [1]
			value = 1
		}
	}
`

// TestCliBehavior_JsonLogFormat validates that the configured log format
// reaches the app's logger.
func TestCliBehavior_JsonLogFormat(t *testing.T) {
	t.Parallel()

	// --- Act ---
	result := testutil.RunAppTest(t, trivialModel, func(cfg *app.Config) {
		cfg.LogFormat = "json"
	})

	// --- Assert ---
	require.NoError(t, result.Err)
	for _, line := range strings.Split(strings.TrimSpace(result.LogOutput), "\n") {
		require.True(t, strings.HasPrefix(line, "{"), "expected JSON log line, got: %s", line)
	}
}

// TestCliBehavior_LogLevelFiltersDebug validates that info-level runs do
// not emit the executor's debug accounting.
func TestCliBehavior_LogLevelFiltersDebug(t *testing.T) {
	t.Parallel()

	// --- Act ---
	result := testutil.RunAppTest(t, trivialModel, func(cfg *app.Config) {
		cfg.LogLevel = "info"
	})

	// --- Assert ---
	require.NoError(t, result.Err)
	require.Contains(t, result.LogOutput, "🚀 Starting execution.")
	require.NotContains(t, result.LogOutput, "Execution scope memory.")
}

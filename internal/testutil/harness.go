// Package testutil provides shared helpers for system-level tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/tensorgrid/internal/app"
	"github.com/vk/tensorgrid/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of a system test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	Config    *app.Config
}

// RunAppTest writes modelHCL to a temp dir, builds an App around it with
// debug logging into a captured buffer, and drives Run. Startup panics
// are recovered into the result's Err. mutate, when non-nil, can adjust
// the app config before the app is constructed.
func RunAppTest(t *testing.T, modelHCL string, mutate func(*app.Config), modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	modelPath := filepath.Join(tmpDir, "model.hcl")
	require.NoError(t, os.WriteFile(modelPath, []byte(modelHCL), 0o644))

	appConfig, err := app.NewConfig(app.Config{
		ModelPath:  modelPath,
		Iterations: 1,
		LogLevel:   "debug",
		LogFormat:  "text",
	})
	require.NoError(t, err)
	if mutate != nil {
		mutate(appConfig)
	}

	logBuffer := &SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, appConfig, modules...)
	}()

	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
			Config:    appConfig,
		}
	}

	runErr := testApp.Run(context.Background(), appConfig)

	if os.Getenv("TENSORGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
		Config:    appConfig,
	}
}

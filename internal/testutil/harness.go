// Package testutil provides the shared integration-test harness: it lays
// config files out in a temporary directory, builds a real App around them
// and captures everything the run logs and produces.
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

	"github.com/vk/tickrig/internal/app"
	"github.com/vk/tickrig/internal/registry"
	"github.com/vk/tickrig/internal/runs"
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

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	Metrics   *runs.Metrics
	App       *app.App
	RunsRoot  string
}

// RunIntegrationTest provides a standardized harness for running integration
// tests using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, modules...)
}

// RunIntegrationTestWithContext lays the given files out under a temporary
// root, plans and executes the graph they describe, and captures the result.
// File names are relative paths; "graph/..." entries become the graph
// document and "modules/..." entries become the catalog, so one map defines
// a complete scenario. With no modules given, the built-in block modules
// are registered.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	graphDir := filepath.Join(tmpDir, "graph")
	modulesDir := filepath.Join(tmpDir, "modules")
	runsRoot := filepath.Join(tmpDir, "runs")
	require.NoError(t, os.Mkdir(graphDir, 0755))
	require.NoError(t, os.Mkdir(modulesDir, 0755))

	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	cfg := &app.Config{
		GraphPath:     graphDir,
		BlocksPath:    modulesDir,
		RunsDir:       runsRoot,
		LogLevel:      "debug",
		LogFormat:     "text",
		DisablePacing: true,
	}

	logBuffer := &SafeBuffer{}
	result := &HarnessResult{RunsRoot: runsRoot}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				if os.Getenv("TICKRIG_TEST_LOGS") == "true" {
					t.Logf("--- HARNESS RECOVERED PANIC ---\n%q", fmt.Sprintf("%v", r))
				}
				panicErr = r
			}
		}()
		testApp = app.New(logBuffer, cfg, modules...)
	}()

	if panicErr != nil {
		result.LogOutput = logBuffer.String()
		result.Err = fmt.Errorf("application startup panicked | %v", panicErr)
		return result
	}

	metrics, runErr := testApp.Run(ctx)

	result.LogOutput = logBuffer.String()
	result.Err = runErr
	result.Metrics = metrics
	result.App = testApp

	if os.Getenv("TICKRIG_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), result.LogOutput)
	}
	return result
}

// LatestRunDir returns the run directory the harness run produced.
func LatestRunDir(t *testing.T, result *HarnessResult) runs.Dir {
	t.Helper()
	allocator, err := runs.NewAllocator(result.RunsRoot)
	require.NoError(t, err)
	dir, err := allocator.Latest()
	require.NoError(t, err)
	return dir
}

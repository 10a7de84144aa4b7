package integration_tests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/tickrig/internal/runs"
	"github.com/vk/tickrig/internal/testutil"
)

// TestCoreExecution_PlanArtifacts_ArePersisted checks that planning leaves
// the full artifact set in the run directory and that the resolved blocks
// carry merged parameters.
func TestCoreExecution_PlanArtifacts_ArePersisted(t *testing.T) {
	t.Parallel()

	graphHCL := `
		version = "graph.v1"

		block "pointmass" "sim" {
			params {
				dx_scale  = 2.0
				initial_x = 0.25
			}
		}

		run {
			duration_sec = 1
			hz           = 5
		}
	`
	files := map[string]string{
		"modules/pointmass/manifest.hcl": pointmassManifest,
		"graph/main.hcl":                 graphHCL,
	}

	result := testutil.RunIntegrationTest(t, files)
	require.NoError(t, result.Err)

	dir := testutil.LatestRunDir(t, result)
	for _, name := range []string{
		runs.GraphFile, runs.ResolvedBlocksFile, runs.PlanFile, runs.RunConfigFile, runs.MetricsFile,
	} {
		assert.FileExists(t, filepath.Join(dir.Path, name))
	}

	blocks, err := dir.ReadResolvedBlocks()
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "sim", blocks[0].ID)
	assert.Equal(t, "NewPointMass", blocks[0].Factory)
	assert.Equal(t, 2.0, blocks[0].Params["dx_scale"], "instance override wins")
	assert.Equal(t, 0.25, blocks[0].Params["initial_x"])

	rc, err := dir.ReadRunConfig()
	require.NoError(t, err)
	_, err = uuid.Parse(rc.RunID)
	assert.NoError(t, err, "run id must be a UUID")
	assert.Equal(t, 1, rc.DurationSec)
	assert.Equal(t, 5, rc.Hz)
}

// TestCoreExecution_RunDirs_AreSequential plans twice and expects adjacent
// run directory numbers.
func TestCoreExecution_RunDirs_AreSequential(t *testing.T) {
	t.Parallel()

	graphHCL := `
		version = "graph.v1"

		block "pointmass" "sim" {}

		run {
			duration_sec = 1
			hz           = 2
		}
	`
	files := map[string]string{
		"modules/pointmass/manifest.hcl": pointmassManifest,
		"graph/main.hcl":                 graphHCL,
	}

	first := testutil.RunIntegrationTest(t, files)
	require.NoError(t, first.Err)

	// Re-run against the same workspace layout; a fresh harness gets a fresh
	// temp dir, so reuse the first harness's app for the second run instead.
	second, err := first.App.Run(t.Context())
	require.NoError(t, err)
	assert.NotEqual(t, first.Metrics.RunID, second.RunID)

	entries, err := os.ReadDir(first.RunsRoot)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"run_0001", "run_0002"}, names)
}

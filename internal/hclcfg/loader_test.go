package hclcfg

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoadTranslatesBlockType(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "manifest.hcl", `
		blocktype "probe" {
			description = "Polls an endpoint."
			category    = "sensor"

			output "status" {
				type = "http_status"
			}

			param "url" {}

			param "every_n" {
				default = 20
			}

			param "verify" {
				default = true
			}

			param "headers" {
				default = { accept = "application/json" }
			}

			runtime {
				factory = "NewProbe"
			}
		}
	`)

	model, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.Contains(t, model.Definitions, "probe")

	def := model.Definitions["probe"]
	assert.Equal(t, "sensor", def.Category)
	assert.Equal(t, "NewProbe", def.Factory)
	require.NotNil(t, def.Output("status"))
	assert.Equal(t, "http_status", def.Output("status").Type)

	require.Len(t, def.Params, 4)
	assert.Nil(t, def.Params[0].Default, "a param without a default stays nil")
	assert.Equal(t, float64(20), def.Params[1].Default, "numbers decode as float64")
	assert.Equal(t, true, def.Params[2].Default)
	assert.Equal(t, map[string]any{"accept": "application/json"}, def.Params[3].Default)

	assert.Nil(t, model.Graph, "manifest-only trees produce no graph")
}

func TestLoadDecodesGraphDocument(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.hcl", `
		version         = "graph.v1"
		execution_order = ["sim", "ctrl"]

		block "pointmass" "sim" {
			params {
				initial_x = 0.25
			}
		}

		block "cartctl" "ctrl" {}

		connection {
			from = "sim.state"
			to   = "ctrl.state"
		}

		run {
			duration_sec = 5
			hz           = 20
			viewer       = true

			overrides {
				ctrl = { step = 0.02 }
			}
		}
	`)

	model, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.NotNil(t, model.Graph)

	g := model.Graph
	assert.Equal(t, "graph.v1", g.Version)
	assert.Equal(t, []string{"sim", "ctrl"}, g.ExecutionOrder)

	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "sim", g.Nodes[0].ID)
	assert.Equal(t, "pointmass", g.Nodes[0].Type)
	assert.Equal(t, map[string]any{"initial_x": 0.25}, g.Nodes[0].Params)
	assert.Empty(t, g.Nodes[1].Params)

	require.Len(t, g.Connections, 1)
	assert.Equal(t, "sim.state", g.Connections[0].From)
	assert.Equal(t, "ctrl.state", g.Connections[0].To)

	assert.Equal(t, 5, g.Run.DurationSec)
	assert.Equal(t, 20, g.Run.Hz)
	assert.True(t, g.Run.Viewer)
	assert.Equal(t, map[string]any{"ctrl": map[string]any{"step": 0.02}}, g.Run.Overrides)
}

func TestLoadMergesGraphAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "01_blocks.hcl", `
		version = "graph.v1"

		block "pointmass" "sim" {}
	`)
	writeFile(t, dir, "02_wiring.hcl", `
		block "cartctl" "ctrl" {}

		connection {
			from = "sim.state"
			to   = "ctrl.state"
		}
	`)

	model, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.NotNil(t, model.Graph)

	assert.Equal(t, "graph.v1", model.Graph.Version)
	require.Len(t, model.Graph.Nodes, 2)
	assert.Equal(t, "sim", model.Graph.Nodes[0].ID)
	assert.Equal(t, "ctrl", model.Graph.Nodes[1].ID)
	assert.Len(t, model.Graph.Connections, 1)
}

func TestLoadRejectsMalformedHCL(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.hcl", `
		block "pointmass" "sim" {
			params {
	`)

	_, err := NewLoader().Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoadAcceptsManifestAndGraphTogether(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "all.hcl", `
		version = "graph.v1"

		blocktype "pointmass" {
			output "state" {
				type = "robot_state"
			}
			runtime {
				factory = "NewPointMass"
			}
		}

		block "pointmass" "sim" {}
	`)

	model, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Contains(t, model.Definitions, "pointmass")
	require.NotNil(t, model.Graph)
	assert.Len(t, model.Graph.Nodes, 1)
}

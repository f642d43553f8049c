package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/encodeous/dvhop/mock"
	"github.com/encodeous/dvhop/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tableYaml = `
hop_distance: 10
beacons:
  - id: a
    hops: 2
    position: {x: 0, y: 0}
  - id: b
    hops: 1
    position: {x: 30, y: 0}
  - id: c
    hops: 5
    position: {x: 60, y: -30}
`

func TestEstimateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, []byte(tableYaml), 0600))

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"estimate", "-t", path, "--hop-distance", "0"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "3 entries\n")
	assert.Contains(t, out.String(), "Estimated position (20,")
	assert.Contains(t, out.String(), "using 10.000 m/hop")
}

func TestEstimateCommand_Withheld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
beacons:
  - id: a
    hops: 2
    position: {x: 0, y: 0}
  - id: b
    hops: 1
    position: {x: 30, y: 0}
`), 0600))

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"estimate", "-t", path, "--hop-distance", "10"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "2 entries\n")
	assert.Contains(t, out.String(), "Estimate withheld: fewer than three beacons available")
}

func TestVerifyCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
nodes:
  - id: a
    beacon: {x: 0, y: 0}
  - id: b
graph:
  - a, b
`), 0600))

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"verify", "-c", path})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "Config is valid: 2 nodes, 1 beacons, 1 links\n", out.String())
}

func TestLocalize(t *testing.T) {
	state.AdvertiseDelay = 50 * time.Millisecond
	state.EstimateDelay = 20 * time.Millisecond
	localizeTimeout = 10 * time.Second
	localizeSettle = 200 * time.Millisecond

	cfg := mock.MockCfg()
	out := &bytes.Buffer{}
	require.NoError(t, localize(context.Background(), out, &cfg))

	s := out.String()
	assert.Contains(t, s, "Node bob (beacon at (0,0)")
	assert.Contains(t, s, "Node jeb\n")
	assert.Contains(t, s, "estimate")
	assert.Contains(t, s, "mean")
}

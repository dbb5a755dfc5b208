// Copyright (c) 2024, The FieldSense Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package simulation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	. "github.com/fieldsense/wsn-sim/types"
)

var testYamlFile = `
network:
    field-size: [200, 100]
    comm-range: 150
    max-cycles: 8
    seed: 7
    pos-shift: [10, 0]
nodes:
    - id: 0
      type: moisture
      pos: [20, 30]
    - id: 3
      type: Temperature
      pos: [60, 50]
      comm-range: 40
    - id: 7
      type: ph
      pos: [150, 80]
      battery: 55.5
`

func TestYamlConfigUnmarshal(t *testing.T) {
	cfgFile := YamlConfigFile{}
	err := yaml.Unmarshal([]byte(testYamlFile), &cfgFile)
	assert.Nil(t, err)
	assert.Equal(t, [2]float64{10, 0}, cfgFile.NetworkConfig.PosShift)
	assert.Equal(t, 3, len(cfgFile.NodesList))
	assert.Equal(t, 40.0, *cfgFile.NodesList[1].CommRange)
	assert.Nil(t, cfgFile.NodesList[0].Battery)
}

func TestApplyConfigYaml(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, ApplyConfigYaml([]byte(testYamlFile), cfg))

	assert.Equal(t, 200.0, cfg.FieldWidth)
	assert.Equal(t, Position{X: 100, Y: 50}, cfg.BaseStationPos)
	assert.Equal(t, 150.0, cfg.CommRange)
	assert.Equal(t, 8, cfg.MaxCycles)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 3, cfg.NodeCount)

	ncs := cfg.NodeConfigs()
	require.Len(t, ncs, 3)
	assert.Equal(t, Position{X: 30, Y: 30}, ncs[0].Pos)
	assert.Equal(t, 150.0, ncs[0].CommRange)
	assert.Equal(t, Temperature, ncs[1].DataType)
	assert.Equal(t, 40.0, ncs[1].CommRange)
	assert.Equal(t, 7, ncs[2].ID)
	assert.Equal(t, 55.5, ncs[2].Battery)
	assert.Equal(t, DefaultBattery, ncs[0].Battery)
	assert.False(t, ncs[2].IsAutoPlaced)
}

func TestApplyConfigYamlErrors(t *testing.T) {
	assert.Error(t, ApplyConfigYaml([]byte("nodes: [1, 2"), DefaultConfig()))
	assert.Error(t, ApplyConfigYaml([]byte("nodes:\n  - id: 1\n    type: rssi\n"), DefaultConfig()))
	assert.Error(t, ApplyConfigYaml([]byte("nodes:\n  - id: 1\n    type: ph\n  - id: 1\n    type: light\n"),
		DefaultConfig()))

	cfg := DefaultConfig()
	require.NoError(t, ApplyConfigYaml([]byte("network:\n  max-cycles: 3\n"), cfg))
	assert.Equal(t, 3, cfg.MaxCycles)
	assert.Empty(t, cfg.Nodes)
	assert.Len(t, cfg.NodeConfigs(), DefaultNodeCount)
}

func TestSaveAndLoadConfigFile(t *testing.T) {
	cfg := testConfig(t)
	sim, _ := newTestSimulation(t, cfg, steadySources(5))
	sim.AdvanceOneCycle()

	path := filepath.Join(t.TempDir(), "network.yaml")
	require.NoError(t, sim.SaveConfigFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "type: light")

	loaded := DefaultConfig()
	require.NoError(t, LoadConfigFile(path, loaded))
	require.Len(t, loaded.Nodes, 5)
	for i, nc := range loaded.NodeConfigs() {
		node := sim.Node(i)
		assert.Equal(t, node.DataType(), nc.DataType)
		assert.InDelta(t, node.Position().X, nc.Pos.X, 1e-9)
		assert.InDelta(t, node.Battery(), nc.Battery, 1e-9)
	}

	assert.Error(t, LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"), DefaultConfig()))
}

func TestExportNodesOmitsNetworkCommRange(t *testing.T) {
	cfg := testConfig(t)
	sim, _ := newTestSimulation(t, cfg, steadySources(5))
	nw := sim.ExportNetwork()
	nodes := sim.ExportNodes(&nw)
	require.Len(t, nodes, 5)
	assert.Nil(t, nodes[0].CommRange)
	assert.Nil(t, nw.Seed)
}

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

package visualize_statslog

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsense/wsn-sim/energy"
	. "github.com/fieldsense/wsn-sim/types"
)

func readLines(t *testing.T, name string) []string {
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestStatslogVisualizer(t *testing.T) {
	dir := t.TempDir()
	vis := NewStatslogVisualizer(dir, 3)
	vis.Init()

	vis.AddNode(NodeSnapshot{Id: 0, Battery: 100, Active: true})
	vis.AddNode(NodeSnapshot{Id: 1, Battery: 100, Active: true})

	vis.AdvanceCycle(1, 5)
	vis.OnTransmission(NodeSnapshot{Id: 0, Battery: 99.93, Active: true}, Reading{NodeId: 0})
	vis.UpdateNodesEnergy([]energy.NodeBattery{
		{NodeId: 0, Battery: 99.93, Active: true},
		{NodeId: 1, Battery: 0, Active: false},
	}, 1)

	vis.AdvanceCycle(2, 5)
	vis.Stop()

	lines := readLines(t, getStatsLogFileName(dir, 3))
	require.Len(t, lines, 3)
	assert.Equal(t, "cycle,nNodes,nActive,nDepleted,nTransmissions,avgBattery,minBattery", lines[0])
	assert.Equal(t, "    1,   2,  1,  1,  1,  49.965,   0.000", lines[1])
	assert.Equal(t, "    2,   2,  1,  1,  0,  49.965,   0.000", lines[2])
}

func TestStatslogVisualizerNoFinalDuplicate(t *testing.T) {
	dir := t.TempDir()
	vis := NewStatslogVisualizer(dir, 1)
	vis.Init()
	vis.AddNode(NodeSnapshot{Id: 0, Battery: 100, Active: true})
	vis.AdvanceCycle(1, 1)
	vis.UpdateNodesEnergy([]energy.NodeBattery{{NodeId: 0, Battery: 99.93, Active: true}}, 1)
	vis.Stop()

	lines := readLines(t, getStatsLogFileName(dir, 1))
	assert.Len(t, lines, 2)
}

func TestStatslogVisualizerUnwritableDir(t *testing.T) {
	vis := NewStatslogVisualizer("/nonexistent/dir/for/stats", 1)
	vis.Init()
	vis.AdvanceCycle(1, 1)
	vis.UpdateNodesEnergy(nil, 1)
	vis.Stop()
}

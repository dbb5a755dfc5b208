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

package visualize_multi

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fieldsense/wsn-sim/energy"
	. "github.com/fieldsense/wsn-sim/types"
	"github.com/fieldsense/wsn-sim/visualize"
)

type countingVisualizer struct {
	visualize.Visualizer
	calls map[string]int
}

func newCountingVisualizer() *countingVisualizer {
	return &countingVisualizer{
		Visualizer: visualize.NewNopVisualizer(),
		calls:      map[string]int{},
	}
}

func (cv *countingVisualizer) AddNode(NodeSnapshot) {
	cv.calls["AddNode"]++
}

func (cv *countingVisualizer) OnTransmission(NodeSnapshot, Reading) {
	cv.calls["OnTransmission"]++
}

func (cv *countingVisualizer) SetStatus(string) {
	cv.calls["SetStatus"]++
}

func (cv *countingVisualizer) OnNodeDepleted(NodeId) {
	cv.calls["OnNodeDepleted"]++
}

func (cv *countingVisualizer) AdvanceCycle(int, int) {
	cv.calls["AdvanceCycle"]++
}

func (cv *countingVisualizer) UpdateNodesEnergy([]energy.NodeBattery, int) {
	cv.calls["UpdateNodesEnergy"]++
}

func (cv *countingVisualizer) OnCompleted(string) {
	cv.calls["OnCompleted"]++
}

func (cv *countingVisualizer) SetController(visualize.SimulationController) {
	cv.calls["SetController"]++
}

func TestMultiVisualizerFanOut(t *testing.T) {
	a, b := newCountingVisualizer(), newCountingVisualizer()
	mv := NewMultiVisualizer(a)
	mv.AddVisualizer(b)
	assert.Equal(t, 2, mv.Len())

	mv.Init()
	mv.AddNode(NodeSnapshot{Id: 1})
	mv.AdvanceCycle(1, 5)
	mv.OnTransmission(NodeSnapshot{Id: 1}, Reading{NodeId: 1})
	mv.SetStatus("Cycle 1/5")
	mv.OnNodeDepleted(1)
	mv.UpdateNodesEnergy(nil, 1)
	mv.OnCompleted("done")
	mv.SetController(nil)
	mv.Stop()

	for _, cv := range []*countingVisualizer{a, b} {
		for _, name := range []string{"AddNode", "AdvanceCycle", "OnTransmission", "SetStatus", "OnNodeDepleted",
			"UpdateNodesEnergy", "OnCompleted", "SetController"} {
			assert.Equal(t, 1, cv.calls[name], name)
		}
	}
}

func TestMultiVisualizerEmptyRun(t *testing.T) {
	mv := NewMultiVisualizer()
	mv.Run()
	mv.Stop()
}

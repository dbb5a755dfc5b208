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
	"github.com/fieldsense/wsn-sim/energy"
	. "github.com/fieldsense/wsn-sim/types"
	"github.com/fieldsense/wsn-sim/visualize"
)

type MultiVisualizer struct {
	vs []visualize.Visualizer
}

// NewMultiVisualizer creates a new Visualizer that multiplexes to multiple Visualizers.
func NewMultiVisualizer(vs ...visualize.Visualizer) *MultiVisualizer {
	return &MultiVisualizer{vs: vs}
}

func (mv *MultiVisualizer) AddVisualizer(vs ...visualize.Visualizer) {
	mv.vs = append(mv.vs, vs...)
}

func (mv *MultiVisualizer) Len() int {
	return len(mv.vs)
}

func (mv *MultiVisualizer) Init() {
	for _, v := range mv.vs {
		v.Init()
	}
}

// Run runs the first visualizer in the current goroutine and the others in their own.
func (mv *MultiVisualizer) Run() {
	if len(mv.vs) == 0 {
		return
	}
	for i := 1; i < len(mv.vs); i++ {
		go mv.vs[i].Run()
	}
	mv.vs[0].Run()
}

func (mv *MultiVisualizer) Stop() {
	for _, v := range mv.vs {
		v.Stop()
	}
}

func (mv *MultiVisualizer) AddNode(node NodeSnapshot) {
	for _, v := range mv.vs {
		v.AddNode(node)
	}
}

func (mv *MultiVisualizer) OnTransmission(node NodeSnapshot, reading Reading) {
	for _, v := range mv.vs {
		v.OnTransmission(node, reading)
	}
}

func (mv *MultiVisualizer) SetStatus(text string) {
	for _, v := range mv.vs {
		v.SetStatus(text)
	}
}

func (mv *MultiVisualizer) OnNodeDepleted(nodeid NodeId) {
	for _, v := range mv.vs {
		v.OnNodeDepleted(nodeid)
	}
}

func (mv *MultiVisualizer) AdvanceCycle(cycle int, maxCycles int) {
	for _, v := range mv.vs {
		v.AdvanceCycle(cycle, maxCycles)
	}
}

func (mv *MultiVisualizer) UpdateNodesEnergy(batteries []energy.NodeBattery, cycle int) {
	for _, v := range mv.vs {
		v.UpdateNodesEnergy(batteries, cycle)
	}
}

func (mv *MultiVisualizer) OnCompleted(summary string) {
	for _, v := range mv.vs {
		v.OnCompleted(summary)
	}
}

func (mv *MultiVisualizer) SetController(ctrl visualize.SimulationController) {
	for _, v := range mv.vs {
		v.SetController(ctrl)
	}
}

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

package visualize

import (
	"github.com/fieldsense/wsn-sim/energy"
	. "github.com/fieldsense/wsn-sim/types"
)

type nopVisualizer struct{}

// NewNopVisualizer creates a new Visualizer that does nothing.
func NewNopVisualizer() Visualizer {
	return nopVisualizer{}
}

func (nv nopVisualizer) Init() {
}

func (nv nopVisualizer) Run() {
}

func (nv nopVisualizer) Stop() {
}

func (nv nopVisualizer) AddNode(node NodeSnapshot) {
}

func (nv nopVisualizer) OnTransmission(node NodeSnapshot, reading Reading) {
}

func (nv nopVisualizer) SetStatus(text string) {
}

func (nv nopVisualizer) OnNodeDepleted(nodeid NodeId) {
}

func (nv nopVisualizer) AdvanceCycle(cycle int, maxCycles int) {
}

func (nv nopVisualizer) UpdateNodesEnergy(batteries []energy.NodeBattery, cycle int) {
}

func (nv nopVisualizer) OnCompleted(summary string) {
}

func (nv nopVisualizer) SetController(ctrl SimulationController) {
}

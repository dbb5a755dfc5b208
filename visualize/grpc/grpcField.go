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

package visualize_grpc

import (
	"github.com/fieldsense/wsn-sim/logger"
	. "github.com/fieldsense/wsn-sim/types"
	"github.com/fieldsense/wsn-sim/visualize"
)

type grpcNode struct {
	node      NodeSnapshot
	readings  int
	lastValue float64
}

type grpcField struct {
	nodes     map[NodeId]*grpcNode
	cycle     int
	maxCycles int
	status    string
	running   bool
	completed bool
}

func (f *grpcField) addNode(node NodeSnapshot) *grpcNode {
	logger.AssertNil(f.nodes[node.Id])
	gn := &grpcNode{node: node}
	f.nodes[node.Id] = gn
	return gn
}

func (f *grpcField) onTransmission(node NodeSnapshot, reading Reading) {
	gn := f.nodes[node.Id]
	if gn == nil {
		gn = f.addNode(node)
	}
	gn.node = node
	gn.readings++
	gn.lastValue = reading.Value
}

func (f *grpcField) onNodeDepleted(id NodeId) {
	if gn := f.nodes[id]; gn != nil {
		gn.node.Active = false
	}
}

func (f *grpcField) setBattery(id NodeId, battery float64, dutyCycle float64, active bool) {
	if gn := f.nodes[id]; gn != nil {
		gn.node.Battery = battery
		gn.node.DutyCycle = dutyCycle
		gn.node.Active = active
	}
}

// advanceCycle returns true if the cycle changed.
func (f *grpcField) advanceCycle(cycle int, maxCycles int) bool {
	hasChanged := f.cycle != cycle || f.maxCycles != maxCycles
	f.cycle = cycle
	f.maxCycles = maxCycles
	return hasChanged
}

// setStatus records the status text and tracks whether a run is executing cycles.
func (f *grpcField) setStatus(text string) {
	f.status = text
	switch text {
	case visualize.StatusRunning:
		f.running = true
	case visualize.StatusPaused, visualize.StatusIdle:
		f.running = false
	}
}

func (f *grpcField) isRunning() bool {
	return f.running && !f.completed
}

func (f *grpcField) activeNodes() int {
	n := 0
	for _, gn := range f.nodes {
		if gn.node.Active {
			n++
		}
	}
	return n
}

func newGrpcField() *grpcField {
	return &grpcField{
		nodes: map[NodeId]*grpcNode{},
	}
}

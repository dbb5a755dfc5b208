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
	"fmt"

	"github.com/fieldsense/wsn-sim/energy"
	. "github.com/fieldsense/wsn-sim/types"
)

// Visualizer consumes the simulation's progress. Methods are called from the simulation goroutine
// and must not block; none of them may change simulation state.
type Visualizer interface {
	Init()
	Run()
	Stop()

	AddNode(node NodeSnapshot)
	OnTransmission(node NodeSnapshot, reading Reading)
	SetStatus(text string)
	OnNodeDepleted(nodeid NodeId)
	AdvanceCycle(cycle int, maxCycles int)
	UpdateNodesEnergy(batteries []energy.NodeBattery, cycle int)
	OnCompleted(summary string)
	SetController(ctrl SimulationController)
}

// SimulationController lets a visualizer drive the simulation. Calls return immediately; the work is
// done on the simulation goroutine.
type SimulationController interface {
	CtrlRun() error
	CtrlStop() error
	CtrlStep(cycles int) error
}

// TransmissionLabel is the short text shown next to a node after a successful transmission.
func TransmissionLabel(node NodeSnapshot, reading Reading) string {
	return fmt.Sprintf("Node %d: %s %.1f%s (%.0f%%)", node.Id, reading.DataType.Title(), reading.Value,
		reading.DataType.Unit(), node.Battery)
}

// CycleStatus is the status line shown at the start of a cycle.
func CycleStatus(cycle int, maxCycles int) string {
	return fmt.Sprintf("Cycle %d/%d", cycle, maxCycles)
}

// TransmitFailedStatus is the status line for a failed transmission.
func TransmitFailedStatus(nodeid NodeId) string {
	return fmt.Sprintf("Node %d failed to transmit", nodeid)
}

const (
	StatusCompleted = "Simulation Completed"
	StatusDepleted  = "All nodes depleted"
	StatusIdle      = "Simulation Idle"
	StatusPaused    = "Simulation Paused"
	StatusRunning   = "Simulation Running..."
	StatusStopped   = "Simulation Stopped"
)

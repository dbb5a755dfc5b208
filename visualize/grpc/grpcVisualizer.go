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
	"sync"

	"github.com/fieldsense/wsn-sim/energy"
	"github.com/fieldsense/wsn-sim/logger"
	. "github.com/fieldsense/wsn-sim/types"
	"github.com/fieldsense/wsn-sim/visualize"
	"github.com/fieldsense/wsn-sim/visualize/grpc/replay"
)

// grpcVisualizer publishes the run status as a gRPC health service and optionally records every
// event into a replay file.
type grpcVisualizer struct {
	server *grpcServer
	f      *grpcField
	replay *replay.Replay

	sync.Mutex
}

// NewGrpcVisualizer creates a Visualizer serving run status on address. An empty address disables
// the listener; a non-empty replayFn enables the replay file.
func NewGrpcVisualizer(address string, replayFn string) (visualize.Visualizer, error) {
	gv, err := newGrpcVisualizer(address, replayFn)
	if err != nil {
		return nil, err
	}
	return gv, nil
}

func newGrpcVisualizer(address string, replayFn string) (*grpcVisualizer, error) {
	gv := &grpcVisualizer{
		server: newGrpcServer(address),
		f:      newGrpcField(),
	}
	if replayFn != "" {
		rep, err := replay.NewReplay(replayFn)
		if err != nil {
			return nil, err
		}
		gv.replay = rep
	}
	return gv, nil
}

func (gv *grpcVisualizer) Init() {
}

func (gv *grpcVisualizer) Run() {
	err := gv.server.Run()
	if err != nil {
		logger.Warnf("gRPC server quit: %v", err)
	}
}

func (gv *grpcVisualizer) Stop() {
	gv.Lock()
	defer gv.Unlock()

	gv.server.stop()
	if gv.replay != nil {
		gv.replay.Close()
		gv.replay = nil
	}
}

func (gv *grpcVisualizer) SetController(visualize.SimulationController) {
}

func (gv *grpcVisualizer) AddNode(node NodeSnapshot) {
	gv.Lock()
	defer gv.Unlock()

	gv.f.addNode(node)
	gv.addReplayEvent("add_node", map[string]interface{}{
		"node":      node.Id,
		"x":         node.Pos.X,
		"y":         node.Pos.Y,
		"data_type": node.DataType.String(),
		"battery":   node.Battery,
	})
}

func (gv *grpcVisualizer) OnTransmission(node NodeSnapshot, reading Reading) {
	gv.Lock()
	defer gv.Unlock()

	gv.f.onTransmission(node, reading)
	gv.addReplayEvent("transmission", map[string]interface{}{
		"node":       node.Id,
		"data_type":  reading.DataType.String(),
		"value":      reading.Value,
		"unit":       reading.DataType.Unit(),
		"duty_cycle": reading.DutyCycle,
		"battery":    node.Battery,
		"label":      visualize.TransmissionLabel(node, reading),
	})
}

func (gv *grpcVisualizer) SetStatus(text string) {
	gv.Lock()
	defer gv.Unlock()

	gv.f.setStatus(text)
	gv.server.setRunning(gv.f.isRunning())
	gv.addReplayEvent("status", map[string]interface{}{
		"text": text,
	})
}

func (gv *grpcVisualizer) OnNodeDepleted(nodeid NodeId) {
	gv.Lock()
	defer gv.Unlock()

	gv.f.onNodeDepleted(nodeid)
	gv.addReplayEvent("node_depleted", map[string]interface{}{
		"node": nodeid,
	})
}

func (gv *grpcVisualizer) AdvanceCycle(cycle int, maxCycles int) {
	gv.Lock()
	defer gv.Unlock()

	if gv.f.advanceCycle(cycle, maxCycles) {
		gv.addReplayEvent("advance_cycle", map[string]interface{}{
			"cycle":      cycle,
			"max_cycles": maxCycles,
		})
	}
}

func (gv *grpcVisualizer) UpdateNodesEnergy(batteries []energy.NodeBattery, cycle int) {
	gv.Lock()
	defer gv.Unlock()

	nodes := make([]interface{}, 0, len(batteries))
	for _, b := range batteries {
		gv.f.setBattery(b.NodeId, b.Battery, b.DutyCycle, b.Active)
		nodes = append(nodes, map[string]interface{}{
			"node":       b.NodeId,
			"battery":    b.Battery,
			"duty_cycle": b.DutyCycle,
			"active":     b.Active,
		})
	}
	gv.addReplayEvent("energy", map[string]interface{}{
		"cycle": cycle,
		"nodes": nodes,
	})
}

func (gv *grpcVisualizer) OnCompleted(summary string) {
	gv.Lock()
	defer gv.Unlock()

	gv.f.completed = true
	gv.server.setRunning(false)
	gv.addReplayEvent("completed", map[string]interface{}{
		"cycle":        gv.f.cycle,
		"active_nodes": gv.f.activeNodes(),
		"summary":      summary,
	})
}

func (gv *grpcVisualizer) addReplayEvent(event string, fields map[string]interface{}) {
	if gv.replay != nil {
		gv.replay.Append(event, fields)
	}
}

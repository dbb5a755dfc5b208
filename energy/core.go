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

// Package energy keeps the battery history of the sensor network, per node and per cycle.
package energy

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/fieldsense/wsn-sim/logger"
	. "github.com/fieldsense/wsn-sim/types"
)

const resultsDir = "energy_results"

type EnergyAnalyser struct {
	nodes                 map[NodeId]*NodeEnergy
	networkHistory        []NetworkConsumption
	batteryHistoryByNodes [][]NodeBattery
	title                 string
}

func NewEnergyAnalyser() *EnergyAnalyser {
	ea := &EnergyAnalyser{
		nodes: make(map[NodeId]*NodeEnergy),
	}
	ea.ClearEnergyData()
	return ea
}

func (e *EnergyAnalyser) AddNode(nodeId NodeId, battery float64) {
	if _, ok := e.nodes[nodeId]; ok {
		return
	}
	e.nodes[nodeId] = newNode(nodeId, battery)
}

func (e *EnergyAnalyser) DeleteNode(nodeId NodeId) {
	delete(e.nodes, nodeId)

	if len(e.nodes) == 0 {
		e.ClearEnergyData()
	}
}

func (e *EnergyAnalyser) GetNode(nodeId NodeId) *NodeEnergy {
	return e.nodes[nodeId]
}

// Consume books the battery a node spent in a cycle. Unknown nodes are ignored.
func (e *EnergyAnalyser) Consume(nodeId NodeId, cycle int, activity Activity, sense, transmit float64) {
	if node, ok := e.nodes[nodeId]; ok {
		node.Consume(cycle, activity, sense, transmit)
	}
}

func (e *EnergyAnalyser) GetNetworkEnergyHistory() []NetworkConsumption {
	return e.networkHistory
}

func (e *EnergyAnalyser) GetBatteryHistoryByNodes() [][]NodeBattery {
	return e.batteryHistoryByNodes
}

// GetLatestBatteryOfNodes returns the battery levels of the last stored cycle, or nil if none was stored.
func (e *EnergyAnalyser) GetLatestBatteryOfNodes() []NodeBattery {
	if len(e.batteryHistoryByNodes) == 0 {
		return nil
	}
	return e.batteryHistoryByNodes[len(e.batteryHistoryByNodes)-1]
}

// StoreNetworkEnergy appends the end-of-cycle state of all given nodes to the history.
func (e *EnergyAnalyser) StoreNetworkEnergy(cycle int, snapshots []NodeSnapshot) {
	batteries := make([]NodeBattery, 0, len(snapshots))
	network := NetworkConsumption{Cycle: cycle}

	for _, s := range snapshots {
		batteries = append(batteries, NodeBattery{
			NodeId:    s.Id,
			Battery:   s.Battery,
			DutyCycle: s.DutyCycle,
			Active:    s.Active,
		})
		network.AverageBattery += s.Battery
		if s.Active {
			network.ActiveNodes++
		}
		if node, ok := e.nodes[s.Id]; ok {
			network.SpentSense += node.spentSense
			network.SpentTransmit += node.spentTransmit
		}
	}
	if n := float64(len(snapshots)); n > 0 {
		network.AverageBattery /= n
		network.SpentSense /= n
		network.SpentTransmit /= n
	}
	sort.Slice(batteries, func(i, j int) bool { return batteries[i].NodeId < batteries[j].NodeId })

	e.networkHistory = append(e.networkHistory, network)
	e.batteryHistoryByNodes = append(e.batteryHistoryByNodes, batteries)
}

// SaveEnergyDataToFile writes <dir>/energy_results/<name>.txt and <name>_nodes.txt.
func (e *EnergyAnalyser) SaveEnergyDataToFile(dir string, name string) error {
	if name == "" {
		if e.title == "" {
			name = "energy"
		} else {
			name = e.title
		}
	}
	if dir == "" {
		dir = "."
	}

	outDir := filepath.Join(dir, resultsDir)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return errors.Wrapf(err, "create %s", outDir)
	}

	path := filepath.Join(outDir, name)
	fileNodes, err := os.Create(path + "_nodes.txt")
	if err != nil {
		return errors.Wrapf(err, "create energy file")
	}
	defer fileNodes.Close()

	fileNetwork, err := os.Create(path + ".txt")
	if err != nil {
		return errors.Wrapf(err, "create energy file")
	}
	defer fileNetwork.Close()

	if err = e.WriteEnergyByNodes(fileNodes); err != nil {
		return err
	}
	if err = e.WriteNetworkEnergy(fileNetwork); err != nil {
		return err
	}
	logger.Infof("energy data saved to %s.txt", path)
	return nil
}

// WriteEnergyByNodes writes the per-node totals as a tab-separated table, ordered by node id.
func (e *EnergyAnalyser) WriteEnergyByNodes(w io.Writer) error {
	cycles := len(e.networkHistory)
	if _, err := fmt.Fprintf(w, "Simulated cycles: %d\n", cycles); err != nil {
		return errors.Wrap(err, "write energy data")
	}
	_, _ = fmt.Fprintf(w, "ID\tBattery (%%)\tSensing (%%)\tTransmitting (%%)\tIdle\tFailed\tDepleted at\n")

	sortedNodes := make([]NodeId, 0, len(e.nodes))
	for id := range e.nodes {
		sortedNodes = append(sortedNodes, id)
	}
	sort.Ints(sortedNodes)

	for _, id := range sortedNodes {
		node := e.nodes[id]
		if _, err := fmt.Fprintf(w, "%d\t%f\t%f\t%f\t%d\t%d\t%d\n",
			id,
			node.battery,
			node.spentSense,
			node.spentTransmit,
			node.Count(ActivityIdle),
			node.Count(ActivityFailed),
			node.depletedCycle,
		); err != nil {
			return errors.Wrap(err, "write energy data")
		}
	}
	return nil
}

// WriteNetworkEnergy writes one line per stored cycle.
func (e *EnergyAnalyser) WriteNetworkEnergy(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Simulated cycles: %d\n", len(e.networkHistory)); err != nil {
		return errors.Wrap(err, "write energy data")
	}
	_, _ = fmt.Fprintf(w, "Cycle\tAvg battery (%%)\tActive nodes\tSensing (%%)\tTransmitting (%%)\n")
	for _, snapshot := range e.networkHistory {
		if _, err := fmt.Fprintf(w, "%d\t%f\t%d\t%f\t%f\n",
			snapshot.Cycle,
			snapshot.AverageBattery,
			snapshot.ActiveNodes,
			snapshot.SpentSense,
			snapshot.SpentTransmit,
		); err != nil {
			return errors.Wrap(err, "write energy data")
		}
	}
	return nil
}

func (e *EnergyAnalyser) ClearEnergyData() {
	logger.Debugf("energy history cleared")
	e.networkHistory = make([]NetworkConsumption, 0, 64)
	e.batteryHistoryByNodes = make([][]NodeBattery, 0, 64)
}

func (e *EnergyAnalyser) SetTitle(title string) {
	e.title = title
}

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
	"fmt"
	"os"
	"path/filepath"

	"github.com/fieldsense/wsn-sim/energy"
	"github.com/fieldsense/wsn-sim/logger"
	. "github.com/fieldsense/wsn-sim/types"
	. "github.com/fieldsense/wsn-sim/visualize"
)

type statslogVisualizer struct {
	logFile       *os.File
	logFileName   string
	isFileEnabled bool
	cycle         int // cycle currently being logged
	loggedCycle   int // last cycle written to the log
	transmissions int // successful transmissions in the current cycle

	nodesBattery  map[NodeId]float64
	nodesDepleted map[NodeId]struct{}
}

type cycleStats struct {
	numNodes         int
	numActive        int
	numDepleted      int
	numTransmissions int
	avgBattery       float64
	minBattery       float64
}

// NewStatslogVisualizer creates a new Visualizer that writes a log of per-cycle network stats to file.
func NewStatslogVisualizer(outputDir string, simulationId int) Visualizer {
	return &statslogVisualizer{
		logFileName:   getStatsLogFileName(outputDir, simulationId),
		isFileEnabled: true,
		nodesBattery:  make(map[NodeId]float64, 16),
		nodesDepleted: make(map[NodeId]struct{}),
	}
}

func (sv *statslogVisualizer) SetController(SimulationController) {
}

func (sv *statslogVisualizer) SetStatus(string) {
}

func (sv *statslogVisualizer) OnCompleted(string) {
}

func (sv *statslogVisualizer) Init() {
	sv.createLogFile()
}

func (sv *statslogVisualizer) Run() {
	// no goroutine
}

func (sv *statslogVisualizer) Stop() {
	// add a final entry if the last cycle was not logged yet
	if sv.cycle > sv.loggedCycle {
		sv.writeLogEntry(sv.cycle, sv.calcStats())
	}
	sv.close()
	logger.Debugf("statslogVisualizer stopped and CSV log file closed.")
}

func (sv *statslogVisualizer) AddNode(node NodeSnapshot) {
	sv.nodesBattery[node.Id] = node.Battery
	if !node.Active {
		sv.nodesDepleted[node.Id] = struct{}{}
	}
}

func (sv *statslogVisualizer) OnTransmission(node NodeSnapshot, reading Reading) {
	sv.transmissions++
	sv.nodesBattery[node.Id] = node.Battery
}

func (sv *statslogVisualizer) OnNodeDepleted(nodeid NodeId) {
	sv.nodesDepleted[nodeid] = struct{}{}
}

func (sv *statslogVisualizer) AdvanceCycle(cycle int, maxCycles int) {
	sv.cycle = cycle
	sv.transmissions = 0
}

// UpdateNodesEnergy is called once at the end of every cycle and produces one log entry.
func (sv *statslogVisualizer) UpdateNodesEnergy(batteries []energy.NodeBattery, cycle int) {
	for _, b := range batteries {
		sv.nodesBattery[b.NodeId] = b.Battery
		if !b.Active {
			sv.nodesDepleted[b.NodeId] = struct{}{}
		}
	}
	sv.cycle = cycle
	sv.writeLogEntry(cycle, sv.calcStats())
	sv.loggedCycle = cycle
}

func (sv *statslogVisualizer) createLogFile() {
	logger.AssertNil(sv.logFile)

	var err error
	_ = os.Remove(sv.logFileName)

	sv.logFile, err = os.OpenFile(sv.logFileName, os.O_CREATE|os.O_WRONLY, 0664)
	if err != nil {
		logger.Errorf("creating new stats log file %s failed: %+v", sv.logFileName, err)
		sv.isFileEnabled = false
		return
	}
	sv.writeLogFileHeader()
	logger.Debugf("Stats log file '%s' created.", sv.logFileName)
}

func (sv *statslogVisualizer) writeLogFileHeader() {
	// RFC 4180 CSV file: no leading or trailing spaces in header field names
	header := "cycle,nNodes,nActive,nDepleted,nTransmissions,avgBattery,minBattery"
	_ = sv.writeToLogFile(header)
}

func (sv *statslogVisualizer) calcStats() cycleStats {
	s := cycleStats{
		numNodes:         len(sv.nodesBattery),
		numDepleted:      len(sv.nodesDepleted),
		numTransmissions: sv.transmissions,
	}
	s.numActive = s.numNodes - s.numDepleted
	first := true
	for _, b := range sv.nodesBattery {
		s.avgBattery += b
		if first || b < s.minBattery {
			s.minBattery = b
			first = false
		}
	}
	if s.numNodes > 0 {
		s.avgBattery /= float64(s.numNodes)
	}
	return s
}

func (sv *statslogVisualizer) writeLogEntry(cycle int, stats cycleStats) {
	entry := fmt.Sprintf("%5d, %3d,%3d,%3d,%3d,%8.3f,%8.3f", cycle, stats.numNodes, stats.numActive,
		stats.numDepleted, stats.numTransmissions, stats.avgBattery, stats.minBattery)
	_ = sv.writeToLogFile(entry)
	logger.Debugf("statslog entry added: %s", entry)
}

func (sv *statslogVisualizer) writeToLogFile(line string) error {
	if !sv.isFileEnabled {
		return nil
	}
	_, err := sv.logFile.WriteString(line + "\n")
	if err != nil {
		sv.close()
		sv.isFileEnabled = false
		logger.Errorf("couldn't write to stats log file (%s), closing it", sv.logFileName)
	}
	return err
}

func (sv *statslogVisualizer) close() {
	if sv.logFile != nil {
		_ = sv.logFile.Close()
		sv.logFile = nil
		sv.isFileEnabled = false
	}
}

func getStatsLogFileName(outputDir string, simId int) string {
	return filepath.Join(outputDir, fmt.Sprintf("%d_stats.csv", simId))
}

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
	"fmt"

	"github.com/pkg/errors"

	"github.com/fieldsense/wsn-sim/logger"
	"github.com/fieldsense/wsn-sim/prng"
	. "github.com/fieldsense/wsn-sim/types"
)

const (
	lowBatteryLevel    = 20.0
	mediumBatteryLevel = 50.0
	lowDutyCycle       = 0.2
	mediumDutyCycle    = 0.5
	fullDutyCycle      = 1.0
	criticalEscalation = 2.0
)

// SensorNode is a battery powered node that senses one data type and transmits directly to the base station.
// All state changes happen through UpdateDutyCycle, Sense and Transmit.
type SensorNode struct {
	Id                NodeId
	pos               Position
	dataType          DataType
	commRange         float64
	energyPerSense    float64
	energyPerTransmit float64

	battery     float64
	active      bool
	dutyCycle   float64
	sleepCycles int
	hasReading  bool
	lastReading float64
	rnd         prng.RandSource
}

// NewSensorNode creates a node from cfg. A nil rnd gets a source seeded from the prng root seed.
func NewSensorNode(cfg *NodeConfig, rnd prng.RandSource) (*SensorNode, error) {
	if !cfg.DataType.IsValid() {
		return nil, errors.Errorf("node %d: invalid data type %q", cfg.ID, cfg.DataType)
	}
	if cfg.CommRange <= 0 {
		return nil, errors.Errorf("node %d: comm range must be positive, got %v", cfg.ID, cfg.CommRange)
	}
	if cfg.Battery < 0 || cfg.EnergyPerSense < 0 || cfg.EnergyPerTransmit < 0 {
		return nil, errors.Errorf("node %d: battery and energy costs must not be negative", cfg.ID)
	}
	if rnd == nil {
		rnd = prng.NewNodeRandSource()
	}

	node := &SensorNode{
		Id:                cfg.ID,
		pos:               cfg.Pos,
		dataType:          cfg.DataType,
		commRange:         cfg.CommRange,
		energyPerSense:    cfg.EnergyPerSense,
		energyPerTransmit: cfg.EnergyPerTransmit,
		battery:           cfg.Battery,
		active:            true,
		rnd:               rnd,
	}
	node.UpdateDutyCycle()
	logger.Debugf("%s created: type=%s pos=(%.1f,%.1f) battery=%.2f", node, node.dataType, node.pos.X, node.pos.Y,
		node.battery)
	return node, nil
}

func (node *SensorNode) String() string {
	return fmt.Sprintf("Node %d", node.Id)
}

// UpdateDutyCycle recomputes the duty cycle from the battery tier, doubled (max 1.0) while the last
// reading is critical. A depleted node is deactivated and gets duty cycle 0.
func (node *SensorNode) UpdateDutyCycle() {
	if node.battery <= 0 {
		node.deactivate()
		return
	}

	var duty float64
	switch {
	case node.battery < lowBatteryLevel:
		duty = lowDutyCycle
	case node.battery < mediumBatteryLevel:
		duty = mediumDutyCycle
	default:
		duty = fullDutyCycle
	}
	if node.hasReading && node.dataType.IsCritical(node.lastReading) {
		duty *= criticalEscalation
	}
	if duty > fullDutyCycle {
		duty = fullDutyCycle
	}
	node.dutyCycle = duty
}

// Sense tries to take a reading. ok is false when the node is depleted, asleep, or skips this cycle
// because of its duty cycle.
func (node *SensorNode) Sense() (value float64, ok bool) {
	if !node.active || node.battery <= 0 {
		node.deactivate()
		return 0, false
	}
	if node.sleepCycles > 0 {
		node.sleepCycles--
		return 0, false
	}

	node.UpdateDutyCycle()
	if node.rnd.Float64() >= node.dutyCycle {
		node.sleepCycles = 1
		return 0, false
	}

	r := node.dataType.SensingRange()
	value = prng.UniformIn(node.rnd.Float64(), r.Min, r.Max)
	node.lastReading = value
	node.hasReading = true
	node.consume(node.energyPerSense)
	node.UpdateDutyCycle()
	logger.Tracef("%s sensed %s=%.2f, battery=%.2f", node, node.dataType, value, node.battery)
	return value, true
}

// Transmit sends the last reading to bs. It fails without spending energy when bs is out of range.
func (node *SensorNode) Transmit(bs *BaseStation) bool {
	if !node.active || node.battery <= 0 || node.sleepCycles != 0 {
		if node.battery <= 0 {
			node.deactivate()
		}
		return false
	}

	distance := node.pos.Distance(bs.Pos)
	if distance > node.commRange {
		logger.Debugf("%s out of range: distance %.1f > %.1f", node, distance, node.commRange)
		return false
	}
	node.consume(distance / node.commRange * node.energyPerTransmit)
	if node.battery <= 0 {
		node.deactivate()
	}
	return true
}

func (node *SensorNode) consume(energy float64) {
	node.battery -= energy
	if node.battery < 0 {
		node.battery = 0
	}
}

func (node *SensorNode) deactivate() {
	if node.active {
		logger.Infof("%s depleted", node)
	}
	node.active = false
	node.dutyCycle = 0
}

// Snapshot returns a copy of the node state for visualizers and reports.
func (node *SensorNode) Snapshot() NodeSnapshot {
	s := NodeSnapshot{
		Id:        node.Id,
		Pos:       node.pos,
		DataType:  node.dataType,
		Battery:   node.battery,
		DutyCycle: node.dutyCycle,
		Active:    node.active,
	}
	if node.hasReading {
		v := node.lastReading
		s.LastReading = &v
	}
	return s
}

func (node *SensorNode) Position() Position {
	return node.pos
}

func (node *SensorNode) DataType() DataType {
	return node.dataType
}

func (node *SensorNode) Battery() float64 {
	return node.battery
}

func (node *SensorNode) IsActive() bool {
	return node.active
}

func (node *SensorNode) DutyCycle() float64 {
	return node.dutyCycle
}

func (node *SensorNode) SleepCycles() int {
	return node.sleepCycles
}

func (node *SensorNode) CommRange() float64 {
	return node.commRange
}

// LastReading returns the most recently sensed value, if any.
func (node *SensorNode) LastReading() (float64, bool) {
	return node.lastReading, node.hasReading
}

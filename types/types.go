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

package types

import (
	"math"
)

type NodeId = int

const (
	InvalidNodeId NodeId = -1
)

// Position is a location in the field, in distance units.
type Position struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Distance returns the Euclidean distance between two positions.
func (p Position) Distance(o Position) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// SimState is the state of the simulation clock.
type SimState int

const (
	SimIdle      SimState = 0
	SimRunning   SimState = 1
	SimCompleted SimState = 2
)

func (s SimState) String() string {
	switch s {
	case SimIdle:
		return "idle"
	case SimRunning:
		return "running"
	case SimCompleted:
		return "completed"
	default:
		return "invalid"
	}
}

// CompletionReason tells why a simulation reached SimCompleted.
type CompletionReason int

const (
	NotCompleted CompletionReason = iota
	CompletedCycleLimit
	CompletedDepleted
	CompletedStopped
)

func (r CompletionReason) String() string {
	switch r {
	case NotCompleted:
		return "-"
	case CompletedCycleLimit:
		return "cycle-limit"
	case CompletedDepleted:
		return "depleted"
	case CompletedStopped:
		return "stopped"
	default:
		return "invalid"
	}
}

// NodeSnapshot is the state of a sensor node as handed to visualizers.
type NodeSnapshot struct {
	Id          NodeId
	Pos         Position
	DataType    DataType
	Battery     float64
	DutyCycle   float64
	Active      bool
	LastReading *float64
}

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

package energy

import (
	. "github.com/fieldsense/wsn-sim/types"
)

// Activity is what a node did with its battery during one cycle.
type Activity int

const (
	ActivityIdle Activity = iota // asleep or skipped by its duty cycle
	ActivitySensed
	ActivityTransmitted
	ActivityFailed
	ActivityDepleted
)

func (a Activity) String() string {
	switch a {
	case ActivityIdle:
		return "idle"
	case ActivitySensed:
		return "sensed"
	case ActivityTransmitted:
		return "transmitted"
	case ActivityFailed:
		return "failed"
	case ActivityDepleted:
		return "depleted"
	default:
		return "invalid"
	}
}

// NodeBattery is one node's battery level at the end of a cycle.
type NodeBattery struct {
	NodeId    NodeId  `json:"node_id"`
	Battery   float64 `json:"battery"`
	DutyCycle float64 `json:"duty_cycle"`
	Active    bool    `json:"active"`
}

// NetworkConsumption is the network-wide energy state at the end of a cycle. Spent values are averages per node.
type NetworkConsumption struct {
	Cycle          int
	AverageBattery float64
	ActiveNodes    int
	SpentSense     float64
	SpentTransmit  float64
}

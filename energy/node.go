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
	"github.com/fieldsense/wsn-sim/logger"
	. "github.com/fieldsense/wsn-sim/types"
)

// NodeEnergy accumulates the battery spent by one node, split by cause.
type NodeEnergy struct {
	nodeId        NodeId
	initial       float64
	battery       float64
	spentSense    float64
	spentTransmit float64
	activities    map[Activity]int
	depletedCycle int
}

func newNode(nodeId NodeId, battery float64) *NodeEnergy {
	return &NodeEnergy{
		nodeId:     nodeId,
		initial:    battery,
		battery:    battery,
		activities: make(map[Activity]int),
	}
}

// Consume books battery spent in the given cycle. Battery never increases.
func (node *NodeEnergy) Consume(cycle int, activity Activity, sense, transmit float64) {
	logger.AssertTrue(sense >= 0 && transmit >= 0, "negative consumption")

	node.spentSense += sense
	node.spentTransmit += transmit
	node.battery -= sense + transmit
	if node.battery < 0 {
		node.battery = 0
	}
	node.activities[activity]++
	if activity == ActivityDepleted && node.depletedCycle == 0 {
		node.depletedCycle = cycle
	}
}

func (node *NodeEnergy) Id() NodeId {
	return node.nodeId
}

func (node *NodeEnergy) Battery() float64 {
	return node.battery
}

func (node *NodeEnergy) SpentSense() float64 {
	return node.spentSense
}

func (node *NodeEnergy) SpentTransmit() float64 {
	return node.spentTransmit
}

// Count returns how many cycles the node spent in the given activity.
func (node *NodeEnergy) Count(activity Activity) int {
	return node.activities[activity]
}

// DepletedCycle returns the cycle the node ran out of battery, or 0 while it still has some.
func (node *NodeEnergy) DepletedCycle() int {
	return node.depletedCycle
}

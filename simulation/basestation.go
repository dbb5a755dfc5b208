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
	"time"

	. "github.com/fieldsense/wsn-sim/types"
)

// BaseStation collects the readings of all nodes in arrival order. Readings are only ever appended.
type BaseStation struct {
	Pos      Position
	readings []Reading
	now      func() time.Time
}

func NewBaseStation(pos Position) *BaseStation {
	return &BaseStation{
		Pos: pos,
		now: time.Now,
	}
}

// SetClock replaces the timestamp source, e.g. for reproducible exports.
func (bs *BaseStation) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	bs.now = now
}

// Receive stores a new reading and returns it.
func (bs *BaseStation) Receive(nodeId NodeId, dataType DataType, value float64, dutyCycle float64) Reading {
	r := Reading{
		NodeId:    nodeId,
		Timestamp: bs.now(),
		DataType:  dataType,
		Value:     value,
		DutyCycle: dutyCycle,
	}
	bs.readings = append(bs.readings, r)
	return r
}

// Readings returns a copy of all readings in arrival order.
func (bs *BaseStation) Readings() []Reading {
	res := make([]Reading, len(bs.readings))
	copy(res, bs.readings)
	return res
}

func (bs *BaseStation) Len() int {
	return len(bs.readings)
}

// Last returns up to n of the most recent readings, oldest first.
func (bs *BaseStation) Last(n int) []Reading {
	if n <= 0 {
		return nil
	}
	start := len(bs.readings) - n
	if start < 0 {
		start = 0
	}
	res := make([]Reading, len(bs.readings)-start)
	copy(res, bs.readings[start:])
	return res
}

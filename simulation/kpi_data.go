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

import . "github.com/fieldsense/wsn-sim/types"

type KpiCycles struct {
	Executed int `json:"executed"`
	Max      int `json:"max"`
}

type KpiTransmissions struct {
	Attempted      uint64  `json:"attempted"`
	Succeeded      uint64  `json:"succeeded"`
	Failed         uint64  `json:"failed"`
	SuccessPercent float64 `json:"success_percent"`
}

type KpiNode struct {
	DataType      DataType `json:"type"`
	Battery       float64  `json:"battery"`
	DutyCycle     float64  `json:"duty_cycle"`
	Active        bool     `json:"active"`
	Readings      uint64   `json:"readings"`
	TxFailed      uint64   `json:"tx_failed"`
	Skipped       uint64   `json:"skipped"`
	DepletedCycle int      `json:"depleted_cycle,omitempty"`
}

type Kpi struct {
	RunId         string             `json:"run_id"`
	FileTime      string             `json:"created"`
	Status        string             `json:"status"`
	Reason        string             `json:"reason"`
	Cycles        KpiCycles          `json:"cycles"`
	Transmissions KpiTransmissions   `json:"transmissions"`
	Readings      int                `json:"readings"`
	Nodes         map[NodeId]KpiNode `json:"nodes"`
}

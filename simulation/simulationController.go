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
	"github.com/pkg/errors"

	"github.com/fieldsense/wsn-sim/logger"
	"github.com/fieldsense/wsn-sim/visualize"
)

type simulationController struct {
	sim *Simulation
}

func (sc *simulationController) CtrlRun() error {
	sim := sc.sim
	sim.PostAsync(false, func() {
		sim.Run(sim.ctx)
	})
	return nil
}

func (sc *simulationController) CtrlStop() error {
	sc.sim.Stop()
	return nil
}

func (sc *simulationController) CtrlStep(cycles int) error {
	if cycles <= 0 {
		return errors.Errorf("invalid number of cycles: %d", cycles)
	}
	sim := sc.sim
	sim.PostAsync(false, func() {
		if sim.IsRunning() {
			logger.Warnf("step ignored: simulation is running")
			return
		}
		for i := 0; i < cycles; i++ {
			if sim.AdvanceOneCycle().Completed() {
				return
			}
		}
	})
	return nil
}

type readonlySimulationController struct {
}

var readonlySimulationError = errors.Errorf("simulation is readonly")

func (r readonlySimulationController) CtrlRun() error {
	return readonlySimulationError
}

func (r readonlySimulationController) CtrlStop() error {
	return readonlySimulationError
}

func (r readonlySimulationController) CtrlStep(cycles int) error {
	return readonlySimulationError
}

func NewSimulationController(sim *Simulation) visualize.SimulationController {
	if !sim.cfg.ReadOnly {
		return &simulationController{sim}
	} else {
		return readonlySimulationController{}
	}
}

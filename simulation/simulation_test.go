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
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsense/wsn-sim/energy"
	"github.com/fieldsense/wsn-sim/prng"
	"github.com/fieldsense/wsn-sim/progctx"
	. "github.com/fieldsense/wsn-sim/types"
	"github.com/fieldsense/wsn-sim/visualize"
)

type recordingVisualizer struct {
	nodes         []NodeSnapshot
	transmissions []Reading
	statuses      []string
	depleted      []NodeId
	cycles        []int
	energyUpdates int
	summary       string
	ctrl          visualize.SimulationController
}

func (rv *recordingVisualizer) Init() {}
func (rv *recordingVisualizer) Run()  {}
func (rv *recordingVisualizer) Stop() {}

func (rv *recordingVisualizer) AddNode(node NodeSnapshot) {
	rv.nodes = append(rv.nodes, node)
}

func (rv *recordingVisualizer) OnTransmission(node NodeSnapshot, reading Reading) {
	rv.transmissions = append(rv.transmissions, reading)
}

func (rv *recordingVisualizer) SetStatus(text string) {
	rv.statuses = append(rv.statuses, text)
}

func (rv *recordingVisualizer) OnNodeDepleted(nodeid NodeId) {
	rv.depleted = append(rv.depleted, nodeid)
}

func (rv *recordingVisualizer) AdvanceCycle(cycle int, maxCycles int) {
	rv.cycles = append(rv.cycles, cycle)
}

func (rv *recordingVisualizer) UpdateNodesEnergy(batteries []energy.NodeBattery, cycle int) {
	rv.energyUpdates++
}

func (rv *recordingVisualizer) OnCompleted(summary string) {
	rv.summary = summary
}

func (rv *recordingVisualizer) SetController(ctrl visualize.SimulationController) {
	rv.ctrl = ctrl
}

func (rv *recordingVisualizer) lastStatus() string {
	if len(rv.statuses) == 0 {
		return ""
	}
	return rv.statuses[len(rv.statuses)-1]
}

func testConfig(t *testing.T) *Config {
	cfg := DefaultConfig()
	cfg.CycleInterval = 0
	cfg.OutputDir = t.TempDir()
	return cfg
}

// steadySources makes every node sense every cycle, with values in the middle of the sensing range.
func steadySources(n int) map[NodeId]prng.RandSource {
	res := make(map[NodeId]prng.RandSource, n)
	for i := 0; i < n; i++ {
		res[i] = prng.NewSequenceSource(0, 0.5)
	}
	return res
}

func newTestSimulation(t *testing.T, cfg *Config, rs map[NodeId]prng.RandSource) (*Simulation, *recordingVisualizer) {
	vis := &recordingVisualizer{}
	sim, err := NewSimulation(progctx.New(context.Background()), cfg, vis, nil, rs)
	require.NoError(t, err)
	return sim, vis
}

func TestDefaultLayout(t *testing.T) {
	cfg := DefaultConfig()
	ncs := cfg.NodeConfigs()
	require.Len(t, ncs, 5)
	for i, nc := range ncs {
		assert.Equal(t, i, nc.ID)
		assert.Equal(t, AllDataTypes[i], nc.DataType)
		assert.InDelta(t, 20.0, nc.Pos.Distance(cfg.BaseStationPos), 1e-9)
		assert.Equal(t, DefaultCommRange, nc.CommRange)
	}
	assert.InDelta(t, 70.0, ncs[0].Pos.X, 1e-9)
	assert.InDelta(t, 50.0, ncs[0].Pos.Y, 1e-9)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.MaxCycles = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.CommRange = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.NodeCount = 0
	assert.Error(t, cfg.Validate())
	cfg.Nodes = []NodeConfig{DefaultNodeConfig()}
	assert.NoError(t, cfg.Validate())
}

func TestFiveNodesFiveCycles(t *testing.T) {
	sim, vis := newTestSimulation(t, testConfig(t), steadySources(5))
	assert.Equal(t, SimIdle, sim.State())
	assert.Len(t, vis.nodes, 5)

	for cycle := 1; cycle <= 5; cycle++ {
		res := sim.AdvanceOneCycle()
		assert.Equal(t, CycleResult{Cycle: cycle, Readings: 5, Transmitted: 5, State: SimRunning}, res)
		assert.Equal(t, SimRunning, sim.State())
	}
	assert.Equal(t, 25, sim.BaseStation().Len())

	res := sim.AdvanceOneCycle()
	assert.True(t, res.Completed())
	assert.Equal(t, CompletedCycleLimit, res.Reason)
	assert.Equal(t, 5, res.Cycle)
	assert.Equal(t, SimCompleted, sim.State())
	assert.Equal(t, "Simulation Completed", vis.lastStatus())
	assert.Contains(t, vis.summary, "Total Data Points Collected: 25")
	assert.Contains(t, vis.summary, "Dead Nodes: 0/5")
	assert.Len(t, vis.transmissions, 25)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, vis.cycles)
	assert.Contains(t, vis.statuses, "Cycle 3/5")

	select {
	case <-sim.Done():
	default:
		t.Fatal("Done not closed")
	}

	// completed: no further change
	again := sim.AdvanceOneCycle()
	assert.Equal(t, res, again)
	assert.Equal(t, 25, sim.BaseStation().Len())
	assert.Equal(t, 5, sim.Cycle())

	sim.VisitNodesInOrder(func(node *SensorNode) {
		assert.InDelta(t, 100-5*0.02-5*20.0/1000*0.05, node.Battery(), 1e-9)
		assert.True(t, node.IsActive())
	})
}

func TestReadingsCarryNodeState(t *testing.T) {
	sim, _ := newTestSimulation(t, testConfig(t), steadySources(5))
	sim.AdvanceOneCycle()

	readings := sim.BaseStation().Readings()
	require.Len(t, readings, 5)
	for i, r := range readings {
		assert.Equal(t, i, r.NodeId)
		assert.Equal(t, AllDataTypes[i], r.DataType)
		assert.Equal(t, 1.0, r.DutyCycle)
		assert.True(t, AllDataTypes[i].SensingRange().Contains(r.Value))
	}
}

func TestDepletedNetworkCompletesEarly(t *testing.T) {
	cfg := testConfig(t)
	nc := DefaultNodeConfig()
	nc.ID = 0
	nc.Battery = 0.01
	nc.Pos = cfg.BaseStationPos
	cfg.Nodes = []NodeConfig{nc}
	sim, vis := newTestSimulation(t, cfg, steadySources(1))

	res := sim.AdvanceOneCycle()
	assert.Equal(t, 1, res.Readings)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Transmitted)
	assert.False(t, res.Completed())
	assert.Contains(t, vis.statuses, "Node 0 failed to transmit")
	assert.Equal(t, []NodeId{0}, vis.depleted)

	res = sim.AdvanceOneCycle()
	assert.True(t, res.Completed())
	assert.Equal(t, CompletedDepleted, res.Reason)
	assert.Equal(t, 2, res.Cycle)
	assert.Equal(t, "All nodes depleted", vis.lastStatus())
	assert.Equal(t, 0, sim.BaseStation().Len())
	assert.Contains(t, vis.summary, "Dead Nodes: 1/1")

	ne := sim.EnergyAnalyser().GetNode(0)
	assert.Equal(t, 1, ne.DepletedCycle())
}

func TestCycleWithoutReadingsCompletes(t *testing.T) {
	cfg := testConfig(t)
	nc := DefaultNodeConfig()
	nc.ID = 0
	nc.Battery = 40
	cfg.Nodes = []NodeConfig{nc}
	sim, _ := newTestSimulation(t, cfg, map[NodeId]prng.RandSource{0: prng.NewSequenceSource(0.9)})

	res := sim.AdvanceOneCycle()
	assert.Equal(t, 1, res.Skipped)
	assert.True(t, res.Completed())
	assert.Equal(t, CompletedDepleted, res.Reason)
	assert.True(t, sim.Node(0).IsActive())
}

func TestOutOfRangeNodeKeepsRunning(t *testing.T) {
	cfg := testConfig(t)
	near := DefaultNodeConfig()
	near.ID = 0
	near.Pos = Position{X: 50, Y: 60}
	far := DefaultNodeConfig()
	far.ID = 1
	far.DataType = Light
	far.Pos = Position{X: 0, Y: 0}
	far.CommRange = 10
	cfg.Nodes = []NodeConfig{near, far}
	sim, vis := newTestSimulation(t, cfg, steadySources(2))

	res := sim.AdvanceOneCycle()
	assert.Equal(t, CycleResult{Cycle: 1, Readings: 2, Transmitted: 1, Failed: 1, State: SimRunning}, res)
	assert.Equal(t, "Node 1 failed to transmit", vis.lastStatus())
	assert.Equal(t, 1, sim.BaseStation().Len())
	assert.InDelta(t, 99.98, sim.Node(1).Battery(), 1e-9)
	assert.Equal(t, uint64(1), sim.KpiManager().Data().Transmissions.Failed)
}

func TestAddNode(t *testing.T) {
	sim, vis := newTestSimulation(t, testConfig(t), steadySources(5))

	nc := DefaultNodeConfig()
	node, err := sim.AddNode(&nc)
	require.NoError(t, err)
	assert.Equal(t, 5, node.Id)
	assert.Len(t, vis.nodes, 6)

	nc.ID = 2
	_, err = sim.AddNode(&nc)
	assert.Error(t, err)
	assert.Equal(t, []NodeId{0, 1, 2, 3, 4, 5}, sim.GetNodes())
}

func TestRun(t *testing.T) {
	sim, _ := newTestSimulation(t, testConfig(t), steadySources(5))
	res := sim.Run(context.Background())
	assert.True(t, res.Completed())
	assert.Equal(t, CompletedCycleLimit, res.Reason)
	assert.Equal(t, res, sim.Run(context.Background()))
	assert.Equal(t, 25, sim.BaseStation().Len())
	assert.False(t, sim.IsRunning())

	history := sim.EnergyAnalyser().GetNetworkEnergyHistory()
	assert.Len(t, history, 5)
}

func TestRunCancelled(t *testing.T) {
	sim, _ := newTestSimulation(t, testConfig(t), steadySources(5))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := sim.Run(ctx)
	assert.Equal(t, 0, res.Cycle)
	assert.Equal(t, SimIdle, sim.State())
	assert.Equal(t, 0, sim.BaseStation().Len())
}

func TestStopPausesRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxCycles = 100
	cfg.CycleInterval = time.Millisecond
	sim, vis := newTestSimulation(t, cfg, steadySources(5))

	executed := false
	sim.PostAsync(false, func() {
		executed = true
		sim.Stop()
	})
	res := sim.Run(context.Background())
	assert.True(t, executed)
	assert.Equal(t, 1, res.Cycle)
	assert.Equal(t, SimRunning, sim.State())
	assert.Contains(t, vis.statuses, visualize.StatusRunning)
	assert.Equal(t, visualize.StatusPaused, vis.lastStatus())

	// resumes where it stopped
	res = sim.AdvanceOneCycle()
	assert.Equal(t, 2, res.Cycle)
}

func TestServeAutoRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.AutoRun = true
	ctx := progctx.New(context.Background())
	sim, err := NewSimulation(ctx, cfg, nil, nil, steadySources(5))
	require.NoError(t, err)

	go sim.Serve()
	<-sim.Started
	select {
	case <-sim.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("simulation did not complete")
	}

	result := make(chan int, 1)
	sim.PostAsync(false, func() { result <- sim.BaseStation().Len() })
	assert.Equal(t, 25, <-result)

	ctx.Cancel("test done")
	ctx.Wait()
}

func TestCloseStopsUnfinishedSimulation(t *testing.T) {
	sim, vis := newTestSimulation(t, testConfig(t), steadySources(5))
	sim.AdvanceOneCycle()
	sim.Close()
	sim.Close()

	assert.Equal(t, SimCompleted, sim.State())
	assert.Equal(t, CompletedStopped, sim.Reason())
	assert.Equal(t, "Simulation Stopped", vis.lastStatus())
	assert.Equal(t, 1, sim.LastResult().Cycle)
}

func TestKpi(t *testing.T) {
	cfg := testConfig(t)
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	sim, err := NewSimulation(progctx.New(context.Background()), cfg, nil, metrics, steadySources(5))
	require.NoError(t, err)

	sim.Run(context.Background())
	kpi := sim.KpiManager().Data()
	assert.NotEmpty(t, kpi.RunId)
	assert.Equal(t, "ok", kpi.Status)
	assert.Equal(t, "cycle-limit", kpi.Reason)
	assert.Equal(t, KpiCycles{Executed: 5, Max: 5}, kpi.Cycles)
	assert.Equal(t, uint64(25), kpi.Transmissions.Succeeded)
	assert.Equal(t, 100.0, kpi.Transmissions.SuccessPercent)
	assert.Equal(t, 25, kpi.Readings)
	assert.Equal(t, uint64(5), kpi.Nodes[3].Readings)

	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.cycles))
	assert.Equal(t, 25.0, testutil.ToFloat64(metrics.transmissions.WithLabelValues("success")))
	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.readings.WithLabelValues("ph")))
	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.activeNodes))

	_, err = os.Stat(filepath.Join(cfg.OutputDir, "0_kpi.json"))
	assert.NoError(t, err)
}

func TestSimulationController(t *testing.T) {
	sim, vis := newTestSimulation(t, testConfig(t), steadySources(5))
	require.NotNil(t, vis.ctrl)

	assert.Error(t, vis.ctrl.CtrlStep(0))
	require.NoError(t, vis.ctrl.CtrlStep(2))
	sim.handleTasks()
	assert.Equal(t, 2, sim.Cycle())

	require.NoError(t, vis.ctrl.CtrlRun())
	sim.handleTasks()
	assert.Equal(t, SimCompleted, sim.State())
	assert.NoError(t, vis.ctrl.CtrlStop())

	cfg := testConfig(t)
	cfg.ReadOnly = true
	_, ro := newTestSimulation(t, cfg, steadySources(5))
	assert.Error(t, ro.ctrl.CtrlRun())
	assert.Error(t, ro.ctrl.CtrlStep(1))
	assert.Error(t, ro.ctrl.CtrlStop())
}

func TestReadingKeepsSensedDutyCycle(t *testing.T) {
	cfg := testConfig(t)
	nc := cfg.NewNodeConfig
	nc.ID = 0
	nc.Battery = 0.03
	nc.Pos = Position{X: cfg.BaseStationPos.X + 1000, Y: cfg.BaseStationPos.Y}
	cfg.Nodes = []NodeConfig{nc}

	sim, vis := newTestSimulation(t, cfg, map[NodeId]prng.RandSource{0: prng.NewSequenceSource(0.1, 0.5)})
	res := sim.AdvanceOneCycle()
	assert.Equal(t, 1, res.Transmitted)

	node := sim.Node(0)
	assert.False(t, node.IsActive())
	assert.Equal(t, 0.0, node.DutyCycle())

	readings := sim.BaseStation().Readings()
	require.Len(t, readings, 1)
	assert.Equal(t, 0.2, readings[0].DutyCycle)
	assert.Equal(t, 20, readings[0].DutyCyclePercent())
	require.Len(t, vis.transmissions, 1)
	assert.Equal(t, 0.2, vis.transmissions[0].DutyCycle)
}

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
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/fieldsense/wsn-sim/energy"
	"github.com/fieldsense/wsn-sim/logger"
	"github.com/fieldsense/wsn-sim/prng"
	"github.com/fieldsense/wsn-sim/progctx"
	"github.com/fieldsense/wsn-sim/report"
	. "github.com/fieldsense/wsn-sim/types"
	"github.com/fieldsense/wsn-sim/visualize"
)

// Simulation is the clock of the sensor network. It owns the nodes and the base station and is driven
// one cycle at a time, either by AdvanceOneCycle or by the Run host loop. All node state is only
// touched from the goroutine that drives the simulation; other goroutines use PostAsync.
type Simulation struct {
	Started        chan struct{}
	ctx            *progctx.ProgCtx
	cfg            *Config
	nodes          map[NodeId]*SensorNode
	bs             *BaseStation
	vis            visualize.Visualizer
	energyAnalyser *energy.EnergyAnalyser
	kpiMgr         *KpiManager
	randSources    map[NodeId]prng.RandSource

	state    SimState
	reason   CompletionReason
	cycle    int
	last     CycleResult
	running  bool
	closed   bool
	done     chan struct{}
	taskChan chan func()
	stopChan chan struct{}
}

// NewSimulation creates the base station and the nodes described by cfg. randSources optionally
// overrides the random source of individual nodes; nodes not in it draw from the prng root seed.
func NewSimulation(ctx *progctx.ProgCtx, cfg *Config, vis visualize.Visualizer, metrics *Metrics,
	randSources map[NodeId]prng.RandSource) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = progctx.New(context.Background())
	}
	if vis == nil {
		vis = visualize.NewNopVisualizer()
	}

	s := &Simulation{
		Started:        make(chan struct{}),
		ctx:            ctx,
		cfg:            cfg,
		nodes:          map[NodeId]*SensorNode{},
		bs:             NewBaseStation(cfg.BaseStationPos),
		vis:            vis,
		energyAnalyser: energy.NewEnergyAnalyser(),
		kpiMgr:         NewKpiManager(metrics),
		randSources:    randSources,
		state:          SimIdle,
		done:           make(chan struct{}),
		taskChan:       make(chan func(), 100),
		stopChan:       make(chan struct{}, 1),
	}
	s.kpiMgr.Init(s)
	s.vis.SetController(NewSimulationController(s))

	for _, nc := range cfg.NodeConfigs() {
		nc := nc
		if _, err := s.AddNode(&nc); err != nil {
			return nil, err
		}
	}
	s.vis.SetStatus(visualize.StatusIdle)
	return s, nil
}

// AddNode creates a node from cfg. A negative cfg.ID picks the lowest free id.
func (s *Simulation) AddNode(cfg *NodeConfig) (*SensorNode, error) {
	if s.state == SimCompleted {
		return nil, errors.Errorf("cannot add node to a completed simulation")
	}
	nodeid := cfg.ID
	if nodeid < 0 {
		nodeid = s.genNodeId()
	}
	if s.nodes[nodeid] != nil {
		return nil, errors.Wrapf(errNodeExists, "node %d", nodeid)
	}

	nc := *cfg
	nc.ID = nodeid
	node, err := NewSensorNode(&nc, s.randSources[nodeid])
	if err != nil {
		return nil, err
	}
	s.nodes[nodeid] = node
	s.energyAnalyser.AddNode(nodeid, node.Battery())
	s.vis.AddNode(node.Snapshot())
	return node, nil
}

func (s *Simulation) genNodeId() NodeId {
	nodeid := 0
	for s.nodes[nodeid] != nil {
		nodeid++
	}
	return nodeid
}

// AdvanceOneCycle runs a single cycle: every active node, in id order, senses and, if it got a value,
// transmits it to the base station. Once the simulation is completed the last result is returned
// without any further change.
func (s *Simulation) AdvanceOneCycle() CycleResult {
	if s.state == SimCompleted {
		return s.last
	}
	if s.state == SimIdle {
		s.state = SimRunning
		s.kpiMgr.Start()
	}

	s.cycle++
	if s.cycle > s.cfg.MaxCycles {
		s.cycle = s.cfg.MaxCycles
		return s.complete(CompletedCycleLimit, CycleResult{Cycle: s.cycle})
	}

	res := CycleResult{Cycle: s.cycle, State: SimRunning}
	s.vis.AdvanceCycle(s.cycle, s.cfg.MaxCycles)
	s.vis.SetStatus(visualize.CycleStatus(s.cycle, s.cfg.MaxCycles))

	s.VisitNodesInOrder(func(node *SensorNode) {
		if node.IsActive() {
			s.processNode(node, &res)
		}
	})

	s.energyAnalyser.StoreNetworkEnergy(s.cycle, s.Snapshots())
	s.vis.UpdateNodesEnergy(s.energyAnalyser.GetLatestBatteryOfNodes(), s.cycle)
	s.kpiMgr.onCycle()
	logger.Debugf("cycle %d: readings=%d transmitted=%d failed=%d skipped=%d", res.Cycle, res.Readings,
		res.Transmitted, res.Failed, res.Skipped)

	if res.Readings == 0 {
		return s.complete(CompletedDepleted, res)
	}
	s.last = res
	return res
}

func (s *Simulation) processNode(node *SensorNode, res *CycleResult) {
	before := node.Battery()
	value, ok := node.Sense()
	afterSense := node.Battery()

	activity := energy.ActivityIdle
	if !ok {
		res.Skipped++
		s.kpiMgr.onSkipped(node)
	} else {
		res.Readings++
		s.kpiMgr.onSensed(node)
		// the reading carries the duty cycle it was sensed at, before transmit costs apply
		dutyCycle := node.DutyCycle()
		if node.Transmit(s.bs) {
			res.Transmitted++
			activity = energy.ActivityTransmitted
			reading := s.bs.Receive(node.Id, node.DataType(), value, dutyCycle)
			s.kpiMgr.onTransmit(node, true)
			s.vis.OnTransmission(node.Snapshot(), reading)
		} else {
			res.Failed++
			activity = energy.ActivityFailed
			s.kpiMgr.onTransmit(node, false)
			s.vis.SetStatus(visualize.TransmitFailedStatus(node.Id))
		}
	}

	if !node.IsActive() {
		activity = energy.ActivityDepleted
		s.vis.OnNodeDepleted(node.Id)
	}
	s.energyAnalyser.Consume(node.Id, s.cycle, activity, before-afterSense, afterSense-node.Battery())
}

func (s *Simulation) complete(reason CompletionReason, res CycleResult) CycleResult {
	s.state = SimCompleted
	s.reason = reason
	res.State = SimCompleted
	res.Reason = reason
	s.last = res

	switch reason {
	case CompletedDepleted:
		s.vis.SetStatus(visualize.StatusDepleted)
	case CompletedStopped:
		s.vis.SetStatus(visualize.StatusStopped)
	default:
		s.vis.SetStatus(visualize.StatusCompleted)
	}
	logger.Notef("simulation completed after %d cycles: %s", s.cycle, reason)

	s.kpiMgr.Stop()
	s.vis.OnCompleted(s.Report().Summary().String())
	close(s.done)
	return res
}

// Run calls AdvanceOneCycle until the simulation is completed, ctx is done or Stop is called, waiting
// CycleInterval between cycles. Posted tasks are executed while waiting.
func (s *Simulation) Run(ctx context.Context) CycleResult {
	if s.running {
		logger.Warnf("simulation is already running")
		return s.last
	}
	if s.state == SimCompleted {
		return s.last
	}
	s.running = true
	s.vis.SetStatus(visualize.StatusRunning)
	defer func() {
		s.running = false
		if s.state != SimCompleted {
			s.vis.SetStatus(visualize.StatusPaused)
		}
	}()

	select {
	case <-s.stopChan:
	default:
	}

	for ctx.Err() == nil {
		res := s.AdvanceOneCycle()
		if res.Completed() || !s.waitCycleInterval(ctx) {
			return res
		}
	}
	return s.last
}

// waitCycleInterval returns false if the run must end.
func (s *Simulation) waitCycleInterval(ctx context.Context) bool {
	var timeout <-chan time.Time
	if s.cfg.CycleInterval > 0 {
		timer := time.NewTimer(s.cfg.CycleInterval)
		defer timer.Stop()
		timeout = timer.C
	}

	s.handleTasks()
	for {
		select {
		case <-s.stopChan:
			logger.Infof("simulation paused at cycle %d", s.cycle)
			return false
		case <-ctx.Done():
			return false
		default:
		}
		if timeout == nil {
			return true
		}

		select {
		case <-timeout:
			return true
		case f := <-s.taskChan:
			s.runTask(f)
		case <-s.stopChan:
			logger.Infof("simulation paused at cycle %d", s.cycle)
			return false
		case <-ctx.Done():
			return false
		}
	}
}

// Stop ends a Run at the next cycle boundary. It may be called from any goroutine.
func (s *Simulation) Stop() {
	select {
	case s.stopChan <- struct{}{}:
	default:
	}
}

// Serve executes posted tasks in the current goroutine until the program context is done.
func (s *Simulation) Serve() {
	s.ctx.WaitAdd("simulation", 1)
	defer s.ctx.WaitDone("simulation")
	defer logger.Debugf("simulation exit.")

	close(s.Started)
	if s.cfg.AutoRun {
		s.Run(s.ctx)
	}

	done := s.ctx.Done()
	for {
		select {
		case f := <-s.taskChan:
			s.runTask(f)
		case <-done:
			return
		}
	}
}

// PostAsync queues f for execution on the simulation goroutine and reports whether it was accepted.
// Trivial tasks are dropped if the queue is full; other tasks are only refused once the program exits.
func (s *Simulation) PostAsync(trivial bool, f func()) bool {
	if trivial {
		select {
		case s.taskChan <- f:
			return true
		default:
			return false
		}
	}
	select {
	case s.taskChan <- f:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *Simulation) handleTasks() {
	for {
		select {
		case f := <-s.taskChan:
			s.runTask(f)
		default:
			return
		}
	}
}

func (s *Simulation) runTask(f func()) {
	defer func() {
		if err := recover(); err != nil {
			logger.Errorf("simulation task failed: %+v", err)
		}
	}()
	f()
}

// Close ends an unfinished simulation with reason CompletedStopped.
func (s *Simulation) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.state != SimCompleted {
		s.complete(CompletedStopped, CycleResult{Cycle: s.cycle})
	}
}

// Done is closed when the simulation reaches SimCompleted.
func (s *Simulation) Done() <-chan struct{} {
	return s.done
}

func (s *Simulation) State() SimState {
	return s.state
}

func (s *Simulation) Reason() CompletionReason {
	return s.reason
}

// Cycle returns the number of the last cycle executed.
func (s *Simulation) Cycle() int {
	return s.cycle
}

func (s *Simulation) MaxCycles() int {
	return s.cfg.MaxCycles
}

func (s *Simulation) LastResult() CycleResult {
	return s.last
}

func (s *Simulation) IsRunning() bool {
	return s.running
}

func (s *Simulation) Config() *Config {
	return s.cfg
}

func (s *Simulation) BaseStation() *BaseStation {
	return s.bs
}

func (s *Simulation) EnergyAnalyser() *energy.EnergyAnalyser {
	return s.energyAnalyser
}

func (s *Simulation) KpiManager() *KpiManager {
	return s.kpiMgr
}

func (s *Simulation) Nodes() map[NodeId]*SensorNode {
	return s.nodes
}

func (s *Simulation) Node(id NodeId) *SensorNode {
	return s.nodes[id]
}

// GetNodes returns a sorted array of NodeIds.
func (s *Simulation) GetNodes() []NodeId {
	keys := make([]NodeId, 0, len(s.nodes))
	for key := range s.nodes {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	return keys
}

func (s *Simulation) VisitNodesInOrder(cb func(node *SensorNode)) {
	for _, nodeid := range s.GetNodes() {
		cb(s.nodes[nodeid])
	}
}

// Snapshots returns the state of all nodes, ordered by id.
func (s *Simulation) Snapshots() []NodeSnapshot {
	res := make([]NodeSnapshot, 0, len(s.nodes))
	s.VisitNodesInOrder(func(node *SensorNode) {
		res = append(res, node.Snapshot())
	})
	return res
}

// Report returns a report generator over the readings collected so far.
func (s *Simulation) Report() *report.Generator {
	return report.NewGenerator(s.bs.Readings(), s.Snapshots())
}

func (s *Simulation) SetVisualizer(vis visualize.Visualizer) {
	logger.AssertNotNil(vis)
	s.vis = vis
	vis.SetController(NewSimulationController(s))
	s.VisitNodesInOrder(func(node *SensorNode) {
		vis.AddNode(node.Snapshot())
	})
}

func (s *Simulation) SetTitle(title string) {
	s.energyAnalyser.SetTitle(title)
}

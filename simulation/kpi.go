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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fieldsense/wsn-sim/logger"
	. "github.com/fieldsense/wsn-sim/types"
)

// Metrics are the prometheus collectors of a simulation run.
type Metrics struct {
	cycles        prometheus.Counter
	readings      *prometheus.CounterVec
	transmissions *prometheus.CounterVec
	skipped       prometheus.Counter
	battery       *prometheus.GaugeVec
	dutyCycle     *prometheus.GaugeVec
	activeNodes   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg, if not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wsnsim",
			Name:      "cycles_total",
			Help:      "Number of simulation cycles executed.",
		}),
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wsnsim",
			Name:      "readings_total",
			Help:      "Number of values sensed, by data type.",
		}, []string{"data_type"}),
		transmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wsnsim",
			Name:      "transmissions_total",
			Help:      "Number of transmission attempts to the base station, by result.",
		}, []string{"result"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wsnsim",
			Name:      "skipped_total",
			Help:      "Number of node-cycles without a reading (asleep or duty-cycle skip).",
		}),
		battery: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "wsnsim",
			Name:      "node_battery_percent",
			Help:      "Remaining battery of a node.",
		}, []string{"node"}),
		dutyCycle: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "wsnsim",
			Name:      "node_duty_cycle",
			Help:      "Current duty cycle of a node.",
		}, []string{"node"}),
		activeNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wsnsim",
			Name:      "active_nodes",
			Help:      "Number of nodes that still have battery.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.cycles, m.readings, m.transmissions, m.skipped, m.battery, m.dutyCycle, m.activeNodes)
	}
	return m
}

type nodeCounters struct {
	readings uint64
	txFailed uint64
	skipped  uint64
}

// KpiManager keeps the key performance indicators of a simulation run, exposes them as prometheus
// metrics and saves them as a JSON file.
type KpiManager struct {
	sim       *Simulation
	data      *Kpi
	metrics   *Metrics
	counters  map[NodeId]*nodeCounters
	isRunning bool
}

// NewKpiManager creates a new KPI manager/bookkeeper. A nil metrics disables the prometheus collectors.
func NewKpiManager(metrics *Metrics) *KpiManager {
	return &KpiManager{metrics: metrics}
}

// Init inits the KPI manager for the given simulation.
func (km *KpiManager) Init(sim *Simulation) {
	logger.AssertNil(km.sim)
	logger.AssertFalse(km.isRunning)
	km.sim = sim
	km.data = &Kpi{
		RunId:  uuid.NewString(),
		Status: "ok",
		Nodes:  make(map[NodeId]KpiNode),
	}
	km.counters = make(map[NodeId]*nodeCounters)
}

func (km *KpiManager) Start() {
	logger.AssertNotNil(km.sim)
	km.isRunning = true
	logger.Debugf("KPI collection started, run id %s", km.data.RunId)
}

// Stop ends collection and writes the default KPI file.
func (km *KpiManager) Stop() {
	if !km.isRunning {
		return
	}
	km.isRunning = false
	km.calculateKpis()
	if err := km.SaveDefaultFile(); err != nil {
		logger.Errorf("%v", err)
	}
}

func (km *KpiManager) IsRunning() bool {
	return km.isRunning
}

func (km *KpiManager) RunId() string {
	return km.data.RunId
}

// Data returns the KPIs calculated up to now.
func (km *KpiManager) Data() Kpi {
	km.calculateKpis()
	return *km.data
}

func (km *KpiManager) onSensed(node *SensorNode) {
	km.nodeCounters(node.Id).readings++
	if km.metrics != nil {
		km.metrics.readings.WithLabelValues(string(node.DataType())).Inc()
	}
}

func (km *KpiManager) onSkipped(node *SensorNode) {
	km.nodeCounters(node.Id).skipped++
	if km.metrics != nil {
		km.metrics.skipped.Inc()
	}
}

func (km *KpiManager) onTransmit(node *SensorNode, ok bool) {
	km.data.Transmissions.Attempted++
	result := "success"
	if ok {
		km.data.Transmissions.Succeeded++
	} else {
		km.data.Transmissions.Failed++
		km.nodeCounters(node.Id).txFailed++
		result = "failed"
	}
	if km.metrics != nil {
		km.metrics.transmissions.WithLabelValues(result).Inc()
	}
}

func (km *KpiManager) onCycle() {
	if km.metrics == nil {
		return
	}
	km.metrics.cycles.Inc()
	active := 0
	km.sim.VisitNodesInOrder(func(node *SensorNode) {
		label := strconv.Itoa(node.Id)
		km.metrics.battery.WithLabelValues(label).Set(node.Battery())
		km.metrics.dutyCycle.WithLabelValues(label).Set(node.DutyCycle())
		if node.IsActive() {
			active++
		}
	})
	km.metrics.activeNodes.Set(float64(active))
}

func (km *KpiManager) nodeCounters(id NodeId) *nodeCounters {
	c, ok := km.counters[id]
	if !ok {
		c = &nodeCounters{}
		km.counters[id] = c
	}
	return c
}

func (km *KpiManager) calculateKpis() {
	sim := km.sim
	km.data.Cycles = KpiCycles{Executed: sim.Cycle(), Max: sim.cfg.MaxCycles}
	km.data.Readings = sim.bs.Len()
	km.data.Reason = sim.reason.String()
	if sim.state != SimCompleted {
		km.data.Status = "'reason' not final due to interrupted simulation"
	} else {
		km.data.Status = "ok"
	}

	tx := &km.data.Transmissions
	tx.SuccessPercent = 0
	if tx.Attempted > 0 {
		tx.SuccessPercent = 100.0 * float64(tx.Succeeded) / float64(tx.Attempted)
	}

	sim.VisitNodesInOrder(func(node *SensorNode) {
		c := km.nodeCounters(node.Id)
		kn := KpiNode{
			DataType:  node.DataType(),
			Battery:   node.Battery(),
			DutyCycle: node.DutyCycle(),
			Active:    node.IsActive(),
			Readings:  c.readings,
			TxFailed:  c.txFailed,
			Skipped:   c.skipped,
		}
		if ne := sim.energyAnalyser.GetNode(node.Id); ne != nil {
			kn.DepletedCycle = ne.DepletedCycle()
		}
		km.data.Nodes[node.Id] = kn
	})
}

func (km *KpiManager) SaveDefaultFile() error {
	return km.SaveFile(km.getDefaultSaveFileName())
}

func (km *KpiManager) SaveFile(fn string) error {
	logger.AssertNotNil(km.sim)
	km.calculateKpis()
	km.data.FileTime = time.Now().Format(time.RFC3339)

	data, err := json.MarshalIndent(km.data, "", "    ")
	if err != nil {
		return errors.Wrap(err, "marshal KPI data")
	}
	if dir := filepath.Dir(fn); dir != "" {
		if err = os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	if err = os.WriteFile(fn, data, 0644); err != nil {
		return errors.Wrapf(err, "write KPI file %s", fn)
	}
	logger.Debugf("KPI file saved: %s", fn)
	return nil
}

func (km *KpiManager) getDefaultSaveFileName() string {
	return filepath.Join(km.sim.cfg.OutputDir, fmt.Sprintf("%d_kpi.json", km.sim.cfg.Id))
}

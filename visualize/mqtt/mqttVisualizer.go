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

package visualize_mqtt

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"github.com/fieldsense/wsn-sim/energy"
	"github.com/fieldsense/wsn-sim/logger"
	. "github.com/fieldsense/wsn-sim/types"
	"github.com/fieldsense/wsn-sim/visualize"
)

type message struct {
	topic   string
	payload []byte
}

type readingMessage struct {
	NodeId    NodeId  `json:"node_id"`
	Timestamp string  `json:"timestamp"`
	DataType  string  `json:"data_type"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	DutyCycle int     `json:"duty_cycle"`
	Battery   float64 `json:"battery"`
}

type energyMessage struct {
	Cycle int                  `json:"cycle"`
	Nodes []energy.NodeBattery `json:"nodes"`
}

// mqttVisualizer forwards received readings and status changes to an MQTT broker and accepts
// run/stop/step commands on the control topic.
type mqttVisualizer struct {
	cfg  *Config
	pub  Publisher
	cb   *gobreaker.CircuitBreaker
	ctrl visualize.SimulationController

	queue   chan message
	done    chan struct{}
	started bool
	stopped bool
	sync.Mutex
}

// NewMqttVisualizer connects to the broker in cfg and returns the uplink Visualizer.
func NewMqttVisualizer(cfg *Config) (visualize.Visualizer, error) {
	pub, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	return newMqttVisualizer(cfg, pub), nil
}

func newMqttVisualizer(cfg *Config, pub Publisher) *mqttVisualizer {
	failures := cfg.BreakerFailures
	if failures < 1 {
		failures = 1
	}
	queueSize := cfg.QueueSize
	if queueSize < 1 {
		queueSize = 1
	}
	mv := &mqttVisualizer{
		cfg:   cfg,
		pub:   pub,
		queue: make(chan message, queueSize),
		done:  make(chan struct{}),
	}
	mv.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "mqtt-uplink",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(failures)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warnf("%s circuit breaker: %s -> %s", name, from, to)
		},
	})
	return mv
}

func (mv *mqttVisualizer) topic(parts ...string) string {
	return strings.Join(append([]string{mv.cfg.TopicPrefix}, parts...), "/")
}

func (mv *mqttVisualizer) Init() {
	mv.Lock()
	defer mv.Unlock()

	if mv.started {
		return
	}
	mv.started = true
	go mv.publishRoutine()

	if err := mv.pub.Subscribe(mv.topic("control"), mv.onControl); err != nil {
		logger.Errorf("MQTT control topic disabled: %v", err)
	}
}

func (mv *mqttVisualizer) Run() {
	// publishing runs in its own goroutine since Init
}

// Stop flushes the queued messages and closes the connection.
func (mv *mqttVisualizer) Stop() {
	mv.Lock()
	if mv.stopped {
		mv.Unlock()
		return
	}
	mv.stopped = true
	close(mv.queue)
	started := mv.started
	mv.Unlock()

	if started {
		<-mv.done
	}
	mv.pub.Close()
}

func (mv *mqttVisualizer) SetController(ctrl visualize.SimulationController) {
	mv.Lock()
	defer mv.Unlock()
	mv.ctrl = ctrl
}

func (mv *mqttVisualizer) AddNode(NodeSnapshot) {
}

func (mv *mqttVisualizer) AdvanceCycle(int, int) {
}

func (mv *mqttVisualizer) OnTransmission(node NodeSnapshot, reading Reading) {
	msg := readingMessage{
		NodeId:    reading.NodeId,
		Timestamp: reading.Timestamp.Format(time.RFC3339),
		DataType:  reading.DataType.String(),
		Value:     reading.Value,
		Unit:      reading.DataType.Unit(),
		DutyCycle: reading.DutyCyclePercent(),
		Battery:   node.Battery,
	}
	mv.enqueueJson(mv.topic("readings", strconv.Itoa(node.Id)), msg)
}

func (mv *mqttVisualizer) SetStatus(text string) {
	mv.enqueue(mv.topic("status"), []byte(text))
}

func (mv *mqttVisualizer) OnNodeDepleted(nodeid NodeId) {
	mv.enqueue(mv.topic("depleted"), []byte(strconv.Itoa(nodeid)))
}

func (mv *mqttVisualizer) UpdateNodesEnergy(batteries []energy.NodeBattery, cycle int) {
	mv.enqueueJson(mv.topic("energy"), energyMessage{Cycle: cycle, Nodes: batteries})
}

func (mv *mqttVisualizer) OnCompleted(summary string) {
	mv.enqueue(mv.topic("summary"), []byte(summary))
}

func (mv *mqttVisualizer) enqueueJson(topic string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("MQTT message for %s dropped: %v", topic, err)
		return
	}
	mv.enqueue(topic, data)
}

// enqueue never blocks the caller; messages are dropped when the queue is full.
func (mv *mqttVisualizer) enqueue(topic string, payload []byte) {
	mv.Lock()
	defer mv.Unlock()

	if mv.stopped {
		return
	}
	select {
	case mv.queue <- message{topic: topic, payload: payload}:
	default:
		logger.Warnf("MQTT queue full, message for %s dropped", topic)
	}
}

func (mv *mqttVisualizer) publishRoutine() {
	defer close(mv.done)

	for msg := range mv.queue {
		if err := mv.publish(msg); err != nil {
			logger.Debugf("MQTT publish %s failed: %v", msg.topic, err)
		}
	}
}

func (mv *mqttVisualizer) publish(msg message) error {
	_, err := mv.cb.Execute(func() (interface{}, error) {
		return nil, mv.pub.Publish(msg.topic, msg.payload)
	})
	return err
}

func (mv *mqttVisualizer) onControl(topic string, payload []byte) {
	mv.Lock()
	ctrl := mv.ctrl
	mv.Unlock()

	if ctrl == nil {
		logger.Warnf("MQTT control command ignored: no controller")
		return
	}
	if err := runControlCommand(ctrl, string(payload)); err != nil {
		logger.Errorf("MQTT control command %q failed: %v", payload, err)
	}
}

// runControlCommand executes one of: run, stop, step [n].
func runControlCommand(ctrl visualize.SimulationController, cmd string) error {
	fields := strings.Fields(strings.ToLower(cmd))
	if len(fields) == 0 {
		return errors.Errorf("empty command")
	}

	switch fields[0] {
	case "run":
		return ctrl.CtrlRun()
	case "stop":
		return ctrl.CtrlStop()
	case "step":
		n := 1
		if len(fields) > 1 {
			var err error
			if n, err = strconv.Atoi(fields[1]); err != nil {
				return errors.Wrapf(err, "invalid step count %q", fields[1])
			}
		}
		return ctrl.CtrlStep(n)
	default:
		return errors.Errorf("unknown command: %s", fields[0])
	}
}

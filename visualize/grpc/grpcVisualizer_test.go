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

package visualize_grpc

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/fieldsense/wsn-sim/energy"
	. "github.com/fieldsense/wsn-sim/types"
	"github.com/fieldsense/wsn-sim/visualize"
	"github.com/fieldsense/wsn-sim/visualize/grpc/replay"
)

func startBufconn(t *testing.T, gv *grpcVisualizer) *StatusClient {
	lis := bufconn.Listen(1 << 20)
	go func() {
		_ = gv.server.serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return NewStatusClient(ctx, conn)
}

func TestGrpcVisualizerHealthStatus(t *testing.T) {
	gv, err := newGrpcVisualizer("", "")
	require.NoError(t, err)
	sc := startBufconn(t, gv)
	defer gv.Stop()

	running, err := sc.IsRunning()
	require.NoError(t, err)
	assert.False(t, running)

	gv.AddNode(NodeSnapshot{Id: 0, Battery: 100, Active: true, DataType: Moisture})
	gv.AdvanceCycle(1, 5)
	running, err = sc.IsRunning()
	require.NoError(t, err)
	assert.False(t, running, "a single step is not a run")

	gv.SetStatus(visualize.StatusRunning)
	gv.AdvanceCycle(2, 5)
	running, err = sc.IsRunning()
	require.NoError(t, err)
	assert.True(t, running)
	require.NoError(t, sc.WaitRunning(true))

	// a run ended by 'stop' leaves the simulation paused
	gv.SetStatus(visualize.StatusPaused)
	running, err = sc.IsRunning()
	require.NoError(t, err)
	assert.False(t, running)

	gv.SetStatus(visualize.StatusRunning)
	gv.AdvanceCycle(3, 5)
	gv.OnCompleted("Total Data Points Collected: 1")
	running, err = sc.IsRunning()
	require.NoError(t, err)
	assert.False(t, running)
	require.NoError(t, sc.WaitRunning(false))
}

func TestGrpcVisualizerReplay(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "run.replay")
	gv, err := newGrpcVisualizer("", fn)
	require.NoError(t, err)

	node := NodeSnapshot{Id: 2, Pos: Position{X: 70, Y: 50}, Battery: 100, Active: true, DataType: Humidity}
	gv.AddNode(node)
	gv.AdvanceCycle(1, 5)
	gv.AdvanceCycle(1, 5)
	node.Battery = 99.93
	gv.OnTransmission(node, Reading{NodeId: 2, DataType: Humidity, Value: 55.5, DutyCycle: 0.5})
	gv.SetStatus("Cycle 1/5")
	gv.UpdateNodesEnergy([]energy.NodeBattery{{NodeId: 2, Battery: 99.93, DutyCycle: 0.5, Active: true}}, 1)
	gv.OnNodeDepleted(2)
	gv.OnCompleted("done")
	gv.Stop()

	entries, err := replay.ReadReplay(fn)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, replay.EventName(e))
	}
	assert.Equal(t, []string{"add_node", "advance_cycle", "transmission", "status", "energy", "node_depleted",
		"completed"}, names)

	tx := entries[2].GetFields()
	assert.Equal(t, 55.5, tx["value"].GetNumberValue())
	assert.Equal(t, "%", tx["unit"].GetStringValue())
	assert.Equal(t, "Node 2: Humidity 55.5% (100%)", tx["label"].GetStringValue())

	done := entries[6].GetFields()
	assert.Equal(t, 0.0, done["active_nodes"].GetNumberValue())
	assert.Equal(t, 1.0, done["cycle"].GetNumberValue())
}

func TestGrpcField(t *testing.T) {
	f := newGrpcField()
	assert.False(t, f.isRunning())
	f.addNode(NodeSnapshot{Id: 1, Active: true})
	f.onTransmission(NodeSnapshot{Id: 3, Active: true}, Reading{NodeId: 3, Value: 7})
	assert.Len(t, f.nodes, 2)
	assert.Equal(t, 1, f.nodes[3].readings)
	assert.Equal(t, 7.0, f.nodes[3].lastValue)

	assert.True(t, f.advanceCycle(1, 5))
	assert.False(t, f.advanceCycle(1, 5))
	assert.False(t, f.isRunning())
	f.setStatus(visualize.StatusRunning)
	assert.True(t, f.isRunning())
	f.setStatus("Cycle 1/5")
	assert.True(t, f.isRunning())
	assert.Equal(t, "Cycle 1/5", f.status)
	f.setStatus(visualize.StatusPaused)
	assert.False(t, f.isRunning())
	f.setStatus(visualize.StatusRunning)
	f.onNodeDepleted(1)
	assert.Equal(t, 1, f.activeNodes())
	f.completed = true
	assert.False(t, f.isRunning())
}

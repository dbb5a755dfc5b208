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

package wsnsim_main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsense/wsn-sim/progctx"
	"github.com/fieldsense/wsn-sim/report"
	"github.com/fieldsense/wsn-sim/simulation"
)

func TestParseArgsDefaults(t *testing.T) {
	args, err := parseArgs(nil)
	require.NoError(t, err)

	assert.Equal(t, simulation.DefaultMaxCycles, args.MaxCycles)
	assert.Equal(t, simulation.DefaultNodeCount, args.NodeCount)
	assert.Equal(t, simulation.DefaultCycleInterval, args.CycleInterval)
	assert.Equal(t, DefaultGrpcAddr, args.GrpcAddr)
	assert.True(t, args.AutoRun)
	assert.False(t, args.Batch)
	assert.Empty(t, args.set)
}

func TestParseArgs(t *testing.T) {
	args, err := parseArgs([]string{"-cycles", "10", "-interval", "500ms", "-seed", "42", "-autorun=false", "-batch"})
	require.NoError(t, err)

	assert.Equal(t, 10, args.MaxCycles)
	assert.Equal(t, 500*time.Millisecond, args.CycleInterval)
	assert.Equal(t, int64(42), args.Seed)
	assert.True(t, args.AutoRun, "batch mode always runs")
	assert.True(t, args.set["cycles"])
	assert.False(t, args.set["nodes"])

	_, err = parseArgs([]string{"extra"})
	assert.Error(t, err)
	_, err = parseArgs([]string{"-no-such-flag"})
	assert.Error(t, err)
}

func TestCreateConfig(t *testing.T) {
	args, err := parseArgs([]string{"-cycles", "10", "-nodes", "3", "-comm-range", "50", "-readonly"})
	require.NoError(t, err)

	cfg, err := createConfig(args)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MaxCycles)
	assert.Equal(t, 3, cfg.NodeCount)
	assert.Equal(t, 50.0, cfg.CommRange)
	assert.True(t, cfg.ReadOnly)
	assert.Len(t, cfg.NodeConfigs(), 3)

	args, err = parseArgs([]string{"-cycles", "0"})
	require.NoError(t, err)
	_, err = createConfig(args)
	assert.Error(t, err)
}

func TestCreateConfigNetworkFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "field.yaml")
	require.NoError(t, os.WriteFile(fn, []byte(`
network:
  max-cycles: 7
nodes:
  - id: 1
    type: ph
    pos: [10, 10]
  - id: 3
    type: light
    pos: [20, 10]
`), 0644))

	args, err := parseArgs([]string{"-cycles", "10", "-config", fn})
	require.NoError(t, err)
	cfg, err := createConfig(args)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.MaxCycles)
	require.Len(t, cfg.Nodes, 2)
	assert.Equal(t, 3, cfg.Nodes[1].ID)

	args, err = parseArgs([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	require.NoError(t, err)
	_, err = createConfig(args)
	assert.Error(t, err)
}

func TestMainBatch(t *testing.T) {
	dir := t.TempDir()
	ctx := progctx.New(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Main(ctx, []string{"-batch", "-interval", "0", "-grpc", "", "-seed", "7", "-log", "off",
			"-output", dir}, nil)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		ctx.Cancel("test timeout")
		t.Fatal("batch run did not finish")
	}

	rows, err := report.LoadCSV(filepath.Join(dir, simulation.DefaultExportFile))
	require.NoError(t, err)
	assert.NotEmpty(t, rows)

	for _, fn := range []string{"0_kpi.json", "0_stats.csv", "0.replay", filepath.Join("energy_results", "0_energy.txt")} {
		assert.FileExists(t, filepath.Join(dir, fn))
	}
}

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
	"math"
	"time"

	"github.com/pkg/errors"

	. "github.com/fieldsense/wsn-sim/types"
)

const (
	DefaultNodeCount     = 5
	DefaultFieldWidth    = 100.0
	DefaultFieldHeight   = 100.0
	DefaultMaxCycles     = 5
	DefaultLayoutRadius  = 20.0
	DefaultCycleInterval = 2 * time.Second
	DefaultExportFile    = "wsn_data.csv"
	DefaultOutputDir     = "tmp"
)

type Config struct {
	Id             int
	NodeCount      int
	FieldWidth     float64
	FieldHeight    float64
	BaseStationPos Position
	CommRange      float64
	MaxCycles      int
	CycleInterval  time.Duration
	Seed           int64
	OutputDir      string
	ExportFile     string
	LayoutRadius   float64
	AutoRun        bool
	ReadOnly       bool
	NewNodeConfig  NodeConfig

	// Nodes, when not empty, replaces the default circular layout.
	Nodes []NodeConfig
}

func DefaultConfig() *Config {
	return &Config{
		NodeCount:      DefaultNodeCount,
		FieldWidth:     DefaultFieldWidth,
		FieldHeight:    DefaultFieldHeight,
		BaseStationPos: Position{X: DefaultFieldWidth / 2, Y: DefaultFieldHeight / 2},
		CommRange:      DefaultCommRange,
		MaxCycles:      DefaultMaxCycles,
		CycleInterval:  DefaultCycleInterval,
		OutputDir:      DefaultOutputDir,
		ExportFile:     DefaultExportFile,
		LayoutRadius:   DefaultLayoutRadius,
		NewNodeConfig:  DefaultNodeConfig(),
	}
}

// Validate checks the externally supplied constants before a simulation is built.
func (cfg *Config) Validate() error {
	if cfg.MaxCycles <= 0 {
		return errors.Errorf("max cycles must be positive, got %d", cfg.MaxCycles)
	}
	if cfg.FieldWidth <= 0 || cfg.FieldHeight <= 0 {
		return errors.Errorf("invalid field size %vx%v", cfg.FieldWidth, cfg.FieldHeight)
	}
	if cfg.CommRange <= 0 {
		return errors.Errorf("comm range must be positive, got %v", cfg.CommRange)
	}
	if cfg.CycleInterval < 0 {
		return errors.Errorf("cycle interval must not be negative")
	}
	if len(cfg.Nodes) == 0 && cfg.NodeCount <= 0 {
		return errors.Errorf("node count must be positive, got %d", cfg.NodeCount)
	}
	return nil
}

// NodeConfigs returns the configs of the nodes to create: the explicit Nodes list if given, otherwise
// NodeCount nodes evenly spaced on a circle of LayoutRadius around the base station, with data types
// assigned round-robin.
func (cfg *Config) NodeConfigs() []NodeConfig {
	if len(cfg.Nodes) > 0 {
		res := make([]NodeConfig, len(cfg.Nodes))
		copy(res, cfg.Nodes)
		return res
	}

	res := make([]NodeConfig, 0, cfg.NodeCount)
	for i := 0; i < cfg.NodeCount; i++ {
		angle := 2 * math.Pi * float64(i) / float64(cfg.NodeCount)
		nc := cfg.NewNodeConfig
		nc.ID = i
		nc.DataType = AllDataTypes[i%len(AllDataTypes)]
		nc.Pos = Position{
			X: cfg.BaseStationPos.X + cfg.LayoutRadius*math.Cos(angle),
			Y: cfg.BaseStationPos.Y + cfg.LayoutRadius*math.Sin(angle),
		}
		nc.IsAutoPlaced = true
		nc.CommRange = cfg.CommRange
		res = append(res, nc)
	}
	return res
}

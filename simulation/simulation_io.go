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
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fieldsense/wsn-sim/logger"
	. "github.com/fieldsense/wsn-sim/types"
)

// YamlNetworkConfig is the 'network' section of a network file.
type YamlNetworkConfig struct {
	FieldSize   *[2]float64 `yaml:"field-size,flow,omitempty"`
	BaseStation *Position   `yaml:"base-station,omitempty"`
	CommRange   *float64    `yaml:"comm-range,omitempty"`
	MaxCycles   *int        `yaml:"max-cycles,omitempty"`
	Seed        *int64      `yaml:"seed,omitempty"`
	PosShift    [2]float64  `yaml:"pos-shift,flow"`
}

// YamlNodeConfig is one entry of the 'nodes' section of a network file.
type YamlNodeConfig struct {
	ID        int        `yaml:"id"`
	Type      string     `yaml:"type"`
	Position  [2]float64 `yaml:"pos,flow"`
	CommRange *float64   `yaml:"comm-range,omitempty"`
	Battery   *float64   `yaml:"battery,omitempty"`
}

type YamlConfigFile struct {
	NetworkConfig YamlNetworkConfig `yaml:"network"`
	NodesList     []YamlNodeConfig  `yaml:"nodes"`
}

// LoadConfigFile reads a YAML network file and applies it to cfg.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read network file")
	}
	if err = ApplyConfigYaml(data, cfg); err != nil {
		return errors.Wrapf(err, "network file %s", path)
	}
	logger.Infof("network file %s loaded: %d nodes", path, len(cfg.Nodes))
	return nil
}

// ApplyConfigYaml applies the YAML network description to cfg. Settings missing from the YAML keep
// their value in cfg. A non-empty node list replaces the default layout.
func ApplyConfigYaml(data []byte, cfg *Config) error {
	var file YamlConfigFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return errors.Wrap(err, "parse YAML")
	}

	nw := file.NetworkConfig
	if nw.FieldSize != nil {
		cfg.FieldWidth, cfg.FieldHeight = nw.FieldSize[0], nw.FieldSize[1]
		cfg.BaseStationPos = Position{X: cfg.FieldWidth / 2, Y: cfg.FieldHeight / 2}
	}
	if nw.BaseStation != nil {
		cfg.BaseStationPos = *nw.BaseStation
	}
	if nw.CommRange != nil {
		cfg.CommRange = *nw.CommRange
	}
	if nw.MaxCycles != nil {
		cfg.MaxCycles = *nw.MaxCycles
	}
	if nw.Seed != nil {
		cfg.Seed = *nw.Seed
	}

	if len(file.NodesList) == 0 {
		return nil
	}
	seen := make(map[NodeId]bool, len(file.NodesList))
	cfg.Nodes = nil
	for _, yn := range file.NodesList {
		if seen[yn.ID] {
			return errors.Errorf("duplicate node id %d", yn.ID)
		}
		seen[yn.ID] = true

		dt, err := ParseDataType(yn.Type)
		if err != nil {
			return errors.Wrapf(err, "node %d", yn.ID)
		}
		nc := cfg.NewNodeConfig
		nc.ID = yn.ID
		nc.DataType = dt
		nc.IsAutoPlaced = false
		nc.Pos = Position{X: yn.Position[0] + nw.PosShift[0], Y: yn.Position[1] + nw.PosShift[1]}
		nc.CommRange = cfg.CommRange
		if yn.CommRange != nil {
			nc.CommRange = *yn.CommRange
		}
		if yn.Battery != nil {
			nc.Battery = *yn.Battery
		}
		cfg.Nodes = append(cfg.Nodes, nc)
	}
	cfg.NodeCount = len(cfg.Nodes)
	return nil
}

// ExportNetwork exports the network settings to a YAML-friendly object.
func (s *Simulation) ExportNetwork() YamlNetworkConfig {
	fieldSize := [2]float64{s.cfg.FieldWidth, s.cfg.FieldHeight}
	bs := s.bs.Pos
	commRange := s.cfg.CommRange
	maxCycles := s.cfg.MaxCycles
	res := YamlNetworkConfig{
		FieldSize:   &fieldSize,
		BaseStation: &bs,
		CommRange:   &commRange,
		MaxCycles:   &maxCycles,
	}
	if s.cfg.Seed != 0 {
		seed := s.cfg.Seed
		res.Seed = &seed
	}
	return res
}

// ExportNodes exports config/position info of all nodes to a YAML-friendly object. The comm range is
// only included where it differs from the network's.
func (s *Simulation) ExportNodes(nwConfig *YamlNetworkConfig) []YamlNodeConfig {
	res := make([]YamlNodeConfig, 0, len(s.nodes))
	s.VisitNodesInOrder(func(node *SensorNode) {
		var rr *float64
		if nwConfig.CommRange == nil || node.CommRange() != *nwConfig.CommRange {
			cr := node.CommRange()
			rr = &cr
		}
		battery := node.Battery()
		res = append(res, YamlNodeConfig{
			ID:        node.Id,
			Type:      node.DataType().String(),
			Position:  [2]float64{node.Position().X, node.Position().Y},
			CommRange: rr,
			Battery:   &battery,
		})
	})
	return res
}

// SaveConfigFile writes the current network, including remaining battery levels, as a YAML network file.
func (s *Simulation) SaveConfigFile(path string) error {
	nw := s.ExportNetwork()
	file := YamlConfigFile{
		NetworkConfig: nw,
		NodesList:     s.ExportNodes(&nw),
	}
	data, err := yaml.Marshal(&file)
	if err != nil {
		return errors.Wrap(err, "marshal network file")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "write %s", path)
}

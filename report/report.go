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

// Package report turns the readings collected by the base station into the CSV export and the run summary,
// and reads exports back for the field dashboard.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/fieldsense/wsn-sim/logger"
	. "github.com/fieldsense/wsn-sim/types"
)

const (
	TimestampFormat = "2006-01-02 15:04:05"
	SummaryLast     = 5
)

var Header = []string{"NodeID", "Timestamp", "DataType", "Value", "Unit", "DutyCycle"}

// Generator builds reports over a fixed set of readings. It never changes its inputs.
type Generator struct {
	readings []Reading
	nodes    []NodeSnapshot
}

func NewGenerator(readings []Reading, nodes []NodeSnapshot) *Generator {
	g := &Generator{
		readings: make([]Reading, len(readings)),
		nodes:    make([]NodeSnapshot, len(nodes)),
	}
	copy(g.readings, readings)
	copy(g.nodes, nodes)
	return g
}

// Record formats one reading as an export row.
func Record(r Reading) []string {
	return []string{
		strconv.Itoa(r.NodeId),
		r.Timestamp.Format(TimestampFormat),
		r.DataType.String(),
		strconv.FormatFloat(r.Value, 'f', 1, 64),
		r.DataType.Unit(),
		fmt.Sprintf("%d%%", r.DutyCyclePercent()),
	}
}

// WriteCSV writes the header and one row per reading, in arrival order.
func (g *Generator) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return errors.Wrap(err, "write CSV header")
	}
	for _, r := range g.readings {
		if err := cw.Write(Record(r)); err != nil {
			return errors.Wrapf(err, "write CSV row for node %d", r.NodeId)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush CSV")
}

// SaveCSV writes the export to path, replacing any existing file.
func (g *Generator) SaveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err = g.WriteCSV(f); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "close %s", path)
	}
	logger.Infof("exported %d readings to %s", len(g.readings), path)
	return nil
}

type Summary struct {
	Total     int
	Inactive  int
	NodeCount int
	Last      []Reading
}

// Summary counts readings and dead nodes and keeps the last few readings in arrival order.
func (g *Generator) Summary() Summary {
	s := Summary{
		Total:     len(g.readings),
		NodeCount: len(g.nodes),
	}
	for _, n := range g.nodes {
		if !n.Active {
			s.Inactive++
		}
	}
	start := len(g.readings) - SummaryLast
	if start < 0 {
		start = 0
	}
	s.Last = append([]Reading(nil), g.readings[start:]...)
	return s
}

func (s Summary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Total Data Points Collected: %d\n", s.Total)
	fmt.Fprintf(&sb, "Dead Nodes: %d/%d\n\n", s.Inactive, s.NodeCount)
	sb.WriteString("Last 5 Data Points:\n")
	for _, r := range s.Last {
		fmt.Fprintf(&sb, "Node %d at %s:\n", r.NodeId, r.Timestamp.Format(TimestampFormat))
		fmt.Fprintf(&sb, "  %s: %.1f%s\n", r.DataType.Title(), r.Value, r.DataType.Unit())
	}
	return sb.String()
}

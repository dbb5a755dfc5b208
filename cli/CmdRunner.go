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

package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fieldsense/wsn-sim/logger"
	"github.com/fieldsense/wsn-sim/progctx"
	"github.com/fieldsense/wsn-sim/report"
	"github.com/fieldsense/wsn-sim/simulation"
	. "github.com/fieldsense/wsn-sim/types"
)

const (
	Prompt = "> "
)

type CommandContext struct {
	context.Context
	*Command
	rt              *CmdRunner
	err             error
	output          io.Writer
	isBackgroundCmd bool
}

func (cc *CommandContext) outputStr(msg string) {
	_, _ = fmt.Fprint(cc.output, msg)
}

func (cc *CommandContext) outputf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cc.output, format, args...)
}

func (cc *CommandContext) errorf(format string, args ...interface{}) {
	cc.error(errors.Errorf(format, args...))
}

func (cc *CommandContext) error(err error) {
	if err != nil {
		if cc.err != nil { // if previous error, print it now and keep the last.
			cc.outputf("Error: %s\n", cc.err)
		}
		cc.err = err
	}
}

// Err returns the last error that occurred during command execution.
func (cc *CommandContext) Err() error {
	return cc.err
}

func (cc *CommandContext) outputItemsAsYaml(items interface{}) {
	var itemsYaml yaml.Node

	err := itemsYaml.Encode(items)
	logger.PanicIfError(err)

	for _, content := range itemsYaml.Content {
		content.Style = yaml.FlowStyle
	}

	data, err := yaml.Marshal(&itemsYaml)
	logger.PanicIfError(err)

	_, err = cc.output.Write(data)
	logger.PanicIfError(err)
}

// nodeItem is one entry of the 'nodes' listing.
type nodeItem struct {
	Id          NodeId     `yaml:"id"`
	Type        DataType   `yaml:"type"`
	Pos         [2]float64 `yaml:"pos,flow"`
	Battery     float64    `yaml:"battery"`
	DutyCycle   float64    `yaml:"duty-cycle"`
	Active      bool       `yaml:"active"`
	SleepCycles int        `yaml:"sleep"`
	LastReading *float64   `yaml:"last,omitempty"`
}

type CmdRunner struct {
	sim  *simulation.Simulation
	ctx  *progctx.ProgCtx
	help Help
}

func NewCmdRunner(ctx *progctx.ProgCtx, sim *simulation.Simulation) *CmdRunner {
	return &CmdRunner{
		ctx:  ctx,
		sim:  sim,
		help: newHelp(),
	}
}

func (rt *CmdRunner) RunCommand(cmdline string, output io.Writer) error {
	if rt.ctx.Err() == nil {
		cmd := Command{}

		if err := parseBytes([]byte(cmdline), &cmd); err != nil {
			if _, err := fmt.Fprintf(output, "Error: %v\n", err); err != nil {
				return err
			}
		} else {
			rt.execute(&cmd, output)
		}
	}
	return rt.ctx.Err()
}

func (rt *CmdRunner) HandleCommand(cmdline string, output io.Writer) error {
	return rt.RunCommand(cmdline, output)
}

// Commands returns the console commands, for tab completion.
func (rt *CmdRunner) Commands() []string {
	return rt.help.Commands()
}

func (rt *CmdRunner) GetPrompt() string {
	return Prompt
}

func (rt *CmdRunner) execute(cmd *Command, output io.Writer) {
	cc := &CommandContext{
		Context:         rt.ctx,
		Command:         cmd,
		rt:              rt,
		output:          output,
		isBackgroundCmd: isBackgroundCommand(cmd),
	}

	defer func() {
		if cc.Err() != nil {
			cc.outputf("Error: %v\n", cc.Err())
		} else if !cc.isBackgroundCmd {
			cc.outputf("Done\n")
		} else {
			cc.outputf("Started\n")
		}
	}()

	defer func() {
		rerr := recover()

		if rerr != nil {
			if err, ok := rerr.(error); ok {
				cc.err = errors.Wrapf(err, "panic: %v", err)
			} else {
				cc.err = errors.Errorf("panic: %v", rerr)
			}
		}
	}()

	if cmd.Step != nil {
		rt.executeStep(cc, cmd.Step)
	} else if cmd.Run != nil {
		rt.executeRun(cc, cmd.Run)
	} else if cmd.Stop != nil {
		rt.executeStop(cc, cmd.Stop)
	} else if cmd.Status != nil {
		rt.executeStatus(cc, cmd.Status)
	} else if cmd.Nodes != nil {
		rt.executeLsNodes(cc, cmd.Nodes)
	} else if cmd.Node != nil {
		rt.executeNode(cc, cmd.Node)
	} else if cmd.Summary != nil {
		rt.executeSummary(cc, cmd.Summary)
	} else if cmd.Export != nil {
		rt.executeExport(cc, cmd.Export)
	} else if cmd.Save != nil {
		rt.executeSave(cc, cmd.Save)
	} else if cmd.Latest != nil {
		rt.executeLatest(cc, cmd.Latest)
	} else if cmd.Energy != nil {
		rt.executeEnergy(cc, cmd.Energy)
	} else if cmd.LogLevel != nil {
		rt.executeLogLevel(cc, cmd.LogLevel)
	} else if cmd.Help != nil {
		rt.executeHelp(cc, cmd.Help)
	} else if cmd.Exit != nil {
		rt.executeExit(cc, cmd.Exit)
	} else {
		logger.Panicf("unimplemented command: %#v", cmd)
	}
}

func (rt *CmdRunner) postAsyncWait(cc *CommandContext, f func(sim *simulation.Simulation)) {
	done := make(chan struct{})
	if rt.sim.PostAsync(false, func() {
		defer close(done) // even if f() fails execution, 'done' should be closed.
		f(rt.sim)         // executing task (later) may set cc.err status if error occurs.
	}) {
		select {
		case <-done:
		case <-rt.ctx.Done():
			cc.error(simulation.CommandInterruptedError)
		}
	} else {
		cc.error(simulation.CommandInterruptedError) // report cc error if not accepted.
	}
}

func (rt *CmdRunner) executeStep(cc *CommandContext, cmd *StepCmd) {
	cycles := 1
	if cmd.Cycles != nil {
		cycles = *cmd.Cycles
	}
	if cycles <= 0 {
		cc.errorf("invalid number of cycles: %d", cycles)
		return
	}

	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		if sim.IsRunning() {
			cc.errorf("simulation is running, use 'stop' first")
			return
		}
		if sim.State() == SimCompleted {
			cc.errorf("simulation completed (%s)", sim.Reason())
			return
		}
		for i := 0; i < cycles; i++ {
			res := sim.AdvanceOneCycle()
			cc.outputf("Cycle %d: readings=%d transmitted=%d failed=%d skipped=%d\n", res.Cycle, res.Readings,
				res.Transmitted, res.Failed, res.Skipped)
			if res.Completed() {
				cc.outputf("Simulation completed: %s\n", res.Reason)
				break
			}
		}
	})
}

func (rt *CmdRunner) executeRun(cc *CommandContext, cmd *RunCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		if sim.IsRunning() {
			cc.errorf("simulation is already running")
			return
		}
		if sim.State() == SimCompleted {
			cc.errorf("simulation completed (%s)", sim.Reason())
			return
		}
		if !sim.PostAsync(false, func() {
			sim.Run(rt.ctx)
		}) {
			cc.error(simulation.CommandInterruptedError)
		}
	})
}

func (rt *CmdRunner) executeStop(cc *CommandContext, cmd *StopCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		if !sim.IsRunning() {
			cc.errorf("simulation is not running")
			return
		}
		sim.Stop()
	})
}

func (rt *CmdRunner) executeStatus(cc *CommandContext, cmd *StatusCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		active := 0
		sim.VisitNodesInOrder(func(node *simulation.SensorNode) {
			if node.IsActive() {
				active++
			}
		})
		cc.outputf("state=%s cycle=%d/%d readings=%d active=%d/%d", sim.State(), sim.Cycle(), sim.MaxCycles(),
			sim.BaseStation().Len(), active, len(sim.Nodes()))
		if sim.State() == SimCompleted {
			cc.outputf(" reason=%s", sim.Reason())
		}
		cc.outputf("\n")
	})
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func (rt *CmdRunner) executeLsNodes(cc *CommandContext, cmd *NodesCmd) {
	var items []nodeItem
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		sim.VisitNodesInOrder(func(node *simulation.SensorNode) {
			snap := node.Snapshot()
			items = append(items, nodeItem{
				Id:          snap.Id,
				Type:        snap.DataType,
				Pos:         [2]float64{snap.Pos.X, snap.Pos.Y},
				Battery:     roundTo(snap.Battery, 2),
				DutyCycle:   snap.DutyCycle,
				Active:      snap.Active,
				SleepCycles: node.SleepCycles(),
				LastReading: snap.LastReading,
			})
		})
	})
	if cc.Err() == nil && len(items) > 0 {
		cc.outputItemsAsYaml(items)
	}
}

func (rt *CmdRunner) executeNode(cc *CommandContext, cmd *NodeCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		node := sim.Node(cmd.Node.Id)
		if node == nil {
			cc.errorf("node %v not found", &cmd.Node)
			return
		}
		last := "-"
		if v, ok := node.LastReading(); ok {
			last = fmt.Sprintf("%.1f", v)
		}
		pos := node.Position()
		cc.outputf("id=%d type=%s pos=(%.1f, %.1f) battery=%.2f duty=%d%% active=%v sleep=%d last=%s range=%.0f\n",
			node.Id, node.DataType(), pos.X, pos.Y, node.Battery(), int(node.DutyCycle()*100+0.5), node.IsActive(),
			node.SleepCycles(), last, node.CommRange())
	})
}

func (rt *CmdRunner) executeSummary(cc *CommandContext, cmd *SummaryCmd) {
	var gen *report.Generator
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		gen = sim.Report()
	})
	if gen != nil {
		cc.outputStr(gen.Summary().String())
	}
}

func (rt *CmdRunner) exportPath(file *string) string {
	cfg := rt.sim.Config()
	if file == nil || *file == "" {
		return filepath.Join(cfg.OutputDir, cfg.ExportFile)
	}
	return *file
}

func (rt *CmdRunner) executeExport(cc *CommandContext, cmd *ExportCmd) {
	var gen *report.Generator
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		gen = sim.Report()
	})
	if gen == nil {
		return
	}

	path := rt.exportPath(cmd.File)
	if err := gen.SaveCSV(path); err != nil {
		cc.error(err)
		return
	}
	cc.outputf("Exported %d readings to %s\n", gen.Summary().Total, path)
}

func (rt *CmdRunner) executeSave(cc *CommandContext, cmd *SaveCmd) {
	cfg := rt.sim.Config()
	path := filepath.Join(cfg.OutputDir, fmt.Sprintf("%d_network.yaml", cfg.Id))
	if cmd.File != nil && *cmd.File != "" {
		path = *cmd.File
	}
	nodes := 0
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		if err := sim.SaveConfigFile(path); err != nil {
			cc.error(err)
			return
		}
		nodes = len(sim.GetNodes())
	})
	if cc.Err() == nil {
		cc.outputf("Saved %d nodes to %s\n", nodes, path)
	}
}

func (rt *CmdRunner) executeLatest(cc *CommandContext, cmd *LatestCmd) {
	path := rt.exportPath(cmd.File)
	rows, err := report.LoadCSV(path)
	if err != nil {
		cc.error(err)
		return
	}
	cc.outputStr(report.FormatLatest(report.LatestByType(rows)))
}

func (rt *CmdRunner) executeEnergy(cc *CommandContext, energy *EnergyCmd) {
	if energy.Save != nil {
		rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
			cc.error(sim.EnergyAnalyser().SaveEnergyDataToFile(sim.Config().OutputDir, energy.Name))
		})
	} else {
		cc.outputf("energy <command>\n")
		cc.outputf("\tsave [output name]\n")
	}
}

func (rt *CmdRunner) executeLogLevel(cc *CommandContext, cmd *LogLevelCmd) {
	if cmd.Level == "" {
		cc.outputf("%v\n", logger.GetLevelString(logger.GetLevel()))
		return
	}
	level, err := logger.ParseLevelString(cmd.Level)
	if err != nil {
		cc.error(err)
		return
	}
	logger.SetLevel(level)
}

func (rt *CmdRunner) executeHelp(cc *CommandContext, cmd *HelpCmd) {
	if len(cmd.HelpTopic) > 0 {
		cc.outputStr(rt.help.outputCommandHelp(strings.ToLower(cmd.HelpTopic)))
	} else {
		cc.outputStr(rt.help.outputGeneralHelp())
	}
}

func (rt *CmdRunner) executeExit(cc *CommandContext, cmd *ExitCmd) {
	rt.sim.Stop()
	rt.ctx.Cancel("exit")
}

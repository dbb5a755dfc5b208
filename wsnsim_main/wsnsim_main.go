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
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldsense/wsn-sim/cli"
	"github.com/fieldsense/wsn-sim/logger"
	"github.com/fieldsense/wsn-sim/prng"
	"github.com/fieldsense/wsn-sim/progctx"
	"github.com/fieldsense/wsn-sim/simulation"
	"github.com/fieldsense/wsn-sim/visualize"
	visualizeGrpc "github.com/fieldsense/wsn-sim/visualize/grpc"
	visualizeMqtt "github.com/fieldsense/wsn-sim/visualize/mqtt"
	visualizeMulti "github.com/fieldsense/wsn-sim/visualize/multi"
	visualizeStatslog "github.com/fieldsense/wsn-sim/visualize/statslog"
)

const (
	DefaultGrpcAddr = "localhost:8999"
	DefaultLogLevel = "warn"
)

type MainArgs struct {
	Seed          int64
	MaxCycles     int
	CycleInterval time.Duration
	NodeCount     int
	CommRange     float64
	ConfigFile    string
	OutputDir     string
	ExportFile    string
	LogLevel      string
	AutoRun       bool
	ReadOnly      bool
	Batch         bool
	MetricsAddr   string
	GrpcAddr      string
	NoReplay      bool
	NoStatsLog    bool
	MqttBroker    string
	MqttTopic     string
	HistoryFile   string

	// flags given explicitly on the command line
	set map[string]bool
}

func parseArgs(argv []string) (*MainArgs, error) {
	args := &MainArgs{set: map[string]bool{}}
	defaults := simulation.DefaultConfig()

	fs := flag.NewFlagSet("wsnsim", flag.ContinueOnError)
	fs.Int64Var(&args.Seed, "seed", 0, "random seed; 0 picks a time-based seed")
	fs.IntVar(&args.MaxCycles, "cycles", defaults.MaxCycles, "number of cycles to simulate")
	fs.DurationVar(&args.CycleInterval, "interval", defaults.CycleInterval, "wall-clock wait between cycles while running")
	fs.IntVar(&args.NodeCount, "nodes", defaults.NodeCount, "number of auto-placed sensor nodes")
	fs.Float64Var(&args.CommRange, "comm-range", defaults.CommRange, "radio range of the nodes")
	fs.StringVar(&args.ConfigFile, "config", "", "YAML network file; its settings take precedence over flags")
	fs.StringVar(&args.OutputDir, "output", defaults.OutputDir, "directory for exported and generated files")
	fs.StringVar(&args.ExportFile, "export", defaults.ExportFile, "name of the CSV export in the output directory")
	fs.StringVar(&args.LogLevel, "log", DefaultLogLevel, "set logging level: trace, debug, info, note, warn, error, off")
	fs.BoolVar(&args.AutoRun, "autorun", true, "start running the cycles without a 'run' command")
	fs.BoolVar(&args.ReadOnly, "readonly", false, "readonly simulation can not be controlled remotely")
	fs.BoolVar(&args.Batch, "batch", false, "no console; exit once the simulation is completed")
	fs.StringVar(&args.MetricsAddr, "metrics", "", "serve prometheus metrics at this address, e.g. :9100")
	fs.StringVar(&args.GrpcAddr, "grpc", DefaultGrpcAddr, "gRPC health status address; empty disables it")
	fs.BoolVar(&args.NoReplay, "no-replay", false, "do not generate a replay file")
	fs.BoolVar(&args.NoStatsLog, "no-stats", false, "do not generate the per-cycle stats CSV log")
	fs.StringVar(&args.MqttBroker, "mqtt", "", "MQTT broker URL for the readings uplink, e.g. tcp://localhost:1883")
	fs.StringVar(&args.MqttTopic, "mqtt-topic", visualizeMqtt.DefaultConfig().TopicPrefix, "MQTT topic prefix")
	fs.StringVar(&args.HistoryFile, "history", "", "console history file")

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, errors.Errorf("unexpected arguments: %v", fs.Args())
	}
	fs.Visit(func(f *flag.Flag) {
		args.set[f.Name] = true
	})
	if args.Batch {
		args.AutoRun = true
	}
	return args, nil
}

// createConfig builds the simulation config from defaults, flags and the network file, in that order.
func createConfig(args *MainArgs) (*simulation.Config, error) {
	cfg := simulation.DefaultConfig()
	cfg.Seed = args.Seed
	cfg.MaxCycles = args.MaxCycles
	cfg.CycleInterval = args.CycleInterval
	cfg.NodeCount = args.NodeCount
	cfg.CommRange = args.CommRange
	cfg.OutputDir = args.OutputDir
	cfg.ExportFile = args.ExportFile
	cfg.AutoRun = args.AutoRun
	cfg.ReadOnly = args.ReadOnly

	if args.ConfigFile != "" {
		if err := simulation.LoadConfigFile(args.ConfigFile, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Main(ctx *progctx.ProgCtx, argv []string, cliOptions *cli.CliOptions) error {
	args, err := parseArgs(argv)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	} else if err != nil {
		return err
	}
	level, err := logger.ParseLevelString(args.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	cfg, err := createConfig(args)
	if err != nil {
		return err
	}
	prng.Init(cfg.Seed)
	if err = os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return errors.Wrapf(err, "create output directory")
	}

	if !args.Batch {
		ctx.Defer(func() {
			_ = os.Stdin.Close()
		})
	}
	reg := prometheus.NewRegistry()
	if args.MetricsAddr != "" {
		serveMetrics(ctx, args.MetricsAddr, reg)
	}
	handleSignals(ctx)

	sim, err := simulation.NewSimulation(ctx, cfg, nil, simulation.NewMetrics(reg), nil)
	if err != nil {
		return err
	}
	sim.SetTitle(fmt.Sprintf("%d_energy", cfg.Id))
	vis := createVisualizer(args, cfg)
	vis.Init()
	sim.SetVisualizer(vis)

	serveDone := make(chan struct{})
	go func() {
		defer close(serveDone)
		sim.Serve()
	}()

	if args.Batch {
		go func() {
			select {
			case <-sim.Done():
				ctx.Cancel("simulation completed")
			case <-ctx.Done():
			}
		}()
	} else {
		options := cliOptions
		if options == nil {
			options = cli.DefaultCliOptions()
		}
		if options.HistoryFile == "" {
			options.HistoryFile = args.HistoryFile
		}
		logger.SetStdoutCallback(cli.Cli)
		go func() {
			err := cli.Cli.Run(cli.NewCmdRunner(ctx, sim), options)
			ctx.Cancel(errors.Wrapf(err, "console exit"))
		}()
	}

	ctx.WaitAdd("visualizer", 1)
	go func() {
		defer ctx.WaitDone("visualizer")
		vis.Run()
	}()

	<-serveDone
	// the simulation goroutine has exited; results are collected from here on
	sim.Close()
	saveResults(sim)
	if args.Batch {
		fmt.Println(sim.Report().Summary().String())
	}
	vis.Stop()

	logger.Debugf("waiting for the simulator to stop gracefully ...")
	ctx.Wait()
	return nil
}

func createVisualizer(args *MainArgs, cfg *simulation.Config) visualize.Visualizer {
	var vs []visualize.Visualizer

	replayFn := ""
	if !args.NoReplay {
		replayFn = filepath.Join(cfg.OutputDir, fmt.Sprintf("%d.replay", cfg.Id))
	}
	if args.GrpcAddr != "" || replayFn != "" {
		gv, err := visualizeGrpc.NewGrpcVisualizer(args.GrpcAddr, replayFn)
		if err != nil {
			logger.Errorf("gRPC visualizer disabled: %v", err)
		} else {
			vs = append(vs, gv)
		}
	}
	if !args.NoStatsLog {
		vs = append(vs, visualizeStatslog.NewStatslogVisualizer(cfg.OutputDir, cfg.Id))
	}
	if args.MqttBroker != "" {
		mcfg := visualizeMqtt.DefaultConfig()
		mcfg.Broker = args.MqttBroker
		mcfg.TopicPrefix = args.MqttTopic
		mv, err := visualizeMqtt.NewMqttVisualizer(mcfg)
		if err != nil {
			logger.Errorf("MQTT uplink disabled: %v", err)
		} else {
			vs = append(vs, mv)
		}
	}
	return visualizeMulti.NewMultiVisualizer(vs...)
}

func serveMetrics(ctx *progctx.ProgCtx, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	ctx.Defer(func() {
		_ = srv.Close()
	})

	ctx.WaitAdd("metrics", 1)
	go func() {
		defer ctx.WaitDone("metrics")
		logger.Infof("serving metrics at http://%s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server stopped unexpectedly: %v", err)
		}
	}()
}

func saveResults(sim *simulation.Simulation) {
	cfg := sim.Config()

	fn := filepath.Join(cfg.OutputDir, cfg.ExportFile)
	if err := sim.Report().SaveCSV(fn); err != nil {
		logger.Errorf("export failed: %v", err)
	} else {
		logger.Infof("exported %d readings to %s", sim.BaseStation().Len(), fn)
	}
	if err := sim.KpiManager().SaveDefaultFile(); err != nil {
		logger.Errorf("saving KPI file failed: %v", err)
	}
	if err := sim.EnergyAnalyser().SaveEnergyDataToFile(cfg.OutputDir, ""); err != nil {
		logger.Errorf("saving energy data failed: %v", err)
	}
}

func handleSignals(ctx *progctx.ProgCtx) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)

	ctx.WaitAdd("handleSignals", 1)
	go func() {
		defer logger.Debugf("handleSignals exit.")
		defer ctx.WaitDone("handleSignals")
		defer signal.Stop(c)

		for {
			select {
			case sig := <-c:
				logger.Infof("signal received: %v", sig)
				ctx.Cancel(nil)
			case <-ctx.Done():
				return
			}
		}
	}()
}

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

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fieldsense/wsn-sim/logger"
	"github.com/fieldsense/wsn-sim/visualize/grpc/replay"
)

var args struct {
	ReplayFile string
	Event      string
	Json       bool
	Realtime   bool
}

func parseArgs() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <wsnsim_replay_file.replay>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  Prints the events of a prior simulation based on a .replay file.\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&args.Event, "event", "", "only print events with this name, e.g. transmission")
	flag.BoolVar(&args.Json, "json", false, "print the events as JSON lines")
	flag.BoolVar(&args.Realtime, "realtime", false, "print the events paced by their recorded timestamps")
	flag.Parse()

	if len(flag.Args()) != 1 {
		flag.Usage()
		os.Exit(1)
	}

	args.ReplayFile = flag.Arg(0)
}

func main() {
	parseArgs()
	logger.SetLevel(logger.InfoLevel)

	entries, err := replay.ReadReplay(args.ReplayFile)
	logger.FatalIfError(err)

	var sleep func(time.Duration)
	if args.Realtime {
		sleep = time.Sleep
	}
	err = printReplay(os.Stdout, entries, args.Event, args.Json, sleep)
	logger.FatalIfError(err)
}

// printReplay writes the entries matching event (all if empty). If sleep is not nil, it is called with the
// recorded time between consecutive printed entries.
func printReplay(w io.Writer, entries []*structpb.Struct, event string, asJson bool, sleep func(time.Duration)) error {
	var lastTs float64
	printed := 0
	for i, entry := range entries {
		if event != "" && replay.EventName(entry) != event {
			continue
		}
		ts := entry.GetFields()[replay.TimestampKey].GetNumberValue()
		if sleep != nil && printed > 0 && ts > lastTs {
			sleep(time.Duration(ts-lastTs) * time.Microsecond)
		}
		lastTs = ts

		var line string
		if asJson {
			data, err := protojson.Marshal(entry)
			if err != nil {
				return errors.Wrapf(err, "replay entry %d", i)
			}
			line = string(data)
		} else {
			line = formatEntry(entry)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return errors.WithStack(err)
		}
		printed++
	}
	return nil
}

// formatEntry renders an entry as '<seconds> <event> key=value ...' with the keys sorted.
func formatEntry(entry *structpb.Struct) string {
	fields := entry.GetFields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == replay.EventKey || k == replay.TimestampKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	ts := fields[replay.TimestampKey].GetNumberValue()
	fmt.Fprintf(&sb, "%10.6f %-14s", ts/1e6, replay.EventName(entry))
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%s", k, formatValue(fields[k]))
	}
	return strings.TrimRight(sb.String(), " ")
}

func formatValue(v *structpb.Value) string {
	switch v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return fmt.Sprintf("%q", v.GetStringValue())
	case *structpb.Value_NumberValue:
		return fmt.Sprintf("%g", v.GetNumberValue())
	case *structpb.Value_BoolValue:
		return fmt.Sprintf("%v", v.GetBoolValue())
	default:
		data, err := protojson.Marshal(v)
		if err != nil {
			return "?"
		}
		return string(data)
	}
}

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
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/fieldsense/wsn-sim/logger"
	visualizeGrpc "github.com/fieldsense/wsn-sim/visualize/grpc"
	"github.com/fieldsense/wsn-sim/wsnsim_main"
)

var args struct {
	Addr    string
	Wait    string
	Timeout time.Duration
}

func parseArgs() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  Prints whether a simulator is running cycles, or waits until it is.\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&args.Addr, "addr", wsnsim_main.DefaultGrpcAddr, "gRPC status address of the simulator")
	flag.StringVar(&args.Wait, "wait", "", "wait until the status is 'running' or 'idle'")
	flag.DurationVar(&args.Timeout, "timeout", time.Minute, "give up after this duration")
	flag.Parse()
}

func main() {
	parseArgs()

	ctx, cancel := context.WithTimeout(context.Background(), args.Timeout)
	defer cancel()

	conn, err := grpc.NewClient(args.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	logger.FatalIfError(err)
	defer conn.Close()

	err = queryStatus(visualizeGrpc.NewStatusClient(ctx, conn), args.Wait, os.Stdout)
	logger.FatalIfError(err)
}

func statusText(running bool) string {
	if running {
		return "running"
	}
	return "idle"
}

// queryStatus prints the current status. With wait set, it first blocks until the status is reached.
func queryStatus(sc *visualizeGrpc.StatusClient, wait string, w io.Writer) error {
	switch wait {
	case "":
	case "running", "idle":
		if err := sc.WaitRunning(wait == "running"); err != nil {
			return err
		}
	default:
		return errors.Errorf("invalid wait status %q, expected 'running' or 'idle'", wait)
	}

	running, err := sc.IsRunning()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, statusText(running))
	return errors.WithStack(err)
}

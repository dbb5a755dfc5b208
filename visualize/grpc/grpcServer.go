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
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/fieldsense/wsn-sim/logger"
)

// ServiceName is the health service name whose status follows the simulation run.
const ServiceName = "wsnsim"

type grpcServer struct {
	server  *grpc.Server
	health  *health.Server
	address string
}

// Run listens on the configured address and serves until stop is called.
func (gs *grpcServer) Run() error {
	if gs.address == "" {
		return nil
	}
	lis, err := net.Listen("tcp", gs.address)
	if err != nil {
		return err
	}
	logger.Infof("gRPC status server serving on %s ...", lis.Addr())
	return gs.serve(lis)
}

func (gs *grpcServer) serve(lis net.Listener) error {
	return gs.server.Serve(lis)
}

func (gs *grpcServer) setRunning(running bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if running {
		status = healthpb.HealthCheckResponse_SERVING
	}
	gs.health.SetServingStatus(ServiceName, status)
}

func (gs *grpcServer) stop() {
	gs.health.Shutdown()
	gs.server.Stop()
}

func newGrpcServer(address string) *grpcServer {
	server := grpc.NewServer(grpc.ReadBufferSize(1024*8), grpc.WriteBufferSize(1024*64))
	gs := &grpcServer{
		server:  server,
		health:  health.NewServer(),
		address: address,
	}
	gs.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	gs.setRunning(false)
	healthpb.RegisterHealthServer(server, gs.health)
	return gs
}

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

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// StatusClient queries the run status published by a gRPC visualizer.
type StatusClient struct {
	ctx    context.Context
	client healthpb.HealthClient
}

// IsRunning reports whether the remote simulation is executing cycles.
func (sc *StatusClient) IsRunning() (bool, error) {
	resp, err := sc.client.Check(sc.ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return false, errors.Wrap(err, "health check")
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}

// WaitRunning blocks until the remote status equals running or the context is done.
func (sc *StatusClient) WaitRunning(running bool) error {
	stream, err := sc.client.Watch(sc.ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return errors.Wrap(err, "health watch")
	}
	for {
		resp, err := stream.Recv()
		if err != nil {
			return errors.Wrap(err, "health watch")
		}
		if (resp.GetStatus() == healthpb.HealthCheckResponse_SERVING) == running {
			return nil
		}
	}
}

func NewStatusClient(ctx context.Context, conn grpc.ClientConnInterface) *StatusClient {
	return &StatusClient{
		ctx:    ctx,
		client: healthpb.NewHealthClient(conn),
	}
}

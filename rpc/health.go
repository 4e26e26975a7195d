package rpc

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/wfunc/sketchparty/logger"
)

// ServiceName is the name reported by the health service next to the overall "" status.
const ServiceName = "sketchparty.Game"

// HealthServer serves the standard gRPC health protocol.
type HealthServer struct {
	listener net.Listener
	grpc     *grpc.Server
	health   *health.Server
}

func NewHealthServer(addr string) (*HealthServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	hs := &HealthServer{
		listener: listener,
		grpc:     grpc.NewServer(),
		health:   health.NewServer(),
	}
	healthpb.RegisterHealthServer(hs.grpc, hs.health)
	hs.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return hs, nil
}

func (hs *HealthServer) Addr() string { return hs.listener.Addr().String() }

// SetServing flips the status of ServiceName.
func (hs *HealthServer) SetServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	hs.health.SetServingStatus(ServiceName, status)
}

// Start blocks until Stop.
func (hs *HealthServer) Start() error {
	logger.Log.Infof("gRPC health server listening on %s", hs.Addr())
	return hs.grpc.Serve(hs.listener)
}

func (hs *HealthServer) Stop() {
	hs.health.Shutdown()
	hs.grpc.GracefulStop()
}

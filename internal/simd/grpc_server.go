package simd

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/logger"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "linesim.v1.SimulationService"

const (
	evaluateMethod = "/" + ServiceName + "/Evaluate"
	sweepMethod    = "/" + ServiceName + "/Sweep"
)

// SimulationServiceServer is the server API. Requests and responses are
// google.protobuf.Struct documents with the same fields as the HTTP JSON
// bodies.
type SimulationServiceServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Sweep(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// SimulationGRPCServer implements SimulationServiceServer on a Service.
type SimulationGRPCServer struct {
	service *Service
}

// NewSimulationGRPCServer creates a new SimulationGRPCServer backed by service.
func NewSimulationGRPCServer(service *Service) *SimulationGRPCServer {
	return &SimulationGRPCServer{service: service}
}

func (s *SimulationGRPCServer) Evaluate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req EvaluateRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	summary, err := s.service.Evaluate(ctx, req)
	if err != nil {
		return nil, grpcError("evaluate", req.Line, err)
	}
	return toStruct(summary)
}

// Sweep returns the full result for infeasible sweeps too; the caller
// checks the feasible field.
func (s *SimulationGRPCServer) Sweep(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SweepRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	resp, err := s.service.Sweep(ctx, req)
	if err != nil {
		return nil, grpcError("sweep", req.Line, err)
	}
	return toStruct(resp)
}

// RegisterGRPC registers the simulation service and a health server
// reporting SERVING for it.
func RegisterGRPC(gs *grpc.Server, service *Service) *health.Server {
	gs.RegisterService(&SimulationServiceDesc, NewSimulationGRPCServer(service))
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return hs
}

func grpcError(op, line string, err error) error {
	switch errorClass(err) {
	case classNotFound:
		return status.Error(codes.NotFound, err.Error())
	case classInvalid:
		return status.Error(codes.InvalidArgument, err.Error())
	case classNumeric:
		return status.Error(codes.FailedPrecondition, err.Error())
	case classCanceled:
		return status.FromContextError(err).Err()
	}
	logger.Error("gRPC request failed", "op", op, "product_line", line, "error", err)
	return status.Error(codes.Internal, err.Error())
}

// fromStruct decodes a Struct through its JSON form so both transports share
// one request schema.
func fromStruct(in *structpb.Struct, dst any) error {
	if in == nil {
		return fmt.Errorf("request is required")
	}
	data, err := in.MarshalJSON()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(data); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func _SimulationService_Evaluate_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimulationServiceServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: evaluateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SimulationServiceServer).Evaluate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _SimulationService_Sweep_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimulationServiceServer).Sweep(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: sweepMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SimulationServiceServer).Sweep(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// SimulationServiceDesc describes linesim.v1.SimulationService for
// grpc.Server.RegisterService.
var SimulationServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SimulationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: _SimulationService_Evaluate_Handler},
		{MethodName: "Sweep", Handler: _SimulationService_Sweep_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "linesim/v1/simulation.proto",
}

// SimulationClient calls SimulationService over an existing connection.
type SimulationClient struct {
	cc grpc.ClientConnInterface
}

// NewSimulationClient wraps cc.
func NewSimulationClient(cc grpc.ClientConnInterface) *SimulationClient {
	return &SimulationClient{cc: cc}
}

// Evaluate runs a batch remotely.
func (c *SimulationClient) Evaluate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, evaluateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Sweep runs a sweep remotely.
func (c *SimulationClient) Sweep(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, sweepMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

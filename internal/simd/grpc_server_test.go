package simd

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func startGRPC(t *testing.T, svc *Service) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	RegisterGRPC(gs, svc)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestGRPCEvaluate(t *testing.T) {
	client := NewSimulationClient(startGRPC(t, newTestService(t)))

	out, err := client.Evaluate(context.Background(), mustStruct(t, map[string]any{
		"line": "atta_chakki",
		"n":    1000,
		"seed": 3,
	}))
	require.NoError(t, err)

	fields := out.GetFields()
	assert.Equal(t, "atta_chakki", fields["product_line"].GetStringValue())
	assert.Equal(t, 1000.0, fields["n"].GetNumberValue())
	assert.Equal(t, 3.0, fields["seed"].GetNumberValue())
	yield := fields["yield"].GetStructValue().GetFields()
	assert.Greater(t, yield["mean"].GetNumberValue(), 0.0)
}

func TestGRPCUnseededSeedReproducesRun(t *testing.T) {
	svc := newTestService(t)
	client := NewSimulationClient(startGRPC(t, svc))

	out, err := client.Evaluate(context.Background(), mustStruct(t, map[string]any{
		"line": "atta_chakki",
		"n":    500,
	}))
	require.NoError(t, err)

	fields := out.GetFields()
	seed := uint64(fields["seed"].GetNumberValue())
	require.Equal(t, fields["seed"].GetNumberValue(), float64(seed), "seed must be an exact integer")

	again, err := svc.Evaluate(context.Background(), EvaluateRequest{Line: "atta_chakki", N: 500, Seed: &seed})
	require.NoError(t, err)
	yield := fields["yield"].GetStructValue().GetFields()
	assert.Equal(t, again.Yield.Mean, yield["mean"].GetNumberValue())
}

func TestGRPCSweepReturnsOptimum(t *testing.T) {
	client := NewSimulationClient(startGRPC(t, newTestService(t)))

	out, err := client.Sweep(context.Background(), mustStruct(t, map[string]any{
		"line": "ghee_bilona",
		"n":    2000,
		"seed": 11,
	}))
	require.NoError(t, err)

	fields := out.GetFields()
	assert.True(t, fields["feasible"].GetBoolValue())
	optimum := fields["optimum"].GetStructValue().GetFields()
	setpoint := optimum["setpoint"].GetStructValue().GetFields()
	assert.Equal(t, 13.0, setpoint["churn_temp_c"].GetNumberValue())
	assert.Len(t, fields["points"].GetListValue().GetValues(), 9)
}

func TestGRPCErrorCodes(t *testing.T) {
	client := NewSimulationClient(startGRPC(t, newTestService(t)))
	ctx := context.Background()

	_, err := client.Evaluate(ctx, mustStruct(t, map[string]any{"line": "paneer", "n": 10}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.Evaluate(ctx, mustStruct(t, map[string]any{"line": "ghee_bilona", "n": -5}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Sweep(ctx, mustStruct(t, map[string]any{"line": "ghee_bilona", "n": 10, "target": "fastest"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Evaluate(ctx, mustStruct(t, map[string]any{"line": "ghee_bilona", "n": "many"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPCHealth(t *testing.T) {
	conn := startGRPC(t, newTestService(t))
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

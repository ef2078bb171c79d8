package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/GoSim-25-26J-441/processline-sim/internal/metrics"
	"github.com/GoSim-25-26J-441/processline-sim/internal/simd"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/logger"
)

func (a *app) serveCmd() *cobra.Command {
	var (
		grpcAddr string
		httpAddr string
		maxN     int
		maxSweep int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulation engine over HTTP and gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recorder := metrics.NewRecorder(nil)
			svc, err := simd.NewService(a.registry,
				simd.WithMetrics(recorder),
				simd.WithServiceLogger(logger.Default),
				simd.WithMaxScenarios(maxN),
				simd.WithMaxSweepScenarios(maxSweep))
			if err != nil {
				return err
			}
			return serve(cmd.Context(), svc, grpcAddr, httpAddr)
		},
	}
	cmd.Flags().StringVar(&grpcAddr, "grpc-addr", ":50051", "gRPC listen address")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP listen address")
	cmd.Flags().IntVar(&maxN, "max-scenarios", simd.DefaultMaxScenarios, "largest N accepted per request")
	cmd.Flags().IntVar(&maxSweep, "max-sweep-scenarios", simd.DefaultMaxSweepScenarios, "most scenarios one sweep request may evaluate")
	return cmd
}

// serve runs both servers until ctx is cancelled, then drains them.
func serve(ctx context.Context, svc *simd.Service, grpcAddr, httpAddr string) error {
	// TODO: Configure gRPC server security (e.g., TLS, authentication, rate limiting)
	// before exposing this service outside a trusted network.
	grpcServer := grpc.NewServer()
	health := simd.RegisterGRPC(grpcServer, svc)

	grpcLis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           simd.NewHTTPServer(svc).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		// Large sweeps take a while.
		WriteTimeout:   5 * time.Minute,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("gRPC server listening", "addr", grpcLis.Addr().String())
		return grpcServer.Serve(grpcLis)
	})
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown requested")
		health.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		grpcServer.GracefulStop()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Command linesim runs Monte Carlo evaluations, setpoint sweeps and
// sensitivity analyses of food processing lines, and serves them over HTTP
// and gRPC.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Error("command failed", "error", err)
		stop()
		os.Exit(exitCode(err))
	}
}

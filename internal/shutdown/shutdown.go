// Package shutdown ties a blocking runner to SIGINT and SIGTERM.
package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// RunWithGracefulShutdown runs runner until it returns or the process is
// signalled. On a signal it cancels runner's context, calls shutdown (which
// may be nil) and waits up to timeout for runner to return.
func RunWithGracefulShutdown(
	ctx context.Context,
	logger *slog.Logger,
	timeout time.Duration,
	runner func(ctx context.Context) error,
	shutdown func(ctx context.Context) error,
) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	return run(ctx, logger, timeout, sigChan, runner, shutdown)
}

func run(
	ctx context.Context,
	logger *slog.Logger,
	timeout time.Duration,
	sigChan <-chan os.Signal,
	runner func(ctx context.Context) error,
	shutdown func(ctx context.Context) error,
) error {
	if logger == nil {
		logger = slog.Default()
	}

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	runDone := make(chan error, 1)
	go func() {
		runDone <- runner(runCtx)
	}()

	select {
	case err := <-runDone:
		return ignoreCanceled(err)
	case sig := <-sigChan:
		logger.Info("received signal, initiating shutdown", "signal", sig)
	case <-ctx.Done():
		logger.Info("context cancelled, initiating shutdown")
	}
	runCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if shutdown != nil {
		if err := shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}

	select {
	case err := <-runDone:
		logger.Info("shutdown complete")
		return ignoreCanceled(err)
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded", "timeout", timeout)
		return nil
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

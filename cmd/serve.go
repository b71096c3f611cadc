package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paulmach/orb"
	"github.com/royalcat/communityaddr/internal/telemetry"
	"github.com/royalcat/communityaddr/server"
	"github.com/urfave/cli/v3"
)

func serve(ctx *cli.Context) error {
	cfg := loadConfig(ctx)

	runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Setup(runCtx, "communityaddr", cfg.OtelEndpoint)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tel.Shutdown(shutdownCtx)
	}()

	slog.Info("Initing address assembler")
	b, err := openBackend(runCtx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			slog.Error("error closing backend", "error", err)
		}
	}()

	return server.Run(runCtx, cfg.Listen, b.assembler)
}

func assign(ctx *cli.Context) (err error) {
	cfg := loadConfig(ctx)

	b, err := openBackend(ctx.Context, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := b.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	p := orb.Point{ctx.Float64("lon"), ctx.Float64("lat")}
	addr, err := b.assembler.Assign(ctx.Context, p, ctx.String("region"))
	if err != nil {
		return err
	}

	out, err := addr.MarshalJSON()
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

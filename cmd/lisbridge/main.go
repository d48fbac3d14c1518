// Command lisbridge runs the laboratory order/result bridge: it listens for
// MLLP-framed order messages, acknowledges and queues each one, runs the
// configured inference toolchain per order, and delivers the result message
// to the downstream system.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pathdss/lisbridge/exchange"
	"github.com/pathdss/lisbridge/inference"
	"github.com/pathdss/lisbridge/logger"
	"github.com/pathdss/lisbridge/service"
)

func main() {
	configPath := flag.String("config", "lisbridge.toml", "path to the bridge configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "lisbridge: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadBridgeConfig(configPath)
	if err != nil {
		return err
	}

	logger.SetLevel(cfg.LogLevel)
	log := logger.GetLogger()

	exchCfg, err := exchange.NewConfig(cfg.ListenHost, cfg.ListenPort, cfg.RemoteHost, cfg.RemotePort,
		exchange.WithReadTimeout(cfg.ReadTimeout),
		exchange.WithWriteTimeout(cfg.WriteTimeout),
		exchange.WithConnectTimeout(cfg.ConnectTimeout),
		exchange.WithLogger(log),
	)
	if err != nil {
		return err
	}

	engine, err := inference.NewCommandEngine(cfg.InferenceCommand, cfg.InferenceArgs, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := service.New(ctx, service.Config{
		Exchange:      exchCfg,
		Retry:         cfg.retryPolicy(),
		Engine:        engine,
		WorkDir:       cfg.WorkDir,
		SweepMaxAge:   cfg.SweepMaxAge,
		SweepInterval: cfg.SweepInterval,
		Logger:        log,
	})
	if err != nil {
		return err
	}

	if err := svc.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("shutdown signal received")
	svc.Stop()

	return nil
}

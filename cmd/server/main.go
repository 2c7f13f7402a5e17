package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"github.com/RuuizOr/CiberseguridadEquipo2/infrastructure/ws"
	"github.com/RuuizOr/CiberseguridadEquipo2/internal"
	"github.com/RuuizOr/CiberseguridadEquipo2/repositories"
	"github.com/RuuizOr/CiberseguridadEquipo2/runtime"
	"github.com/RuuizOr/CiberseguridadEquipo2/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires configuration, storage, the coordination core and the transport,
// and blocks until a termination signal. Returning the error (instead of
// exiting inline) lets every defer run, closing BadgerDB cleanly.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Durable group ledger (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Coordination core
	store := repositories.NewGroupRecordRepository(db, log)
	coordinator := runtime.NewCoordinator(log, store, config.EchoGroupMessages)
	service := services.NewRelayService(coordinator)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Transport
	server := ws.NewServer(ws.Config{
		Addr:                 fmt.Sprintf("%s:%d", config.Host, config.Port),
		ConnectionBufferSize: config.ConnectionBufferSize,
		WriteTimeout:         config.WriteTimeout,
		PongTimeout:          config.PongTimeout,
		ShutdownTimeout:      config.ShutdownTimeout,
	}, service, log)

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	log.Info("Program stopped cleanly")
	return nil
}

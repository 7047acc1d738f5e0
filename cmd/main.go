package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/rmc-fleet/internal/auth"
	"github.com/ukydev/rmc-fleet/internal/config"
	"github.com/ukydev/rmc-fleet/internal/db"
	"github.com/ukydev/rmc-fleet/internal/events"
	"github.com/ukydev/rmc-fleet/internal/fleet"
	"github.com/ukydev/rmc-fleet/internal/handlers"
	"github.com/ukydev/rmc-fleet/internal/scheduler"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	cfg.ConfigureLogging()

	if err := run(cfg); err != nil {
		log.WithError(err).Fatal("RMC Fleet API stopped")
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := db.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("MongoDB disconnect failed")
		}
	}()
	log.WithField("database", cfg.Mongo.Database).Info("Connected to MongoDB")

	database := client.Database(cfg.Mongo.Database)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	store := db.NewStore(client, database, cfg.Mongo.Transactions)

	publisher, closePublisher := newPublisher(cfg.MQTT)
	defer closePublisher()

	authService := auth.NewService(cfg.Auth)
	service := fleet.NewService(fleet.Collections{
		Users:      store.Users,
		Vehicles:   store.Vehicles,
		Drivers:    store.Drivers,
		Expenses:   store.Expenses,
		Checklists: store.Checklists,
		Documents:  store.Documents,
		Tx:         store.Tx,
	}, authService, publisher)

	jobs := scheduler.New(service)
	if err := jobs.Start(cfg.Scheduler.DocumentRefresh); err != nil {
		return err
	}
	defer jobs.Stop()

	srv := newHTTPServer(cfg.Server, handlers.NewRouter(handlers.Dependencies{
		Auth:           authService,
		Users:          store.Users,
		Fleet:          service,
		CORSOrigin:     cfg.Server.CORSOrigin,
		RequestTimeout: cfg.Server.RequestTimeout,
		LoginRateLimit: cfg.Server.LoginRateLimit,
	}))

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("RMC Fleet API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func newHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// newPublisher connects to the MQTT broker when one is configured. Events are
// best effort, so a broker that cannot be reached only disables them.
func newPublisher(cfg config.MQTTConfig) (events.Publisher, func()) {
	if cfg.Broker == "" {
		return events.NopPublisher{}, func() {}
	}
	publisher, err := events.NewMQTTPublisher(cfg)
	if err != nil {
		log.WithError(err).WithField("broker", cfg.Broker).Warn("Event publishing disabled")
		return events.NopPublisher{}, func() {}
	}
	log.WithField("broker", cfg.Broker).Info("Publishing events over MQTT")
	return publisher, publisher.Close
}

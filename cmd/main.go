package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/handlers"
	"github.com/ukydev/fleet-maintenance/internal/jobs"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	cfg.ConfigureLogging()
	if cfg.UsesDefaultSecret() {
		log.Warn("JWT_SECRET is not set, using the default secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")
	collections := db.NewCollections(client.Database(cfg.MongoDB))

	authService := auth.NewService(cfg.Auth)
	if cfg.AdminUsername != "" {
		created, err := authService.EnsureAdmin(ctx, collections.Users, cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			log.WithError(err).Fatal("Failed to bootstrap admin user")
		}
		if created {
			log.WithField("username", cfg.AdminUsername).Info("Created admin user")
		}
	}

	publisher, closePublisher := newPublisher(cfg.MQTT)
	defer closePublisher()

	engine := maintenance.NewEngine(collections.Schedules, collections.WorkOrders, cfg.Tick.Concurrency)
	service := maintenance.NewService(collections.Schedules, collections.Vehicles,
		maintenance.WithWorkOrderCloser(collections.WorkOrders))
	tickJob := jobs.NewTickJob(engine, collections.Vehicles, collections.Schedules, collections.WorkOrders, publisher)

	loc, err := cfg.Tick.Location()
	if err != nil {
		log.WithError(err).Fatal("Invalid tick timezone")
	}
	if err := tickJob.Start(cfg.Tick.Cron, loc); err != nil {
		log.WithError(err).Fatal("Failed to schedule maintenance tick")
	}
	defer tickJob.Stop()

	router := &handlers.Router{
		Auth:         handlers.NewAuthHandler(authService, collections.Users),
		Schedules:    handlers.NewScheduleHandler(service),
		Vehicles:     handlers.NewVehicleHandler(collections.Vehicles),
		Tick:         handlers.NewTickHandler(tickJob),
		Guard:        middleware.NewAuthMiddleware(authService),
		LoginLimiter: middleware.NewRateLimiter(10, time.Minute),
	}
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown failed")
	}
}

// newPublisher returns the MQTT publisher when a broker is configured and the
// log publisher otherwise. Events are always logged.
func newPublisher(cfg config.MQTTConfig) (notify.Publisher, func()) {
	logPublisher := notify.NewLogPublisher(nil)
	if !cfg.Enabled() {
		return logPublisher, func() {}
	}
	mqttPublisher, err := notify.NewMQTTPublisher(cfg.Broker, cfg.ClientID, cfg.TopicPrefix)
	if err != nil {
		log.WithError(err).Warn("MQTT unavailable, events will only be logged")
		return logPublisher, func() {}
	}
	return notify.MultiPublisher{logPublisher, mqttPublisher}, mqttPublisher.Close
}

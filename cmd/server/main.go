package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"bus_tracker/internal/config"
	"bus_tracker/internal/controllers"
	"bus_tracker/internal/logger"
	"bus_tracker/internal/middleware"
	"bus_tracker/internal/notification"
	"bus_tracker/internal/push"
	"bus_tracker/internal/realtime"
	"bus_tracker/internal/routes"
	"bus_tracker/internal/store"
	"bus_tracker/internal/tracking"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}

	logWriter := logger.Setup(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File})

	db, err := config.InitDB(cfg.DB, logger.GormLogger())
	if err != nil {
		logrus.Fatalf("db connect error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gormStore := store.NewGormStore(db)

	gateway, err := push.New(ctx, push.Settings{
		Backend: cfg.Push.Backend,
		FCM: push.FCMConfig{
			CredentialsFile: cfg.Push.FirebaseCredentialsFile,
			ProjectID:       cfg.Push.FirebaseProjectID,
			ClientEmail:     cfg.Push.FirebaseClientEmail,
			PrivateKey:      cfg.Push.FirebasePrivateKey,
		},
		VAPID: push.VAPIDConfig{
			PublicKey:  cfg.Push.VAPIDPublicKey,
			PrivateKey: cfg.Push.VAPIDPrivateKey,
			Subject:    cfg.Push.VAPIDSubject,
			TTL:        cfg.Push.VAPIDTTL,
		},
	}, gormStore)
	if err != nil {
		logrus.Fatalf("push gateway error: %v", err)
	}

	processor := notification.NewProcessor(gormStore, gateway, notification.Policy{
		NearStopCooldown:    cfg.Notify.NearStopCooldown,
		DefaultRadiusMeters: cfg.Notify.DefaultRadiusMeters,
	})
	workers := notification.NewWorkerPool(processor, cfg.Notify.Workers, cfg.Notify.QueueSize)
	workers.Start(ctx)

	hub := realtime.NewHub(realtime.NewBusAuthorizer(gormStore, time.Minute))

	tracker := tracking.NewService(gormStore, gormStore, tracking.ThrottlePolicy{
		MinInterval:       cfg.Tracking.UpdateInterval,
		MinMovementMeters: cfg.Tracking.MovementThreshold,
	}, hub, workers)

	sweeper := tracking.NewSweeper(gormStore, cfg.Tracking.StaleAfter, cfg.Tracking.SweepInterval)
	go sweeper.Run(ctx)

	auth := middleware.NewJWTAuth(cfg.JWT.Secret)

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := routes.SetupRouter(routes.Dependencies{
		Auth:           auth,
		Tracking:       controllers.NewTrackingController(tracker),
		Buses:          controllers.NewBusController(gormStore),
		Subscriptions:  controllers.NewSubscriptionController(gormStore),
		Notifications:  controllers.NewNotificationController(gormStore),
		WebSocket:      controllers.NewWebSocketController(auth, hub, tracker, cfg.HTTP.FrontendURLs),
		DB:             db,
		AllowedOrigins: cfg.HTTP.FrontendURLs,
		RateLimit:      rate.Limit(cfg.HTTP.RateLimitPerSec),
		RateBurst:      cfg.HTTP.RateLimitBurst,
		LogWriter:      logWriter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logrus.WithField("addr", srv.Addr).Info("Server listening.")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logrus.Info("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown failed.")
	}

	cancel()
	workers.Wait()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logrus.Info("Server stopped.")
}

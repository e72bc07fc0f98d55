package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"tractorbooking/internal/config"
	"tractorbooking/internal/database"
	"tractorbooking/internal/middleware"
	"tractorbooking/internal/modules/billing"
	"tractorbooking/internal/modules/delivery"
	"tractorbooking/internal/pkg/events"
	"tractorbooking/internal/pkg/geo"
	"tractorbooking/internal/pkg/jwt"
	"tractorbooking/internal/pkg/lock"
	"tractorbooking/internal/pkg/logger"
	"tractorbooking/internal/repository"
	"tractorbooking/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	log := logger.New(cfg.App.LogLevel, cfg.App.Env)
	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.Database.URL, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	var (
		releaseLocker lock.Locker = lock.NewKeyed()
		positions     delivery.PositionStore
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer client.Close()

		releaseLocker = lock.NewRedis(client, cfg.Redis.KeyPrefix)
		positions = repository.NewRedisPositionStore(client, cfg.Tracking.PositionTTL)
		log.WithField("addr", cfg.Redis.Addr).Info("redis connected")
	}

	var publisher events.Publisher = events.NewLogPublisher(log)
	if cfg.RabbitMQ.URL != "" {
		mq, err := events.NewRabbitMQ(events.RabbitMQConfig{
			URL:          cfg.RabbitMQ.URL,
			ExchangeName: cfg.RabbitMQ.Exchange,
		})
		if err != nil {
			log.WithError(err).Fatal("failed to connect to rabbitmq")
		}
		defer mq.Close()
		publisher = mq
	}

	services := server.NewServices(db, server.Options{
		ReleaseLocker: releaseLocker,
		Positions:     positions,
		Estimator:     geo.NewHaversine(cfg.Tracking.AverageSpeedKmh),
		Publisher:     publisher,
		Billing: billing.Policy{
			MinBookingMinutes: cfg.Billing.MinMinutes,
			CommissionBPS:     cfg.Billing.CommissionBPS,
		},
		PlatformAccountID: cfg.Billing.PlatformAccountID,
		PollInterval:      cfg.Tracking.PollInterval,
		PositionTTL:       cfg.Tracking.PositionTTL,
		Log:               log,
	})

	router := server.NewRouter(server.RouterConfig{
		JWT: jwt.New(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL),
		Internal: middleware.InternalTokenConfig{
			Token:      cfg.Auth.InternalToken,
			AllowedIPs: cfg.Auth.InternalAllowedIPs,
		},
		CORSOrigins: cfg.Server.CORSOrigins,
		Log:         log,
	}, services)

	srv := server.New(cfg.Server, router)
	go func() {
		log.WithField("port", cfg.Server.Port).Info("server starting")
		if err := srv.Run(); err != nil {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

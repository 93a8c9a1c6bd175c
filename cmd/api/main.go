package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/marshalhq/marshals-api/internal/config"
	"github.com/marshalhq/marshals-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/marshalhq/marshals-api/internal/infrastructure/jwt"
	"github.com/marshalhq/marshals-api/internal/infrastructure/smtp"
	"github.com/marshalhq/marshals-api/internal/infrastructure/sns"
	transporthttp "github.com/marshalhq/marshals-api/internal/transport/http"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err == nil {
		fmt.Println("loaded .env")
	}

	cfg := config.Load()

	logger, err := newLogger(cfg.AppEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables, logger)

	// JWT provider (optional, graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		logger.Warn("jwt provider not available", zap.Error(err))
	}

	mailer := smtp.NewMailer(cfg)

	// SNS push sender (optional, graceful fallback).
	var pushSender sns.PushSender
	if sender, err := sns.NewSender(cfg, logger); err == nil {
		pushSender = sender
	} else {
		logger.Warn("sns push sender not available", zap.Error(err))
	}

	deps := &transporthttp.Deps{
		MarshalRepo:      dynamo.NewMarshalRepo(dynamoClient, cfg.DynamoTables.Marshals),
		SessionRepo:      dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions, logger),
		EventRepo:        dynamo.NewEventRepo(dynamoClient, cfg.DynamoTables.Events),
		AttendanceRepo:   dynamo.NewAttendanceRepo(dynamoClient, cfg.DynamoTables.AttendanceRequests),
		RosterRepo:       dynamo.NewRosterRepo(dynamoClient, cfg.DynamoTables.RosterEntries),
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		BroadcastRepo:    dynamo.NewBroadcastRepo(dynamoClient, cfg.DynamoTables.Broadcasts),
		PushSender:       pushSender,
		Mailer:           mailer,
		JWTProvider:      jwtProvider,
		Log:              logger,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

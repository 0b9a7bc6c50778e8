package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"otabridge/config"
	"otabridge/db"
	"otabridge/message"
	"otabridge/service"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithError(err).Fatal("invalid log level")
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.JSONFormatter{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.PostgresURL)
	if err != nil {
		logrus.WithError(err).Fatal("could not connect to postgres")
	}
	defer pool.Close()

	if err := db.CreateDatabaseSchema(pool); err != nil {
		logrus.WithError(err).Fatal("could not create the database schema")
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = message.NewRedisClient(cfg.RedisAddr)
		defer redisClient.Close()
	}

	svc := service.New(cfg, pool, redisClient)

	// The same binary serves as the API Gateway integration when deployed as
	// a function.
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(svc.LambdaHandler())
		return
	}

	logrus.WithField("addr", cfg.HTTPAddr).Info("server starting")

	if err := svc.Run(ctx); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

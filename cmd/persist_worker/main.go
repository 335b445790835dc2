package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"marketplace_chat_service/internal/chat/repository"
	"marketplace_chat_service/internal/worker/app"
	"marketplace_chat_service/pkg/config"
	"marketplace_chat_service/pkg/database"
	"marketplace_chat_service/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.PersistWorker, config.EnvConfig.PersistWorkerLogPath)
	cfg := config.LoadConfig[config.Worker](config.EnvConfig.PersistWorker, config.EnvConfig.PersistWorkerYAMLPath)
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 3 * time.Second
	}

	// 1. redis (unseen counters, count-update pub/sub)
	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}

	// 2. postgreSQL (bulk insert target + conversation lookup)
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.Database)
	pool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    connStr,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgreSQL database after retries",
			zap.String("address", fmt.Sprintf("[%s]", connStr)),
			zap.Error(err),
		)
	}
	defer pool.Close()

	gormDB, err := database.NewGormConnection(database.Connection{
		ConnectStr:    connStr,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("open gorm handle err : %v", err))
	}

	msgRepo := repository.NewMessageRepository(gormDB)
	if err := msgRepo.AutoMigrate(); err != nil {
		logger.Log.Fatal(fmt.Sprintf("migrate messages table err : %v", err))
	}

	// 3. repositories
	convRepo := repository.NewConversationRepository(pool)
	counterRepo := repository.NewCounterRepository(redisClient)
	pubsub := repository.NewRedisPubSub(redisClient)

	// 4. kafka reader (consumer group, explicit commits)
	reader := database.NewKafkaReader(database.KafkaConnection{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer reader.Close()

	// 5. batch writer + consumer loop
	writer := app.NewBatchWriter(cfg.FlushInterval, msgRepo, counterRepo, pubsub, convRepo)
	consumer := app.NewConsumer(reader, writer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer.Start(ctx)

	// drain whatever is still buffered before exit
	writer.Flush()
	logger.Log.Info("persist worker stopped")
}

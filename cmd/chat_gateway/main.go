package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"marketplace_chat_service/internal/chat/repository"
	"marketplace_chat_service/internal/gateway/app"
	"marketplace_chat_service/internal/gateway/router"
	"marketplace_chat_service/pkg/config"
	"marketplace_chat_service/pkg/database"
	"marketplace_chat_service/pkg/logger"
	testtool "marketplace_chat_service/pkg/test_tool"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatGateway, config.EnvConfig.ChatGatewayLogPath)
	cfg := config.LoadConfig[config.Gateway](config.EnvConfig.ChatGateway, config.EnvConfig.ChatGatewayYAMLPath)
	if cfg.PresenceTTL == 0 {
		cfg.PresenceTTL = 300 * time.Second
	}
	testtool.StartPprof()

	// 1. redis (presence, counters, count-update pub/sub)
	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}

	// 2. postgreSQL (conversation lookup + history reads)
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

	// 3. kafka writer (durable bus, partitioned by conversation)
	busWriter, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.Topic,
		RetryCount:    cfg.Kafka.RetryCount,
		RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect kafka err : %v", err))
	}
	defer busWriter.Close()

	// 4. repositories
	presenceRepo := repository.NewPresenceRepository(database.NewRedisRepository[string](redisClient))
	counterRepo := repository.NewCounterRepository(redisClient)
	convRepo := repository.NewConversationRepository(pool)
	msgRepo := repository.NewMessageRepository(gormDB)
	pubsub := repository.NewRedisPubSub(redisClient)

	// 5. use cases and handlers
	registry := app.NewConnRegistry()
	routeUC := app.NewRouteMessageUseCase(registry, busWriter, counterRepo, presenceRepo, cfg.PresenceTTL)
	wsHandler := app.NewChatWebsocketHandler(routeUC, pubsub)
	restHandler := app.NewChatRestHandler(convRepo, msgRepo, counterRepo, presenceRepo)

	// 6. fiber
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatGatewayLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r, wsHandler, restHandler)

	port := ":" + cfg.Port
	log.Printf("Chat Gateway listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}

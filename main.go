package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"storefront/internal/api"
	"storefront/internal/config"
	"storefront/internal/design"
	"storefront/internal/fulfillment"
	"storefront/internal/kafka"
	"storefront/internal/logger"
	"storefront/internal/notification"
	"storefront/internal/order"
	orderkafka "storefront/internal/order/kafka"
	orderredis "storefront/internal/order/redis"
	"storefront/internal/store"
	"storefront/internal/user"
)

func connectPostgres(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "✅ PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Addr))
	return client
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Storefront Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB := connectPostgres(cfg.Database, log)
	defer bunDB.Close()

	if err := store.CreateTables(ctx, bunDB); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Schema creation failed: %v", err))
	}
	log.Info("DATABASE", "Schema ensured successfully")

	redisClient := connectRedis(ctx, cfg.Redis, log)
	defer redisClient.Close()

	var events order.EventPublisher = orderkafka.Noop{}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		log.Info("KAFKA", "Kafka producer initialized successfully")

		requiredTopics := []string{
			cfg.Kafka.Topics.OrderCreated,
			cfg.Kafka.Topics.OrderPaid,
			cfg.Kafka.Topics.OrderFailed,
			cfg.Kafka.Topics.OrderShipped,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}

		events = orderkafka.NewPublisher(producer, cfg.Kafka.Topics)
	} else {
		log.Warn("KAFKA", "Kafka disabled, order events will not be published")
	}

	gateway, err := order.NewStripeGateway(cfg.Stripe, log)
	if err != nil {
		log.Fatal("PAYMENT", fmt.Sprintf("Stripe initialization failed: %v", err))
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	printful := fulfillment.NewClient(cfg.Printful, httpClient, log)
	mailer := notification.NewMailer(cfg.Email, log)

	db := store.New(bunDB)
	idempotency := orderredis.NewClaimer(redisClient, cfg.Orders.IdempotencyTTL)

	orderService := order.NewService(db, gateway, printful, mailer, events, idempotency, cfg.Orders.FallbackUnitPrice, log)
	userService := user.NewService(db, mailer, cfg.Admin.BootstrapEmails, log)
	designService := design.NewService(db, cfg.Admin.SeedImagePrefix, log)

	handler := api.NewHandler(orderService, userService, designService, db, log)

	log.Info("HTTP", "Setting up router and middleware")
	router := handler.Routes(userService)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Storefront Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Storefront Service shutdown complete")
	}
}

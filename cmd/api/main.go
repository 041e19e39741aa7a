package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	eventsconsumer "github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/events/consumer"
	eventshandler "github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/events/handler"
	eventsrepository "github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/events/repository"
	eventsservice "github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/events/service"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/integration"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/outbox"
	ticketsconsumer "github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/tickets/consumer"
	ticketshandler "github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/tickets/handler"
	ticketsrepository "github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/tickets/repository"
	ticketsservice "github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/tickets/service"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/config"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/database"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/domainevent"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/kafka"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/logger"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/redis"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&logger.Config{
		Level:       logLevel(cfg),
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		return fmt.Errorf("failed to init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	// one database per module; cross-module state flows through the broker only
	eventsDB, err := database.NewPostgres(ctx, postgresConfig(cfg.EventsDatabase, cfg.OTel.Enabled))
	if err != nil {
		return fmt.Errorf("failed to connect to events database: %w", err)
	}
	defer eventsDB.Close()

	ticketsDB, err := database.NewPostgres(ctx, postgresConfig(cfg.TicketsDatabase, cfg.OTel.Enabled))
	if err != nil {
		return fmt.Errorf("failed to connect to tickets database: %w", err)
	}
	defer ticketsDB.Close()

	redisClient, err := redis.NewClient(ctx, &redis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:  cfg.Kafka.Brokers,
		ClientID: cfg.Kafka.ClientID,
	})
	if err != nil {
		return fmt.Errorf("failed to create kafka producer: %w", err)
	}
	defer producer.Close()

	// Events module
	eventsDispatcher := domainevent.NewDispatcher()
	eventsOutbox := outbox.NewPostgresRepository(eventsDB.Pool())
	eventRepo := eventsrepository.NewPostgresEventRepository(eventsDB.Pool())
	eventService, err := eventsservice.NewEventService(eventsDB.Pool(), eventRepo, eventsOutbox, eventsDispatcher)
	if err != nil {
		return err
	}

	// Tickets module
	ticketsDispatcher := domainevent.NewDispatcher()
	ticketsOutbox := outbox.NewPostgresRepository(ticketsDB.Pool())
	projectionRepo := ticketsrepository.NewPostgresEventRepository(ticketsDB.Pool())
	userRepo := ticketsrepository.NewPostgresUserRepository(ticketsDB.Pool())
	reservations := ticketsrepository.NewRedisReservationRepository(redisClient, cfg.Reservation.TTL)
	ticketService, err := ticketsservice.NewTicketService(ticketsDB.Pool(), projectionRepo, reservations, ticketsOutbox, ticketsDispatcher)
	if err != nil {
		return err
	}
	projectionService := ticketsservice.NewProjectionService(ticketsDB.Pool(), projectionRepo, userRepo, ticketsDispatcher)

	// outbox relays, one per module database
	eventsRelay := outbox.NewRelay(eventsOutbox, producer, nil)
	if err := eventsRelay.Start(ctx); err != nil {
		return err
	}
	defer eventsRelay.Stop()

	ticketsRelay := outbox.NewRelay(ticketsOutbox, producer, nil)
	if err := ticketsRelay.Start(ctx); err != nil {
		return err
	}
	defer ticketsRelay.Stop()

	// consumer groups, one per module
	if err := startConsumer(ctx, cfg, "events", eventsconsumer.NewSoldOutConsumer(eventService).Handlers()); err != nil {
		return err
	}

	ticketsHandlers := ticketsconsumer.NewEventConsumer(projectionService).Handlers()
	for topic, h := range ticketsconsumer.NewUserConsumer(projectionService).Handlers() {
		ticketsHandlers[topic] = h
	}
	if err := startConsumer(ctx, cfg, "tickets", ticketsHandlers); err != nil {
		return err
	}

	router := buildRouter(cfg, eventService, ticketService, eventsDB, ticketsDB, redisClient)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func startConsumer(ctx context.Context, cfg *config.Config, module string, handlers map[string]integration.HandlerFunc) error {
	topics := make([]string, 0, len(handlers))
	for topic := range handlers {
		topics = append(topics, topic)
	}

	consumer, err := kafka.NewConsumer(ctx, &kafka.ConsumerConfig{
		Brokers:  cfg.Kafka.Brokers,
		GroupID:  fmt.Sprintf("%s-%s", cfg.Kafka.ConsumerGroup, module),
		Topics:   topics,
		ClientID: fmt.Sprintf("%s-%s", cfg.Kafka.ClientID, module),
	})
	if err != nil {
		return fmt.Errorf("failed to create %s consumer: %w", module, err)
	}

	runner := integration.NewRunner(module, consumer, handlers)
	go func() {
		defer consumer.Close()
		if err := runner.Run(ctx); err != nil {
			logger.Get().Error("Consumer stopped with error", "consumer", module, "error", err)
		}
	}()
	return nil
}

func buildRouter(
	cfg *config.Config,
	eventService *eventsservice.EventService,
	ticketService *ticketsservice.TicketService,
	eventsDB, ticketsDB *database.PostgresDB,
	redisClient *redis.Client,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		checks := map[string]string{
			"events_database":  pingStatus(eventsDB.Ping(c.Request.Context())),
			"tickets_database": pingStatus(ticketsDB.Ping(c.Request.Context())),
			"redis":            pingStatus(redisClient.Ping(c.Request.Context())),
		}
		status := http.StatusOK
		for _, v := range checks {
			if v != "ok" {
				status = http.StatusServiceUnavailable
			}
		}
		c.JSON(status, checks)
	})

	api := router.Group("/")
	eventshandler.NewEventHandler(eventService).RegisterRoutes(api)
	ticketshandler.NewTicketHandler(ticketService).RegisterRoutes(api)
	return router
}

func pingStatus(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}

func postgresConfig(db config.DatabaseConfig, tracing bool) *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            db.Host,
		Port:            db.Port,
		User:            db.User,
		Password:        db.Password,
		Database:        db.DBName,
		SSLMode:         db.SSLMode,
		MaxConns:        int32(db.MaxConns),
		MinConns:        int32(db.MinConns),
		MaxConnLifetime: db.ConnMaxLifetime,
		MaxConnIdleTime: db.ConnMaxIdleTime,
		ConnectTimeout:  10 * time.Second,
		MaxRetries:      3,
		RetryInterval:   2 * time.Second,
		EnableTracing:   tracing,
	}
}

func logLevel(cfg *config.Config) string {
	if cfg.App.Debug {
		return "debug"
	}
	return "info"
}

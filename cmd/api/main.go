package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/command"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/catalog"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/logging"
	"github.com/example/storefront/internal/metrics"
	"github.com/example/storefront/internal/projection"
	"github.com/example/storefront/internal/query"
	"github.com/example/storefront/internal/readmodel"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded", zap.Int("products", cat.Len()))

	var db *sql.DB
	if cfg.EventStore != config.BackendMemory {
		// Postgres holds the read models for both durable backends
		db, err = store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		defer db.Close()
		logger.Info("connected to PostgreSQL")
	}

	var readStore store.ReadStoreInterface = store.NewReadStore()
	if db != nil {
		readStore = store.NewPostgresReadStore(db, readmodel.Collections())
	}
	projector := projection.NewProjector(readStore, logger)

	// Events reach the projector through Kafka when brokers are configured,
	// otherwise they are projected inline as they are appended.
	var wg sync.WaitGroup
	publisher := projection.InlinePublisher(projector)
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		producer := kafka.NewProducer(brokers, cfg.KafkaTopic, logger)
		defer producer.Close()
		publisher = producer

		consumer := kafka.NewConsumer(brokers, cfg.KafkaTopic, cfg.KafkaConsumerGroup, logger)
		defer consumer.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Consume(ctx, projector.HandleEvent); err != nil && ctx.Err() == nil {
				logger.Error("projection consumer stopped", zap.Error(err))
			}
		}()
		logger.Info("projecting through Kafka",
			zap.Strings("brokers", brokers),
			zap.String("topic", cfg.KafkaTopic))
	}

	eventStore, err := openEventStore(ctx, cfg, db, publisher, logger)
	if err != nil {
		return err
	}

	replayed, err := projector.Replay(ctx, eventStore)
	if err != nil {
		return fmt.Errorf("failed to rebuild read models: %w", err)
	}
	logger.Info("read models rebuilt", zap.Int("events", replayed))

	m := metrics.New()
	cartSvc := cart.NewService(eventStore, logger)
	orderSvc := order.NewService(eventStore,
		order.WithDeliveryOffset(cfg.DeliveryOffset),
		order.WithLogger(logger))

	cmdHandler := command.NewHandler(cat, cartSvc, orderSvc, m, logger)
	queryHandler := query.NewHandler(readStore, cat, orderSvc, cartSvc)

	if cfg.AdminPasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH is not set, admin login is disabled")
	}
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AdminTokenTTL)
	credentials := auth.NewAdminCredentials(cfg.AdminEmail, cfg.AdminPasswordHash)

	router := api.NewRouter(
		api.NewHandlers(cmdHandler, queryHandler, logger),
		api.NewAdminHandlers(cmdHandler, queryHandler, credentials, jwtService, logger),
		jwtService,
		m,
		logger,
	)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started",
			zap.String("port", cfg.Port),
			zap.String("event_store", cfg.EventStore))
		if err := router.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		stop()
		wg.Wait()
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := router.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	wg.Wait()
	return nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}
	return cat, nil
}

func openEventStore(ctx context.Context, cfg *config.Config, db *sql.DB, publisher store.Publisher, logger *zap.Logger) (store.EventStoreInterface, error) {
	switch cfg.EventStore {
	case config.BackendPostgres:
		return store.NewPostgresEventStore(db, publisher, logger), nil
	case config.BackendDynamo:
		// The table stream feeds the Lambda projector, so nothing is published here
		client, err := store.NewDynamoClient(ctx, cfg.AWSRegion, cfg.DynamoEndpoint)
		if err != nil {
			return nil, err
		}
		logger.Info("using DynamoDB event store",
			zap.String("region", cfg.AWSRegion),
			zap.String("table", cfg.DynamoEventsTable))
		return store.NewDynamoEventStore(client, cfg.DynamoEventsTable, cfg.DynamoSnapshotsTable), nil
	default:
		return store.NewEventStore(publisher, logger), nil
	}
}

// Package app собирает сервис целиком: хранилище, сервисы, HTTP и
// метрики, outbox worker, graceful shutdown.
package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/pos/internal/health"
	"github.com/vladislavdragonenkov/pos/internal/httpapi"
	"github.com/vladislavdragonenkov/pos/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/pos/internal/service/auth"
	"github.com/vladislavdragonenkov/pos/internal/service/catalog"
	"github.com/vladislavdragonenkov/pos/internal/service/outbox"
	"github.com/vladislavdragonenkov/pos/internal/service/pos"
	"github.com/vladislavdragonenkov/pos/internal/service/pricing"
	"github.com/vladislavdragonenkov/pos/internal/storage/memory"
	"github.com/vladislavdragonenkov/pos/internal/storage/postgres"
	"github.com/vladislavdragonenkov/pos/internal/version"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr     string
	MetricsAddr  string
	PostgresDSN  string
	KafkaBrokers string
	JWTSecret    string
}

// DefaultConfig возвращает базовые адреса и секрет для разработки.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
		JWTSecret:   "pos-dev-secret",
	}
}

// ConfigFromEnv собирает конфигурацию из переменных окружения поверх
// значений по умолчанию.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("POS_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("POS_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("POS_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = v
	}
	if v := os.Getenv("POS_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	return cfg
}

// repositories — набор портов хранилища, собранный для выбранного backend.
type repositories struct {
	products domain.ProductRepository
	sales    domain.SaleRepository
	users    domain.UserRepository
	outbox   domain.OutboxRepository
	uow      domain.UnitOfWork
	closeFn  func() error
	pingFn   func(context.Context) error
}

// initStorage выбирает PostgreSQL при заданном DSN, иначе in-memory.
func initStorage(ctx context.Context, cfg Config, logger *log.Entry) (*repositories, error) {
	if cfg.PostgresDSN == "" {
		logger.Info("POS_POSTGRES_DSN не задан, используем in-memory хранилище")
		store := memory.NewStore()
		return &repositories{
			products: memory.NewProductRepository(store),
			sales:    memory.NewSaleRepository(store),
			users:    memory.NewUserRepository(store),
			outbox:   memory.NewOutboxRepository(store),
			uow:      memory.NewUnitOfWork(store),
			closeFn:  func() error { return nil },
			pingFn:   func(context.Context) error { return nil },
		}, nil
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	logger.Info("используем PostgreSQL хранилище")

	return &repositories{
		products: postgres.NewProductRepository(store),
		sales:    postgres.NewSaleRepository(store),
		users:    postgres.NewUserRepository(store),
		outbox:   postgres.NewOutboxRepository(store),
		uow:      postgres.NewUnitOfWork(store),
		closeFn:  store.Close,
		pingFn:   store.Ping,
	}, nil
}

func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	repos, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := repos.closeFn(); closeErr != nil {
			logger.WithError(closeErr).Warn("failed to close storage")
		}
	}()

	clock := domain.SystemClock{}
	selector := pricing.NewSelector()

	authSvc := auth.NewService(repos.users, cfg.JWTSecret, clock, logger.WithField("layer", "auth"))
	catalogSvc := catalog.NewService(repos.products, clock, logger.WithField("layer", "catalog"))
	processor := pos.NewProcessor(repos.uow, selector, clock, logger.WithField("layer", "pos"))

	// Kafka опционален: без брокеров outbox наполняется, worker не стартует.
	var kafkaProducer *kafka.Producer
	if cfg.KafkaBrokers != "" {
		brokers := strings.Split(cfg.KafkaBrokers, ",")
		producer, err := kafka.NewProducer(brokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			kafkaProducer = producer
			logger.WithField("brokers", brokers).Info("kafka producer initialized")
		}
	}

	if kafkaProducer != nil {
		publisher := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicSaleEvents)
		worker := outbox.NewWorker(repos.outbox, publisher,
			outbox.WithLogger(logger.WithField("layer", "outbox")),
		)
		go worker.Run(ctx)
	}

	router := httpapi.NewRouter(httpapi.Handlers{
		Auth:     httpapi.NewAuthHandler(authSvc, repos.users, logger.WithField("layer", "http")),
		Products: httpapi.NewProductHandler(catalogSvc, clock, logger.WithField("layer", "http")),
		POS:      httpapi.NewPOSHandler(processor, repos.sales, logger.WithField("layer", "http")),
		Verifier: authSvc,
	})

	healthHandler := healthcheck.NewHandler(version.String())
	healthHandler.RegisterChecker("storage", healthcheck.NewSimpleChecker("storage", func() error {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return repos.pingFn(pingCtx)
	}))

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		closeProducer(kafkaProducer, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		closeProducer(kafkaProducer, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func closeProducer(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}

// startMetricsServer запускает HTTP-обработчики /metrics и health probes.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}

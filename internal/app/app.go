package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DRSN-tech/storefront/db"
	config "github.com/DRSN-tech/storefront/internal/cfg"
	v1Grpc "github.com/DRSN-tech/storefront/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/storefront/internal/delivery/v1/http"
	"github.com/DRSN-tech/storefront/internal/infrastructure/catalog"
	"github.com/DRSN-tech/storefront/internal/infrastructure/kafka"
	"github.com/DRSN-tech/storefront/internal/infrastructure/metrics"
	"github.com/DRSN-tech/storefront/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/storefront/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront/internal/repository/redis"
	redisConv "github.com/DRSN-tech/storefront/internal/repository/redis/converter"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/clients"
	"github.com/DRSN-tech/storefront/pkg/closer"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/DRSN-tech/storefront/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
	healthInterval  = 10 * time.Second
	topicTimeout    = 10 * time.Second
)

type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	httpSrv  *v1Http.Server
	grpcSrv  *v1Grpc.GRPCServer
	sessions *usecase.CartSessions
	health   *v1Grpc.HealthWatcher

	bgCtx    context.Context
	bgCancel context.CancelFunc
}

// NewApp поднимает зависимости и собирает слои. Всё, что открыто, регистрируется в closer,
// поэтому при ошибке уже созданные ресурсы закрываются.
func NewApp(cfg *config.Config, logger logger.Logger) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: logger,
		closer: closer.NewCloser(0),
	}

	if err := a.init(); err != nil {
		if cerr := a.closer.Close(context.Background()); cerr != nil {
			logger.Warnf("cleanup after failed start: %v", cerr)
		}
		return nil, err
	}

	return a, nil
}

func (a *App) init() error {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	redisClient := clients.NewRedisClient(a.cfg.Redis)
	a.closer.AddErr("redis", redisClient.Close)
	if err := redisClient.Ping(ctx); err != nil {
		a.logger.Errorf(err, "failed to connect to redis")
		return e.Wrap(whereami.WhereAmI(), err)
	}

	cartRepo, err := a.initCartRepo(ctx, redisClient)
	if err != nil {
		return err
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	catalogClient := catalog.NewClient(a.cfg.Catalog, a.logger)
	cacheRepo := redis.NewCacheRepo(redisClient, redisConv.NewProductConv(), a.cfg.Redis, a.logger)
	catalogUC := usecase.NewCatalogUC(catalogClient, cacheRepo, a.logger, m)
	a.closer.AddErr("catalog cache writes", func() error {
		catalogUC.Wait()
		return nil
	})

	var observers []usecase.Observer
	if a.cfg.Kafka.Enabled {
		producer := kafka.NewProducer(a.logger, a.cfg.Kafka)
		a.closer.AddErr("kafka", producer.Close)

		if a.cfg.Kafka.EnsureTopic {
			if err := producer.EnsureTopic(topicTimeout); err != nil {
				a.logger.Errorf(err, "failed to ensure kafka topic %s", a.cfg.Kafka.Topic)
				return e.Wrap(whereami.WhereAmI(), err)
			}
		}
		observers = append(observers, producer)
		a.logger.Infof("cart events are published to kafka topic %s", a.cfg.Kafka.Topic)
	}

	a.sessions = usecase.NewCartSessions(cartRepo, a.logger, m, a.cfg.Cart.IdleTimeout, a.cfg.Cart.WriteTimeout, observers...)
	if a.cfg.Cart.Storage == config.StoragePostgres {
		a.sessions.WithRetention(a.cfg.Cart.TTL)
	}
	a.closer.AddErr("cart sessions", func() error {
		a.sessions.Close()
		return nil
	})

	summary := usecase.NewSummaryCalculator(a.cfg.Cart.TaxRate, a.cfg.Cart.FreeShippingThreshold, a.cfg.Cart.ShippingFee)
	cartUC := usecase.NewCartUC(a.sessions, catalogUC, summary, a.logger)

	a.bgCtx, a.bgCancel = context.WithCancel(context.Background())
	a.closer.AddErr("background jobs", func() error {
		a.bgCancel()
		return nil
	})

	a.grpcSrv = v1Grpc.NewGRPCServer(a.cfg.Grpc, a.logger)
	a.health = v1Grpc.NewHealthWatcher(a.grpcSrv.Health(), cartRepo.Ping, healthInterval, a.logger)
	a.closer.Add("grpc", a.grpcSrv.Stop)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, a.cfg.Http, m, a.logger)
	router.Init(catalogUC, cartUC, cartRepo.Ping, metrics.Handler(prometheus.DefaultGatherer))

	a.httpSrv = v1Http.NewServer(r, a.cfg.Http)
	a.httpSrv.RegisterOnShutdown(router.Close)
	a.closer.Add("http", a.httpSrv.Stop)

	return nil
}

func (a *App) initCartRepo(ctx context.Context, redisClient *clients.RedisClient) (usecase.CartRepository, error) {
	switch a.cfg.Cart.Storage {
	case config.StoragePostgres:
		pg, err := a.initPGDB(ctx)
		if err != nil {
			return nil, err
		}
		a.logger.Infof("cart storage: postgres")
		return pgdb.NewCartRepo(pg.Pool, pgdbConv.NewCartConv()), nil
	default:
		a.logger.Infof("cart storage: redis, ttl %s", a.cfg.Cart.TTL)
		return redis.NewCartRepo(redisClient, redisConv.NewProductConv(), a.cfg.Cart.TTL), nil
	}
}

func (a *App) initPGDB(ctx context.Context) (*postgres.PgDatabase, error) {
	pg, err := postgres.Connect(ctx, a.cfg.Db)
	if err != nil {
		a.logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.AddErr("postgres", func() error {
		pg.Close()
		return nil
	})

	if err := pg.RunMigrations(a.logger, db.Migrations, db.MigrationsDir); err != nil {
		a.logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return pg, nil
}

// Run запускает серверы и фоновые задачи и блокируется до сигнала или падения сервера.
func (a *App) Run() error {
	go a.sessions.RunJanitor(a.bgCtx, a.cfg.Cart.JanitorInterval)
	go a.health.Run(a.bgCtx)

	grpcErrCh := make(chan error, 1)
	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			a.logger.Errorf(err, "gRPC server failed")
			grpcErrCh <- err
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed: %v", err)
			errCh <- err
		}
	}()

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case appErr = <-grpcErrCh:
		a.logger.Errorf(appErr, "gRPC server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	// === Graceful shutdown ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Errorf(err, "shutdown finished with errors")
		if appErr == nil {
			appErr = err
		}
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

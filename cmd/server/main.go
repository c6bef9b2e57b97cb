// @title Storefront API
// @version 1.0
// @description Catalog, checkout with card payments and admin sales reporting.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/Skotchmaster/storefront/docs"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/idempotency"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/config"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/metrics"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.StripeSecretKey, "STRIPE_SECRET_KEY")
	config.MustPositiveDuration(cfg.PaymentTimeout, "PAYMENT_TIMEOUT")
	config.MustPositiveDuration(cfg.JWTTTL, "JWT_TTL")
	config.MustPositive(int64(cfg.ServerPort), "SERVER_PORT")

	logger := logging.New(cfg.ServiceName, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger.Desugar())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		logger.Fatalw("db_open_error", "error", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		logger.Fatalw("db_migrate_error", "error", err)
	}
	store := &repo.GormRepo{DB: db}

	m := metrics.New(cfg.ServiceName)

	var publisher events.Publisher = events.Nop{}
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
		publisher = producer
	} else {
		logger.Infow("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var locker idempotency.Locker = idempotency.NewMemoryLocker()
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		locker = idempotency.NewRedisLocker(rdb, idempotency.DefaultTTL)
	} else {
		logger.Infow("redis_disabled", "reason", "REDIS_ADDR is empty, idempotency locks are process local")
	}

	catalog := &service.CatalogService{Products: store, Events: publisher}
	if cfg.ESURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		es, err := search.NewClient(ctx, search.ClientConfig{URL: cfg.ESURL, Username: cfg.ESUser, Password: cfg.ESPassword})
		cancel()
		if err != nil {
			logger.Warnw("search_disabled", "reason", "elasticsearch unreachable", "error", err)
		} else {
			catalog.Index = search.NewProductIndex(es, cfg.ESIndex, m)
		}
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.SESSender != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		ses, err := notify.NewSESNotifier(ctx, cfg.AWSRegion, cfg.SESSender, m)
		cancel()
		if err != nil {
			logger.Warnw("notify_disabled", "reason", "aws config", "error", err)
		} else {
			notifier = ses
		}
	}

	gateway := payment.NewStripeGateway(payment.StripeConfig{
		SecretKey: cfg.StripeSecretKey,
		Timeout:   cfg.PaymentTimeout,
		Logger:    logger,
	}, m)

	orders := &service.OrderService{
		Users:          store,
		Products:       store,
		Orders:         store,
		Gateway:        gateway,
		Locker:         locker,
		Events:         publisher,
		Notifier:       notifier,
		Metrics:        m,
		Currency:       cfg.PaymentCurrency,
		PaymentTimeout: cfg.PaymentTimeout,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(m.Middleware())

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: &service.AuthService{
			Users:       store,
			JWTSecret:   cfg.JWTSecret,
			TokenTTL:    cfg.JWTTTL,
			AdminSignup: cfg.AdminSignupEnabled,
		}},
		ProductHandler: &httpserver.ProductHTTP{Svc: catalog},
		OrderHandler:   &httpserver.OrderHTTP{Svc: orders},
		PaymentMethodHandler: &httpserver.PaymentMethodHTTP{Svc: &service.PaymentMethodService{
			Users:          store,
			PaymentMethods: store,
			Gateway:        gateway,
			Events:         publisher,
		}},
		SalesHandler: &httpserver.SalesHTTP{Svc: &service.ReportService{Orders: store, Metrics: m}},
		JWTSecret:    cfg.JWTSecret,
		Metrics:      m,
		Ready: func(ctx context.Context) error {
			if err := pkgdb.Ping(ctx, db); err != nil {
				return err
			}
			if rdb != nil {
				return rdb.Ping(ctx).Err()
			}
			return nil
		},
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      writeTimeout(cfg.PaymentTimeout),
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Infow("http_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("http_listen_error", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("http_shutdown_error", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Warnw("kafka_close_error", "error", err)
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Warnw("redis_close_error", "error", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Infow("server_stopped")
}

// writeTimeout leaves room for a full payment call plus the order write, so a
// charged client still gets its response.
func writeTimeout(paymentTimeout time.Duration) time.Duration {
	const margin = 15 * time.Second
	return paymentTimeout + margin
}

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

	"github.com/charbel0004/Unishelf-sub000/internal/config"
	httpapi "github.com/charbel0004/Unishelf-sub000/internal/controllers/http"
	"github.com/charbel0004/Unishelf-sub000/internal/controllers/http/middleware"
	"github.com/charbel0004/Unishelf-sub000/internal/infra"
	"github.com/charbel0004/Unishelf-sub000/internal/infra/cache"
	"github.com/charbel0004/Unishelf-sub000/internal/infra/kafka"
	mmysql "github.com/charbel0004/Unishelf-sub000/internal/infra/mysql"
	"github.com/charbel0004/Unishelf-sub000/internal/infra/rabbitmq"
	"github.com/charbel0004/Unishelf-sub000/internal/logging"
	mysqlrepo "github.com/charbel0004/Unishelf-sub000/internal/repository/mysql"
	"github.com/charbel0004/Unishelf-sub000/internal/security"
	"github.com/charbel0004/Unishelf-sub000/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "unishelf: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		configDir = "configs"
	}
	cfg, err := config.Load(configDir, os.Getenv("APP_ENV"))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logging.New(logging.Options{
		Component:  cfg.App.Name,
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	db, err := mmysql.Open(mmysql.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		AutoMigrate:     cfg.Database.AutoMigrate,
		Logger:          log,
	})
	if err != nil {
		return fmt.Errorf("db: connect: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer sqlDB.Close()

	ids, err := security.NewObfuscator(cfg.IDKey())
	if err != nil {
		return fmt.Errorf("identifier key: %w", err)
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		return fmt.Errorf("failed to init publisher: %w", err)
	}
	defer publisher.Close()

	var c cache.Cache = cache.Nop{}
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     50,
			MinIdleConns: 5,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		})
		defer redisClient.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, caching disabled")
		} else {
			c = cache.NewRedisCache(redisClient, cfg.Redis.TTL)
		}
		cancel()
	}

	store := mysqlrepo.NewStore(db)
	tokens := security.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.Issuer, cfg.Security.Audience, cfg.Security.TokenTTL, ids)

	orders := services.NewOrderService(store, ids, publisher)
	orders.SetCache(c)
	orders.SetLogger(log.With().Str("service", "orders").Logger())
	orders.SetEnforceTransitions(cfg.Orders.EnforceTransitions)

	catalog := services.NewCatalogService(store, ids)
	catalog.SetCache(c)
	catalog.SetLogger(log.With().Str("service", "catalog").Logger())

	users := services.NewUserService(store, ids, security.NewPasswordHasher(cfg.Security.BcryptCost), tokens)
	users.SetLogger(log.With().Str("service", "users").Logger())

	handler := httpapi.NewHandler(orders, catalog, users, services.NewReportService(store), ids)

	if cfg.App.Mode != "" {
		gin.SetMode(cfg.App.Mode)
	}
	router := httpapi.NewRouter(handler, httpapi.RouterOptions{
		Logger:         log.With().Str("component", "http").Logger(),
		Authz:          middleware.NewAuthz(tokens),
		Limiter:        middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		RequestTimeout: cfg.HTTP.RequestTimeout,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Ready: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return sqlDB.PingContext(ctx)
		},
	})

	srv := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	return serve(srv, cfg.HTTP.ShutdownTimeout, log)
}

func newPublisher(cfg config.Config) (infra.EventPublisher, error) {
	switch cfg.Events.Driver {
	case "rabbitmq":
		p, err := rabbitmq.NewPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, cfg.App.Name)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "kafka":
		return kafka.NewPublisher(cfg.Events.Brokers, cfg.Events.Topic, cfg.App.Name), nil
	default:
		return infra.NopPublisher{}, nil
	}
}

// serve runs srv until SIGINT or SIGTERM, then drains in-flight requests.
func serve(srv *http.Server, shutdownTimeout time.Duration, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("starting unishelf")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server run: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

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

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskboard/internal/auth"
	"taskboard/internal/events"
	"taskboard/task-service/api"
	"taskboard/task-service/board"
	"taskboard/task-service/storage"
)

func envInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Fatalf("invalid %s: %q", name, v)
	}
	return n
}

func envDuration(name string, def time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Fatalf("invalid %s: %q", name, v)
	}
	return d
}

func main() {
	logger := log.New()
	logger.SetFormatter(&log.JSONFormatter{})
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
		logger.SetLevel(log.DebugLevel)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("missing DATABASE_URL")
	}
	isolation, err := storage.ParseIsolation(os.Getenv("TX_ISOLATION"))
	if err != nil {
		log.Fatalf("TX_ISOLATION: %v", err)
	}

	ctx := context.Background()
	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	pool, err := storage.NewPool(initCtx, storage.PoolConfig{
		URL:               dbURL,
		MaxConns:          int32(envInt("DB_MAX_CONNS", 10)),
		MinConns:          int32(envInt("DB_MIN_CONNS", 2)),
		HealthCheckPeriod: envDuration("DB_HEALTH_CHECK_PERIOD", 30*time.Second),
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	if err := storage.EnsureSchema(initCtx, pool); err != nil {
		log.Fatalf("schema: %v", err)
	}
	cancel()
	store := storage.NewPostgres(pool, isolation, envInt("TX_CONN_RETRIES", 2), logger)

	opts := []board.Option{}
	var publishers events.Fanout

	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		rc := redis.NewClient(events.RedisOptions(redisConn))
		cache := storage.NewCache(store, rc, envDuration("CACHE_TTL", 5*time.Minute))
		opts = append(opts, board.WithReader(cache), board.WithCache(cache))
		publishers = append(publishers, events.NewRedisPublisher(rc, os.Getenv("BOARD_EVENTS_CHANNEL"), logger))
	} else {
		log.Warn("REDIS_CONNECTION_STRING not set, caching and live updates disabled")
	}

	var dispatcher *events.Dispatcher
	var activityLog api.ActivityReader
	if connStr := os.Getenv("STORAGE_CONNECTION_STRING"); connStr != "" {
		if queueName := os.Getenv("EVENTS_QUEUE"); queueName != "" {
			sender, err := events.NewQueueSender(connStr, queueName)
			if err != nil {
				log.Fatalf("events queue: %v", err)
			}
			dispatcher = events.NewDispatcher(sender, events.DispatcherConfig{
				Workers:        envInt("EVENTS_WORKERS", 4),
				Buffer:         envInt("EVENTS_BUFFER", 256),
				Timeout:        envDuration("EVENTS_TIMEOUT", 10*time.Second),
				HandoffTimeout: envDuration("EVENTS_HANDOFF_TIMEOUT", 15*time.Millisecond),
			}, logger)
			publishers = append(publishers, dispatcher)
		}
		if tableName := os.Getenv("ACTIVITY_TABLE"); tableName != "" {
			al, err := storage.NewActivityLog(connStr, tableName)
			if err != nil {
				log.Fatalf("activity table: %v", err)
			}
			activityLog = al
		}
	}
	if len(publishers) > 0 {
		opts = append(opts, board.WithPublisher(publishers))
	}
	svc := board.NewService(store, logger, opts...)

	authenticator, err := auth.FromEnv(os.Getenv, logger)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(api.GzipRequestMiddleware(1 << 20))
	e.Use(echoprometheus.NewMiddleware("taskboard"))
	e.GET("/metrics", echoprometheus.NewHandler())

	api.Register(e, svc, authenticator, activityLog, store, logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	go func() {
		if err := e.Start(listenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown")
	}
	if dispatcher != nil {
		dispatcher.Close()
	}
	pool.Close()
}

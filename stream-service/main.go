package main

import (
	"context"
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
	"taskboard/stream-service/api"
	"taskboard/stream-service/subscription"
)

func main() {
	logger := log.New()
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
		logger.SetLevel(log.DebugLevel)
	}

	redisConn := os.Getenv("REDIS_CONNECTION_STRING")
	if redisConn == "" {
		log.Fatal("missing redis config")
	}
	rc := redis.NewClient(events.RedisOptions(redisConn))
	defer rc.Close()

	authenticator, err := auth.FromEnv(os.Getenv, logger)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	keepAlive := 25 * time.Second
	if v := os.Getenv("STREAM_KEEPALIVE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatalf("invalid STREAM_KEEPALIVE: %q", v)
		}
		keepAlive = d
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := api.NewHub()
	go subscription.SubscribeUpdates(ctx, logger, rc, os.Getenv("BOARD_EVENTS_CHANNEL"), hub.Broadcast)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echoprometheus.NewMiddleware("taskboard_stream"))
	e.GET("/metrics", echoprometheus.NewHandler())

	api.Register(e, hub, authenticator, keepAlive, logger)

	listenAddr := ":9000"
	if val, ok := os.LookupEnv("STREAM_SERVICE_PORT"); ok {
		listenAddr = ":" + val
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	if err := e.Start(listenAddr); err != nil && ctx.Err() == nil {
		log.Fatalf("server: %v", err)
	}
}

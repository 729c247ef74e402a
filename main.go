package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"food-marketplace-api/cache"
	"food-marketplace-api/config"
	"food-marketplace-api/handlers"
	"food-marketplace-api/middleware"
	"food-marketplace-api/routes"
	"food-marketplace-api/services"
	"food-marketplace-api/store"
	"food-marketplace-api/token"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func setupLogging(cfg *config.Config) {
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// newCache connects to Redis when configured and falls back to process memory
func newCache(ctx context.Context, cfg *config.Config) (cache.Store, func()) {
	if cfg.RedisAddr == "" {
		logrus.Info("REDIS_ADDR not set, using in-process cache")
		return cache.NewMemoryStore(), func() {}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logrus.Fatalf("Failed to connect to redis at %s: %v", cfg.RedisAddr, err)
	}
	logrus.WithField("addr", cfg.RedisAddr).Info("Connected to redis")
	return cache.NewRedisStore(rdb), func() { rdb.Close() }
}

func main() {
	cfg := config.Load()
	setupLogging(cfg)
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	// request bodies with unknown fields are rejected
	binding.EnableDecoderDisallowUnknownFields = true

	db, err := config.OpenDB(cfg)
	if err != nil {
		logrus.Fatal(err)
	}
	if err := config.Migrate(db); err != nil {
		logrus.Fatal(err)
	}
	logrus.WithField("driver", cfg.DBDriver).Info("Database ready")

	ctx := context.Background()
	cacheStore, closeCache := newCache(ctx, cfg)
	defer closeCache()

	tokens := token.NewService(token.Config{
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	users := store.NewUserStore(db)
	orders := store.NewOrderStore(db)
	restaurants := store.NewRestaurantStore(db)

	h := &handlers.Handler{
		Auth:        services.NewAuthService(users, tokens, cacheStore, cfg.BcryptCost),
		Orders:      services.NewOrderService(orders, restaurants, cacheStore),
		Restaurants: services.NewRestaurantService(restaurants, cacheStore),
		Cookies: handlers.CookieConfig{
			Secure:     cfg.IsProd,
			AccessTTL:  cfg.AccessTokenTTL,
			RefreshTTL: cfg.RefreshTokenTTL,
		},
	}
	router := routes.NewRouter(routes.Deps{
		Handler:     h,
		Tokens:      tokens,
		Users:       users,
		AuthLimiter: middleware.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst),
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.Infof("Server running on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logrus.Info("Server exited")
}

package server

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/auth"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/billing"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/config"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/handlers"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/rbac"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/realtime"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/repository"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type store interface {
	service.Store
	auth.UserRepo
}

func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Storage
	var st store
	if cfg.DBURL == config.MemoryDSN {
		log.Println("Using in-memory store; data is lost on restart")
		st = repository.NewMemoryStore()
	} else {
		if err := runMigrations(ctx, cfg.DBURL); err != nil {
			return err
		}
		db, err := sql.Open("postgres", cfg.DBURL)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			return err
		}
		st = repository.NewRepo(db, cfg.StorageTimeout)
	}

	// Rate cache
	var cache service.RedisClient
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		cache = service.NewRedisCache(rdb)
	} else {
		log.Println("REDIS_ADDR not set, rate cache disabled")
	}

	// To Setup dependencies
	svc := service.NewService(st, cache, service.Options{
		DefaultHourlyRate: cfg.DefaultHourlyRate,
		RateCacheTTL:      cfg.RateCacheTTL,
		Policy:            billing.Policy{BaseFine: cfg.BaseFine, HourlyFine: cfg.HourlyFine},
	})
	jwtSvc := auth.NewJWT([]byte(cfg.JWTSecret))
	authn := auth.NewAuthenticator(st, jwtSvc, cfg.TokenTTL)

	if cfg.AdminPassword != "" {
		if _, err := authn.EnsureUser(ctx, cfg.AdminUsername, cfg.AdminPassword, rbac.Admin); err != nil {
			return err
		}
	} else {
		log.Println("ADMIN_PASSWORD not set, no admin account seeded")
	}

	hub := realtime.NewHub()
	svc.Tickets.ObserveSpots(hub)
	go hub.Run(ctx)

	// To Setup Gin Router
	router := gin.New()
	router.Use(gin.Recovery(), auth.RequestLogger())

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Authorization", "Content-Type"},
	}))

	handlers.Register(router, handlers.Deps{
		Service: svc,
		Auth:    authn,
		JWT:     jwtSvc,
		Spots:   hub.Handler(),
	})

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Println("Server exited")
	return nil
}

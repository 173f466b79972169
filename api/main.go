package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lwei/shoplite/internal/auth"
	"github.com/lwei/shoplite/internal/config"
	"github.com/lwei/shoplite/internal/db"
	api "github.com/lwei/shoplite/internal/http"
	"github.com/lwei/shoplite/internal/http/handlers"
	"github.com/lwei/shoplite/internal/http/lockout"
	rl "github.com/lwei/shoplite/internal/http/rate_limiter"
	"github.com/lwei/shoplite/internal/redissvc"
	"github.com/lwei/shoplite/internal/repo"
)

var ctx = context.Background()

// @title ShopLite API
// @version 1.0
// @description REST API for a small-business point of sale: catalog, sale ledger, reports and staff accounts.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	auth.SetSecret(cfg.JWTSecret)
	lockout.SetConfig(cfg)
	handlers.SetPerPage(cfg.PerPage)

	go auth.StartRefreshTokenCleaner(30 * time.Minute)
	go lockout.StartDailySummary(time.Hour * 24)
	go rl.StartVisitorCleanupLoop()

	if cfg.AttemptTracker == "redis" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Could not connect to Redis: %v", err)
		}
		defer rdb.Close()

		lockout.SetRedisService(redissvc.NewRedisService(rdb, ctx))
		handlers.SetLoginAttemptTracker(auth.NewRedisAttemptTracker(rdb, ctx, "lockout:login:", 5, 10*time.Minute))
		handlers.SetRegisterAttemptTracker(auth.NewRedisAttemptTracker(rdb, ctx, "lockout:register:", 10, time.Hour))
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("❌ Could not connect to database:", err)
	}
	defer database.Close()

	handlers.SetProductRepo(repo.NewPostgresProductRepository(database))
	handlers.SetCategoryRepo(repo.NewPostgresCategoryRepository(database))
	handlers.SetSaleRepo(repo.NewPostgresSaleRepository(database))
	handlers.SetUserRepo(repo.NewPostgresUserRepository(database))
	handlers.SetLogRepo(repo.NewPostgresLogRepository(database))
	handlers.SetReportRepo(repo.NewPostgresReportRepository(database))
	handlers.SetHealthDB(database)

	r := api.NewRouter()
	log.Printf("✅ Server running on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal(err)
	}
}

package main // Entry point package

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/mahmodz/points-rank-server/internal/arbiter"
	"github.com/mahmodz/points-rank-server/internal/auth"
	"github.com/mahmodz/points-rank-server/internal/config"
	"github.com/mahmodz/points-rank-server/internal/database"
	"github.com/mahmodz/points-rank-server/internal/handler"
	"github.com/mahmodz/points-rank-server/internal/identity"
	"github.com/mahmodz/points-rank-server/internal/ledger"
	"github.com/mahmodz/points-rank-server/internal/middleware"
	"github.com/mahmodz/points-rank-server/internal/queue"
	"github.com/mahmodz/points-rank-server/internal/repository"
	"github.com/mahmodz/points-rank-server/internal/router"
	"github.com/mahmodz/points-rank-server/internal/store"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env always wins
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database open: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("database schema: %v", err)
	}
	cancel()

	st := store.NewMySQL(db)
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; sessions fall back to memory and rate limiting is off")
	}

	admins := auth.NewAllowList(cfg.AdminEmails...)
	idp := identity.NewLocal(st, rdb, cfg.JWTSecret,
		time.Duration(cfg.SessionTTLMin)*time.Minute, cfg.BcryptCost)

	users := repository.NewUserRepo(st)
	ranks := repository.NewTempRankRepo(st)
	chat := repository.NewChatRepo(st)

	arb := arbiter.New(users, admins)
	led := ledger.New(users, ranks, admins)

	e := echo.New()
	rl := middleware.RateLimit(config.LoadRateLimit(), rdb)
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(idp, users, admins), rl)
	router.RegisterProfile(e, handler.NewProfileHandler(users))
	router.RegisterAdmin(e, handler.NewAdminHandler(users, chat, idp, admins))
	router.RegisterRanks(e, handler.NewRankHandler(led))
	router.RegisterPoints(e, handler.NewPointsHandler(arb), rl)

	if v := os.Getenv("ACTIVITY_CONSUMER"); strings.EqualFold(v, "true") || v == "1" {
		go func() {
			if err := queue.StartActivityConsumer(); err != nil {
				log.Printf("activity consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

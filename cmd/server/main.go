package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fedgroup/backend/internal/activitypub"
	"github.com/fedgroup/backend/internal/config"
	"github.com/fedgroup/backend/internal/database"
	"github.com/fedgroup/backend/internal/handlers"
	"github.com/fedgroup/backend/internal/middleware"
	"github.com/fedgroup/backend/internal/services"
	"github.com/fedgroup/backend/pkg/logger"
	"github.com/fedgroup/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB, cfg.Admin)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	iris, err := activitypub.NewIRIs(cfg.Federation.BaseURL)
	if err != nil {
		log.Fatalf("invalid federation configuration: %v", err)
	}

	deliverer := services.NewFederationClient(iris, cfg.Federation.DeliveryTimeout, cfg.Federation.ActorCacheTTL)
	membership := services.NewMembershipService(db, iris, deliverer)
	ledger := services.NewLedger(db)
	announcer := services.NewAnnouncer(membership, ledger, iris, deliverer)
	actors := services.NewActorService(db, membership, announcer)

	actorsHandler := handlers.NewActorsHandler(actors, membership, announcer, ledger, iris)
	groupsHandler := handlers.NewGroupsHandler(db, membership, ledger)
	authHandler := handlers.NewAuthHandler(db)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 1 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/actors/:id", actorsHandler.Get)
	app.Post("/actors/:id/inbox", actorsHandler.Inbox)
	app.Get("/actors/:id/followers", actorsHandler.Followers)
	app.Get("/activity/announce/:id", actorsHandler.Announce)

	api := app.Group("/api")
	api.Post("/auth/login", authHandler.Login)
	api.Get("/auth/me", authMiddleware.RequireAuth, authHandler.Me)
	api.Post("/group", authMiddleware.RequireAuth, groupsHandler.Create)
	api.Get("/group/:name", groupsHandler.Get)
	api.Get("/group/:name/activity", authMiddleware.RequireAuth, groupsHandler.Activity)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":     cfg.Server.Port,
		"address":  listenAddr,
		"base_url": cfg.Federation.BaseURL,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}

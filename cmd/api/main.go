package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mediaforge/mediaforge/internal/api"
	"github.com/mediaforge/mediaforge/internal/config"
	"github.com/mediaforge/mediaforge/internal/credits"
	"github.com/mediaforge/mediaforge/internal/queue"
	"github.com/mediaforge/mediaforge/internal/storage/postgres"
)

func main() {
	log.Println("Starting API...")
	_ = godotenv.Load()

	ctx := context.Background()
	appCfg, err := config.LoadApp(ctx)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	dbCfg, err := postgres.LoadConfigFromEnv(ctx)
	if err != nil {
		log.Fatal("Failed to load database config:", err)
	}

	db, err := postgres.ConnectDB(ctx, dbCfg)
	if err != nil {
		log.Fatal("Connection failed:", err)
	}
	log.Println("Database connected")

	if err := postgres.RunMigrations(dbCfg, appCfg.MigrationsDir); err != nil {
		log.Fatal("Migrations failed:", err)
	}

	jobRepo := postgres.NewJobRepository(db)
	queues := queue.NewManager(jobRepo, queue.DefaultPolicies())
	creditSvc := credits.NewService(postgres.NewCreditStore(db))
	videoRepo := postgres.NewVideoRepository(db)
	webhookRepo := postgres.NewWebhookRepository(db)

	svc := api.NewService(queues, creditSvc, videoRepo, webhookRepo)
	handler := api.NewHandler(svc)

	r := gin.Default()
	api.RegisterRoutes(r, handler)

	srv := &http.Server{
		Addr:    ":" + appCfg.Port,
		Handler: r,
	}

	go func() {
		log.Println("Listening on", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed:", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("Forced shutdown:", err)
	}
	log.Println("Shutdown complete.")
}

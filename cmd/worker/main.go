package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mediaforge/mediaforge/internal/config"
	"github.com/mediaforge/mediaforge/internal/credits"
	"github.com/mediaforge/mediaforge/internal/progress"
	"github.com/mediaforge/mediaforge/internal/provider"
	"github.com/mediaforge/mediaforge/internal/queue"
	"github.com/mediaforge/mediaforge/internal/storage/postgres"
	"github.com/mediaforge/mediaforge/internal/upload"
	"github.com/mediaforge/mediaforge/internal/webhook"
	"github.com/mediaforge/mediaforge/internal/worker"
)

func main() {
	log.Println("Starting Worker...")
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

	providerCfg, err := provider.LoadConfig(ctx)
	if err != nil {
		log.Fatal("Failed to load provider config:", err)
	}
	registry, err := provider.DefaultRegistry(providerCfg, providerCfg.Polling())
	if err != nil {
		log.Fatal("Failed to build provider registry:", err)
	}

	var publisher progress.Publisher = progress.Noop{}
	if appCfg.NATSURL != "" {
		natsPub, err := progress.ConnectNATS(appCfg.NATSURL)
		if err != nil {
			log.Fatal("NATS connection failed:", err)
		}
		defer natsPub.Close()
		publisher = natsPub
		log.Println("Progress publisher connected")
	}

	jobRepo := postgres.NewJobRepository(db)
	queues := queue.NewManager(jobRepo, queue.DefaultPolicies())
	creditSvc := credits.NewService(postgres.NewCreditStore(db))
	videoRepo := postgres.NewVideoRepository(db)
	webhookRepo := postgres.NewWebhookRepository(db)

	sender := webhook.NewSender(appCfg.WebhookTimeout)
	webhookSvc := webhook.NewService(webhookRepo, sender, queues)

	deps := worker.Deps{
		Queues:    queues,
		Credits:   creditSvc,
		Progress:  publisher,
		Emitter:   webhookSvc,
		Videos:    videoRepo,
		Providers: registry,
		Uploads:   upload.NewClient(appCfg.ContentStoreURL),
	}

	dispatcher := worker.NewDispatcher()
	worker.RegisterHandlers(dispatcher, deps, webhookSvc.Deliver)
	deps.Dispatcher = dispatcher

	pool := worker.NewPool(deps, queue.DefaultPolicies(), appCfg.StalledAfter)
	pool.Start()
	log.Println("Worker pool active. Press Ctrl+C to stop.")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	pool.Stop()
	log.Println("Shutdown complete.")
}

package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// App is the process-level configuration shared by the api and worker
// binaries.
type App struct {
	Port            string        `env:"PORT,default=8080"`
	NATSURL         string        `env:"NATS_URL"` // empty disables progress publishing
	ContentStoreURL string        `env:"CONTENT_STORE_URL,default=http://localhost:9000"`
	MigrationsDir   string        `env:"MIGRATIONS_DIR,default=migrations"`
	WebhookTimeout  time.Duration `env:"WEBHOOK_TIMEOUT,default=10s"`
	StalledAfter    time.Duration `env:"STALLED_JOB_AFTER,default=2m"`
}

func LoadApp(ctx context.Context) (*App, error) {
	var cfg App
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      int    `env:"APP_PORT" env-default:"8080"`
		SentryUrl string `env:"SENTRY_URL"`
	}
	Postgres struct {
		Port    int    `env:"POSTGRES_PORT"`
		Host    string `env:"POSTGRES_HOST"`
		User    string `env:"POSTGRES_USER"`
		Pass    string `env:"POSTGRES_PASS"`
		Name    string `env:"POSTGRES_NAME"`
		SslMode string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	}
	Telegram struct {
		User    int64  `env:"TELEGRAM_USER"`
		Token   string `env:"TELEGRAM_TOKEN"`
		Channel string `env:"TELEGRAM_CHANNEL"`
	}
	StoryAPI struct {
		BaseURL        string `env:"STORY_API_BASE_URL" env-default:"https://story-api.dicoding.dev/v1"`
		Email          string `env:"STORY_API_EMAIL"`
		Pass           string `env:"STORY_API_PASS"`
		TokenPath      string `env:"STORY_API_TOKEN_PATH" env-default:"./storyapp-session"`
		TimeoutSeconds int    `env:"STORY_API_TIMEOUT_SECONDS" env-default:"30"`
		PageSize       int    `env:"STORY_API_PAGE_SIZE" env-default:"10"`
	}
	Sync struct {
		Minutes        int `env:"SYNC_MINUTES" env-default:"15"`
		MaxPagesPerRun int `env:"SYNC_MAX_PAGES_PER_RUN" env-default:"10"`
	}
}

var (
	once sync.Once
	cfg  *Config
)

func New() (*Config, error) {
	once.Do(func() {
		cfg = &Config{}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			help, _ := cleanenv.GetDescription(cfg, nil)
			log.Fatalf("Failed to read configuration: %v\n%v", err, help)
		}
	})
	return cfg, nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"dbname=%s user=%s password=%s host=%s port=%d sslmode=%s",
		c.Postgres.Name, c.Postgres.User, c.Postgres.Pass, c.Postgres.Host, c.Postgres.Port, c.Postgres.SslMode,
	)
}

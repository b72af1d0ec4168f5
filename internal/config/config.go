package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Upstream Upstream
	Redis    Redis
	Worker   Worker
	Log      Log
}

type Upstream struct {
	BaseURL  string        `env:"UPSTREAM_BASE_URL,notEmpty"`
	APIToken string        `env:"UPSTREAM_API_TOKEN"`
	Timeout  time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"5s"`
}

// Redis is optional. With an empty Addr the worker runs without the
// distributed cycle lock and without report history.
type Redis struct {
	Addr          string        `env:"REDIS_ADDRESS"`
	Password      string        `env:"REDIS_PASSWORD"`
	DB            int           `env:"REDIS_DB"`
	LockKey       string        `env:"REDIS_LOCK_KEY" envDefault:"dispatcher:cycle:lock"`
	LockTTL       time.Duration `env:"REDIS_LOCK_TTL" envDefault:"5m"`
	ReportKey     string        `env:"REDIS_REPORT_KEY" envDefault:"dispatcher:cycle:reports"`
	ReportHistory int           `env:"REDIS_REPORT_HISTORY" envDefault:"50"`
}

func (r Redis) Enabled() bool { return r.Addr != "" }

type Worker struct {
	Interval    time.Duration `env:"WORKER_INTERVAL" envDefault:"30s"`
	Concurrency int           `env:"WORKER_CONCURRENCY" envDefault:"16"`
	RunOnStart  bool          `env:"WORKER_RUN_ON_START"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Parse reads the environment, loading .env first when present.
func Parse() (*Config, error) {
	_ = godotenv.Load()

	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, err
	}
	if c.Worker.Concurrency < 1 {
		c.Worker.Concurrency = 1
	}
	return &c, nil
}

func Load() *Config {
	c, err := Parse()
	if err != nil {
		log.Fatal(err)
	}

	return c
}

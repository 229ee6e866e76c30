package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full process configuration, read from the environment.
type Config struct {
	ListenAddr string `env:"NPCFORGE_LISTEN_ADDR" envDefault:":8080"`
	AdminKey   string `env:"NPCFORGE_ADMIN_KEY"`
	LogLevel   string `env:"NPCFORGE_LOG_LEVEL" envDefault:"info"`

	ControlPlaneDSN string `env:"NPCFORGE_CONTROL_DSN,required"`
	GameWorldDSN    string `env:"NPCFORGE_GAME_DSN,required"`
	MigrationsDir   string `env:"NPCFORGE_MIGRATIONS_DIR" envDefault:"./migrations"`
	PresetDir       string `env:"NPCFORGE_PRESET_DIR" envDefault:"./presets"`

	WorldID string `env:"NPCFORGE_WORLD_ID" envDefault:"world-1"`

	DecisionInterval  time.Duration `env:"NPCFORGE_DECISION_INTERVAL" envDefault:"1m"`
	DecisionLimit     int           `env:"NPCFORGE_DECISION_LIMIT" envDefault:"200"`
	SchedulerInterval time.Duration `env:"NPCFORGE_SCHEDULER_INTERVAL" envDefault:"5m"`
	RecoveryInterval  time.Duration `env:"NPCFORGE_RECOVERY_INTERVAL" envDefault:"10m"`
	RecoveryGrace     time.Duration `env:"NPCFORGE_RECOVERY_GRACE" envDefault:"10m"`

	Model ModelConfig `envPrefix:"NPCFORGE_MODEL_"`
}

// ModelConfig configures the external text-generation backend. An empty
// endpoint leaves the advisor in permanent fallback.
type ModelConfig struct {
	Endpoint     string        `env:"ENDPOINT"`
	Backend      string        `env:"BACKEND" envDefault:"ollama"`
	Name         string        `env:"NAME" envDefault:"llama3"`
	APIKey       string        `env:"API_KEY"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"5s"`
	MaxAttempts  int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	BackoffBase  time.Duration `env:"BACKOFF_BASE" envDefault:"500ms"`
	CacheSize    int           `env:"CACHE_SIZE" envDefault:"1000"`
	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"1h"`
	ProbeTTL     time.Duration `env:"PROBE_TTL" envDefault:"1m"`
	BreakerLimit int           `env:"BREAKER_LIMIT" envDefault:"5"`
	BreakerReset time.Duration `env:"BREAKER_RESET" envDefault:"1m"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

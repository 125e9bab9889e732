package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         int      `yaml:"port"`
		AllowOrigins []string `yaml:"allowOrigins"`
	} `yaml:"server"`

	Gemini struct {
		ApiKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"gemini"`

	Database struct {
		URI string `yaml:"uri"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Cases struct {
		CatalogPath string `yaml:"catalogPath"`
	} `yaml:"cases"`

	Trial struct {
		Ordering          string        `yaml:"ordering"`      // "standard" or "collapsed"
		FailurePolicy     string        `yaml:"failurePolicy"` // "surface" or "fallback"
		TranscriptWindow  int           `yaml:"transcriptWindow"`
		GenerationTimeout time.Duration `yaml:"generationTimeout"`
		UndoDepth         int           `yaml:"undoDepth"`
		IdleTTL           time.Duration `yaml:"idleTTL"`
		SweepSchedule     string        `yaml:"sweepSchedule"`
		Language          string        `yaml:"language"` // voice output language code
	} `yaml:"trial"`

	RateLimit struct {
		Requests int           `yaml:"requests"` // generation requests per client and window
		Window   time.Duration `yaml:"window"`
	} `yaml:"rateLimit"`

	Logging struct {
		Env string `yaml:"env"` // development, production, local
	} `yaml:"logging"`
}

// Default returns a configuration usable without any file
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// LoadConfig reads the configuration file, then applies .env and environment overrides
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	// a missing .env is fine, real deployments set the environment directly
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.ApiKey = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Database.URI = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 1313
	}
	if len(c.Server.AllowOrigins) == 0 {
		c.Server.AllowOrigins = []string{"http://localhost:5173"}
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-1.5-flash"
	}
	if c.Cases.CatalogPath == "" {
		c.Cases.CatalogPath = "./data/cases.json"
	}
	if c.Trial.Ordering == "" {
		c.Trial.Ordering = "standard"
	}
	if c.Trial.FailurePolicy == "" {
		c.Trial.FailurePolicy = "surface"
	}
	if c.Trial.TranscriptWindow <= 0 {
		c.Trial.TranscriptWindow = 6
	}
	if c.Trial.GenerationTimeout <= 0 {
		c.Trial.GenerationTimeout = 45 * time.Second
	}
	if c.Trial.UndoDepth <= 0 {
		c.Trial.UndoDepth = 20
	}
	if c.Trial.IdleTTL <= 0 {
		c.Trial.IdleTTL = 2 * time.Hour
	}
	if c.Trial.SweepSchedule == "" {
		c.Trial.SweepSchedule = "@every 5m"
	}
	if c.Trial.Language == "" {
		c.Trial.Language = "en"
	}
	if c.RateLimit.Requests <= 0 {
		c.RateLimit.Requests = 30
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "development"
	}
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa de profitcalc.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Redis      RedisConfig      `yaml:"redis"`
	Calculator CalculatorConfig `yaml:"calculator"`
	Cache      CacheConfig      `yaml:"cache"`
	Network    NetworkConfig    `yaml:"network"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig controla el modo servidor HTTP.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StorageConfig controla dónde se persisten historial, settings y caches.
type StorageConfig struct {
	Backend string `yaml:"backend"` // sqlite | redis | memory
	DSN     string `yaml:"dsn"`     // ruta al archivo SQLite, o ":memory:"
}

// RedisConfig se usa solo con storage.backend = redis.
type RedisConfig struct {
	URL       string `yaml:"url"`
	Namespace string `yaml:"namespace"`
}

// CalculatorConfig contiene los parámetros del servicio de cálculo.
type CalculatorConfig struct {
	HistoryLimit int                `yaml:"history_limit"`
	AppVersion   string             `yaml:"app_version"`
	Platforms    map[string]float64 `yaml:"platforms"` // fee % por marketplace
}

// CacheConfig controla el cache manager offline.
type CacheConfig struct {
	Version               string   `yaml:"version"`
	Prefix                string   `yaml:"prefix"`
	Origin                string   `yaml:"origin"` // URL base de los assets
	Precache              []string `yaml:"precache"`
	OfflinePage           string   `yaml:"offline_page"`
	AllowedHosts          []string `yaml:"allowed_hosts"`
	ExcludedSchemes       []string `yaml:"excluded_schemes"`
	ExcludedHostFragments []string `yaml:"excluded_host_fragments"`
	AutoActivate          *bool    `yaml:"auto_activate"` // nil = true
	Workers               int      `yaml:"workers"`       // fetches concurrentes del precache
}

// NetworkConfig controla el cliente HTTP del cache manager.
type NetworkConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RatePerSec     float64 `yaml:"rate_per_sec"`
	Burst          int     `yaml:"burst"`
	Retries        int     `yaml:"retries"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Con path vacío solo se aplican env y defaults.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Timeout devuelve el timeout del cliente HTTP como time.Duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Network.TimeoutSeconds) * time.Second
}

// AutoActivateEnabled devuelve true salvo que el YAML lo desactive explícitamente.
func (c *CacheConfig) AutoActivateEnabled() bool {
	return c.AutoActivate == nil || *c.AutoActivate
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("PROFITCALC_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("PROFITCALC_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
		if cfg.Storage.Backend == "" {
			cfg.Storage.Backend = "redis"
		}
	}
	if v := os.Getenv("PROFITCALC_CACHE_VERSION"); v != "" {
		cfg.Cache.Version = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "profitcalc.db"
	}
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = "redis://localhost:6379/0"
	}
	if cfg.Redis.Namespace == "" {
		cfg.Redis.Namespace = "profitcalc"
	}
	if cfg.Calculator.HistoryLimit <= 0 {
		cfg.Calculator.HistoryLimit = 20
	}
	if cfg.Calculator.AppVersion == "" {
		cfg.Calculator.AppVersion = "2.0.0"
	}
	if len(cfg.Calculator.Platforms) == 0 {
		cfg.Calculator.Platforms = map[string]float64{"shopee": 5.5, "tiktok": 8.0, "lazada": 7.0}
	}
	if cfg.Cache.Version == "" {
		cfg.Cache.Version = "2.0.0"
	}
	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = "profitcalc-cache-"
	}
	if cfg.Cache.Origin == "" {
		cfg.Cache.Origin = "http://localhost:3000"
	}
	if len(cfg.Cache.Precache) == 0 {
		cfg.Cache.Precache = []string{"/", "/index.html", "/style.css", "/script.js", "/manifest.json", "/offline.html"}
	}
	if cfg.Cache.OfflinePage == "" {
		cfg.Cache.OfflinePage = "/offline.html"
	}
	if cfg.Cache.AllowedHosts == nil {
		cfg.Cache.AllowedHosts = []string{"fonts.googleapis.com", "cdnjs.cloudflare.com"}
	}
	if cfg.Cache.ExcludedSchemes == nil {
		cfg.Cache.ExcludedSchemes = []string{"chrome-extension"}
	}
	if cfg.Cache.ExcludedHostFragments == nil {
		cfg.Cache.ExcludedHostFragments = []string{"analytics"}
	}
	if cfg.Network.TimeoutSeconds <= 0 {
		cfg.Network.TimeoutSeconds = 10
	}
	if cfg.Network.RatePerSec <= 0 {
		cfg.Network.RatePerSec = 50
	}
	if cfg.Cache.Workers <= 0 {
		cfg.Cache.Workers = 4
	}
	if cfg.Network.Burst <= 0 {
		cfg.Network.Burst = 20
	}
	if cfg.Network.Retries < 0 {
		cfg.Network.Retries = 0
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("unknown storage backend %q (sqlite | redis | memory)", c.Storage.Backend)
	}
	for name, fee := range c.Calculator.Platforms {
		if fee < 0 || fee > 100 {
			return fmt.Errorf("platform %q: fee %v out of [0,100]", name, fee)
		}
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"credit_risk/internal/processor"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const envPrefix = "RISK"

type Config struct {
	App       AppConfig             `mapstructure:"app"`
	Server    ServerConfig          `mapstructure:"server"`
	Metrics   MetricsConfig         `mapstructure:"metrics"`
	Logging   LoggingConfig         `mapstructure:"logging"`
	Predictor PredictorConfig       `mapstructure:"predictor"`
	Signing   SigningConfig         `mapstructure:"signing"`
	Scoring   processor.Calibration `mapstructure:"scoring"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// PredictorConfig selects where /api/predict sends profiles. An empty
// UpstreamURL means the in-process engine.
type PredictorConfig struct {
	UpstreamURL string        `mapstructure:"upstream_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Retries     int           `mapstructure:"retries"`
}

type SigningConfig struct {
	Secret string `mapstructure:"secret"`
}

func Default() Config {
	return Config{
		App: AppConfig{
			Name:        "credit_risk",
			Environment: "development",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Metrics: MetricsConfig{Addr: ":9090"},
		Logging: LoggingConfig{Level: "info"},
		Predictor: PredictorConfig{
			Timeout: 10 * time.Second,
			Retries: 1,
		},
		Scoring: processor.DefaultCalibration(),
	}
}

// Load reads an optional .env file, an optional config.yaml (./configs or .)
// and RISK_* environment overrides, in increasing precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if path := os.Getenv(envPrefix + "_CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	return load(v)
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	bindDefaults(v, cfg)

	// ZeroFields makes band lists and weight maps from a file replace the
	// defaults instead of merging into them.
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) { dc.ZeroFields = true }); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// bindDefaults registers scalar keys so AutomaticEnv can override them even
// when no config file mentions them.
func bindDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("app.name", cfg.App.Name)
	v.SetDefault("app.environment", cfg.App.Environment)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", cfg.Server.IdleTimeout)
	v.SetDefault("metrics.addr", cfg.Metrics.Addr)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("predictor.upstream_url", cfg.Predictor.UpstreamURL)
	v.SetDefault("predictor.timeout", cfg.Predictor.Timeout)
	v.SetDefault("predictor.retries", cfg.Predictor.Retries)
	v.SetDefault("signing.secret", cfg.Signing.Secret)
}

func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Predictor.Timeout <= 0 {
		return fmt.Errorf("predictor.timeout must be positive")
	}
	if c.Predictor.Retries < 0 {
		return fmt.Errorf("predictor.retries cannot be negative")
	}
	if u := c.Predictor.UpstreamURL; u != "" && !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("predictor.upstream_url must be an http(s) URL: %q", u)
	}
	if c.Scoring.MaxScore <= 0 {
		return fmt.Errorf("scoring.max_score must be positive")
	}
	if c.Scoring.LowBelow > c.Scoring.HighAbove {
		return fmt.Errorf("scoring.low_below (%v) cannot exceed scoring.high_above (%v)", c.Scoring.LowBelow, c.Scoring.HighAbove)
	}
	if c.Scoring.MinAge > c.Scoring.MaxAge {
		return fmt.Errorf("scoring.min_age cannot exceed scoring.max_age")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// RemotePredictor reports whether /api/predict forwards to an upstream service.
func (c Config) RemotePredictor() bool {
	return c.Predictor.UpstreamURL != ""
}

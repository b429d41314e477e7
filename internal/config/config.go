package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Log       Log       `mapstructure:"log"       validate:"required"`
	Telemetry Telemetry `mapstructure:"telemetry" validate:"required"`
	Server    Server    `mapstructure:"server"    validate:"required"`
	UI        UI        `mapstructure:"ui"`
	Seed      Seed      `mapstructure:"seed"`
}

type Log struct {
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogDir   string `mapstructure:"log_dir"   validate:"required"`
}

type Telemetry struct {
	Enabled     bool              `mapstructure:"enabled"`
	Exporter    string            `mapstructure:"exporter"`
	Endpoint    string            `mapstructure:"endpoint"`
	Protocol    string            `mapstructure:"protocol"`
	Insecure    bool              `mapstructure:"insecure"`
	Headers     map[string]string `mapstructure:"headers"`
	ServiceName string            `mapstructure:"service_name"`
}

type Server struct {
	BaseURL    string        `mapstructure:"base_url"    validate:"required,url"`
	Timeout    time.Duration `mapstructure:"timeout"     validate:"required,gt=0"`
	MaxRetries int           `mapstructure:"max_retries" validate:"min=0,max=10"`
}

// UI carries the knobs of the two console screens. Debounce and the
// success display delay are durations the engines schedule with; tests
// shrink them.
type UI struct {
	PageSize        int           `mapstructure:"page_size"        validate:"min=1,max=100"`
	Debounce        time.Duration `mapstructure:"debounce"         validate:"gt=0"`
	SuccessDelay    time.Duration `mapstructure:"success_delay"    validate:"gt=0"`
	AssetDir        string        `mapstructure:"asset_dir"        validate:"required"`
	PlaceholderLogo string        `mapstructure:"placeholder_logo" validate:"required"`
}

type Seed struct {
	File              string `mapstructure:"file"`
	ConcurrentCreates int    `mapstructure:"concurrent_creates" validate:"min=1,max=30"`
}

type flagBinding struct {
	key  string
	flag *pflag.Flag
}

var boundFlags []flagBinding

// BindFlag ties a CLI flag to a config key. Load applies the bindings
// on its own viper instance, so flag values override file and
// environment values.
func BindFlag(key string, f *pflag.Flag) {
	boundFlags = append(boundFlags, flagBinding{key: key, flag: f})
}

func Load(cfgFile string) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvPrefix("PC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// Flexible file loading
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.product-console")
		v.AddConfigPath("/etc/product-console")
		v.SetConfigType("yaml")
	}

	// Defaults
	v.SetDefault("log.log_level", "info")
	v.SetDefault("log.log_dir", "logs")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.exporter", "otlp")
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.protocol", "grpc")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.service_name", "product-console")
	v.SetDefault("server.base_url", "http://localhost:3002/bp/products")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.max_retries", 3)
	v.SetDefault("ui.page_size", 5)
	v.SetDefault("ui.debounce", 500*time.Millisecond)
	v.SetDefault("ui.success_delay", 1500*time.Millisecond)
	v.SetDefault("ui.asset_dir", "assets")
	v.SetDefault("ui.placeholder_logo", "assets/placeholder-logo.png")
	v.SetDefault("seed.concurrent_creates", 5)

	for _, b := range boundFlags {
		if err := v.BindPFlag(b.key, b.flag); err != nil {
			return Config{}, fmt.Errorf("bind flag %s: %w", b.key, err)
		}
	}

	err := v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("config read error: %w", err)
		}
		// Not found is ok, use defaults/env
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal error: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return Config{}, fmt.Errorf("validation failed: %w", err)
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.Exporter == "otlp" && cfg.Telemetry.Endpoint == "" {
		return Config{}, fmt.Errorf("telemetry.endpoint is required when using otlp exporter")
	}
	return cfg, nil
}

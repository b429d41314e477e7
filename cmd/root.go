package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/bancalia/finconsole/packages/product_console/internal"
	"github.com/bancalia/finconsole/packages/product_console/internal/config"
	"github.com/bancalia/finconsole/packages/product_console/internal/logger"
	"github.com/bancalia/finconsole/packages/product_console/internal/telemetry"
)

var (
	cfgFile  string
	cfg      config.Config
	log      *zap.SugaredLogger
	tracer   trace.Tracer
	meter    metric.Meter
	shutdown func(context.Context) error
	services *internal.Services
	Version  = "dev" // Set at build time: go build -ldflags "-X github.com/bancalia/finconsole/packages/product_console/cmd.Version=v1.0.0"
)

var RootCmd = &cobra.Command{
	Use:   "product-console",
	Short: "Management console for the financial product catalog",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logDir := cfg.Log.LogDir
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		logFile := filepath.Join(logDir,
			fmt.Sprintf("product-console[%s].log", time.Now().Format("20060102-150405")))

		if cfg.Telemetry.Enabled {
			teleCfg := telemetry.Config{
				ServiceName: cfg.Telemetry.ServiceName,
				Exporter:    cfg.Telemetry.Exporter,
				Endpoint:    cfg.Telemetry.Endpoint,
				Protocol:    cfg.Telemetry.Protocol,
				Insecure:    cfg.Telemetry.Insecure,
				Headers:     cfg.Telemetry.Headers,
				LogFile:     logFile,
				LogLevel:    cfg.Log.LogLevel,
			}
			tracer, meter, log, shutdown, err = telemetry.InitOTEL(teleCfg)
			if err != nil {
				return fmt.Errorf("init telemetry: %w", err)
			}
		} else {
			log, err = logger.NewLogger(logFile, cfg.Log.LogLevel)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			tracer = tracenoop.NewTracerProvider().Tracer(cfg.Telemetry.ServiceName)
			meter = metricnoop.NewMeterProvider().Meter(cfg.Telemetry.ServiceName)
		}

		services, err = internal.InitServices(cfg, tracer, log, meter)
		if err != nil {
			return fmt.Errorf("init services: %w", err)
		}
		// Delete failures surface as a blocking alert; the list screen
		// has no persistent error region for them.
		services.List.OnAlert(func(msg string) {
			fmt.Fprintln(os.Stderr, msg)
		})
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if services != nil {
			services.Form.Close()
		}
		if shutdown != nil {
			if err := shutdown(context.Background()); err != nil {
				log.Errorw("shutdown error", "err", err)
				return err
			}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of product-console",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(Version)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config operations",
}

var printConfigCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the current loaded configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "Path to config file (yaml/json/toml)")

	// Flag map to avoid repetition
	type flagDef struct {
		name, key, def, usage string
	}
	flags := []flagDef{
		{"log-level", "log.log_level", "info", "Log level (debug/info/warn/error)"},
		{"telemetry.enabled", "", "true", "Enable OpenTelemetry"},
		{"telemetry.exporter", "", "otlp", "Telemetry exporter (otlp|stdout)"},
		{"telemetry.endpoint", "", "localhost:4317", "OTLP endpoint (host:port)"},
		{"telemetry.protocol", "", "grpc", "OTLP protocol (grpc|http)"},
		{"telemetry.insecure", "", "true", "Allow insecure OTLP connection"},
		{"telemetry.service-name", "", "product-console", "Service name for telemetry"},
		{"server.base-url", "", "http://localhost:3002/bp/products", "Backend base URL"},
		{"server.timeout", "", "30s", "Request timeout (duration)"},
		{"server.max-retries", "", "3", "Max retries for idempotent reads"},
		{"ui.page-size", "", "5", "Records per page"},
		{"ui.debounce", "", "500ms", "Uniqueness check debounce"},
		{"ui.success-delay", "", "1500ms", "Post-submit confirmation display delay"},
		{"ui.asset-dir", "", "assets", "Asset directory for logo resolution"},
		{"ui.placeholder-logo", "", "assets/placeholder-logo.png", "Placeholder logo path"},
		{"seed.file", "", "", "JSON file of records for the seed command"},
		{"seed.concurrent-creates", "", "5", "Concurrent creates during seed"},
	}
	for _, f := range flags {
		RootCmd.PersistentFlags().String(f.name, f.def, f.usage)
		key := f.key
		if key == "" {
			key = strings.ReplaceAll(f.name, "-", "_")
		}
		config.BindFlag(key, RootCmd.PersistentFlags().Lookup(f.name))
	}

	configCmd.AddCommand(printConfigCmd)

	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(getCmd)
	RootCmd.AddCommand(createCmd)
	RootCmd.AddCommand(updateCmd)
	RootCmd.AddCommand(deleteCmd)
	RootCmd.AddCommand(checkCmd)
	RootCmd.AddCommand(seedCmd)
	RootCmd.AddCommand(exportCmd)
	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(configCmd)
}

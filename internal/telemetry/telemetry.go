// Package telemetry boots the OTEL providers and the zap logger the
// rest of the console receives by injection.
package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config for the telemetry bootstrap.
type Config struct {
	ServiceName string
	Exporter    string            // "stdout" or "otlp"
	Endpoint    string            // OTLP endpoint, e.g. "localhost:4317"
	Protocol    string            // "grpc" or "http" (default "grpc")
	Insecure    bool              // disable TLS for OTLP (development only)
	Headers     map[string]string // custom OTLP headers, e.g. for auth
	LogFile     string            // path for JSON logs
	LogLevel    string            // "debug", "info", "warn", "error"
}

// InitOTEL sets up trace, metric and log providers and returns the
// scoped tracer and meter plus a zap logger bridged into OTEL logs.
func InitOTEL(
	cfg Config,
) (trace.Tracer, metric.Meter, *zap.SugaredLogger, func(context.Context) error, error) {
	ctx := context.Background()

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceNameKey.String(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	if cfg.Exporter == "otlp" {
		if cfg.Endpoint == "" {
			return nil, nil, nil, nil, fmt.Errorf("OTLP endpoint required")
		}
		if cfg.Protocol == "" {
			cfg.Protocol = "grpc"
		}
		if cfg.Protocol != "grpc" && cfg.Protocol != "http" {
			return nil, nil, nil, nil, fmt.Errorf("invalid protocol: %s", cfg.Protocol)
		}
	}

	traceExp, err := buildTraceExporter(ctx, cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	logExp, err := buildLogExporter(ctx, cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	metricExp, err := buildMetricExporter(ctx, cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
	)
	otel.SetMeterProvider(mp)

	lp := log.NewLoggerProvider(
		log.WithProcessor(log.NewBatchProcessor(logExp)),
		log.WithResource(res),
	)
	global.SetLoggerProvider(lp)

	tracer := otel.Tracer(cfg.ServiceName)
	meter := otel.Meter(cfg.ServiceName)
	logger := buildLogger(cfg)

	shutdown := func(ctx context.Context) error {
		var shutdownErr error
		if err := tp.Shutdown(ctx); err != nil {
			shutdownErr = err
		}
		if err := lp.Shutdown(ctx); err != nil {
			shutdownErr = err
		}
		if err := mp.Shutdown(ctx); err != nil {
			shutdownErr = err
		}
		_ = logger.Sync()
		return shutdownErr
	}

	return tracer, meter, logger, shutdown, nil
}

func buildTraceExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		var client otlptrace.Client
		if cfg.Protocol == "grpc" {
			opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
			if cfg.Insecure {
				opts = append(opts, otlptracegrpc.WithInsecure())
			}
			if len(cfg.Headers) > 0 {
				opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
			}
			client = otlptracegrpc.NewClient(opts...)
		} else {
			opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
			if cfg.Insecure {
				opts = append(opts, otlptracehttp.WithInsecure())
			}
			if len(cfg.Headers) > 0 {
				opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
			}
			client = otlptracehttp.NewClient(opts...)
		}
		return otlptrace.New(ctx, client)
	default:
		return nil, fmt.Errorf("unsupported exporter: %s", cfg.Exporter)
	}
}

func buildLogExporter(ctx context.Context, cfg Config) (log.Exporter, error) {
	switch cfg.Exporter {
	case "stdout":
		return stdoutlog.New()
	case "otlp":
		if cfg.Protocol == "grpc" {
			opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.Endpoint)}
			if cfg.Insecure {
				opts = append(opts, otlploggrpc.WithInsecure())
			}
			if len(cfg.Headers) > 0 {
				opts = append(opts, otlploggrpc.WithHeaders(cfg.Headers))
			}
			return otlploggrpc.New(ctx, opts...)
		}
		opts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlploghttp.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlploghttp.WithHeaders(cfg.Headers))
		}
		return otlploghttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported exporter: %s", cfg.Exporter)
	}
}

func buildMetricExporter(ctx context.Context, cfg Config) (sdkmetric.Exporter, error) {
	switch cfg.Exporter {
	case "stdout":
		return stdoutmetric.New(stdoutmetric.WithPrettyPrint())
	case "otlp":
		if cfg.Protocol == "grpc" {
			opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
			if cfg.Insecure {
				opts = append(opts, otlpmetricgrpc.WithInsecure())
			}
			if len(cfg.Headers) > 0 {
				opts = append(opts, otlpmetricgrpc.WithHeaders(cfg.Headers))
			}
			return otlpmetricgrpc.New(ctx, opts...)
		}
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlpmetrichttp.WithHeaders(cfg.Headers))
		}
		return otlpmetrichttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported exporter: %s", cfg.Exporter)
	}
}

// buildLogger tees a rotated JSON file core (when configured) with the
// OTEL bridge core.
func buildLogger(cfg Config) *zap.SugaredLogger {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if cfg.LogLevel != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.LogLevel))); err != nil {
			level = zap.NewAtomicLevelAt(zap.InfoLevel)
		}
	}

	var cores []zapcore.Core
	if cfg.LogFile != "" {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100, // MB
			MaxBackups: 5,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), writer, level))
	}
	cores = append(cores, otelzap.NewCore(
		cfg.ServiceName,
		otelzap.WithLoggerProvider(global.GetLoggerProvider()),
	))

	return zap.New(zapcore.NewTee(cores...)).Sugar()
}

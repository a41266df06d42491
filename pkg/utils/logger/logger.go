package logger

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"scoreboard/pkg/utils/contextkey"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global atomic.Pointer[zap.Logger]

// Config selects level, encoding and sinks.
type Config struct {
	Level      string `yaml:"level"`      // debug, info, warn, error
	Format     string `yaml:"format"`     // json, console
	OutputPath string `yaml:"outputPath"` // file path or "stdout"
	ErrorPath  string `yaml:"errorPath"`  // zap internal errors, file path or "stderr"
}

// Init replaces the global logger. Until it is called every log call is dropped.
func Init(cfg Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	global.Store(l)
	return nil
}

// New builds a zap logger from cfg.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(orDefault(cfg.Level, "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encoder := zap.NewProductionEncoderConfig()
	encoder.TimeKey = "time"
	encoder.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoder.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zc := zap.Config{
		Level:            level,
		Encoding:         encoding,
		EncoderConfig:    encoder,
		OutputPaths:      []string{orDefault(cfg.OutputPath, "stdout")},
		ErrorOutputPaths: []string{orDefault(cfg.ErrorPath, "stderr")},
	}
	return zc.Build(zap.AddCallerSkip(1))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// For returns the global logger tagged with the trace, request and contest in ctx.
func For(ctx context.Context) *zap.Logger {
	l := global.Load()
	if l == nil {
		return zap.NewNop()
	}
	return l.With(contextFields(ctx)...)
}

func contextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	var fields []zap.Field
	for _, k := range []struct {
		key  interface{}
		name string
	}{
		{contextkey.TraceID, "trace_id"},
		{contextkey.RequestID, "request_id"},
		{contextkey.Contest, "contest"},
	} {
		if v := ctx.Value(k.key); v != nil {
			fields = append(fields, zap.String(k.name, fmt.Sprint(v)))
		}
	}
	return fields
}

func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	For(ctx).Debug(msg, fields...)
}

func Info(ctx context.Context, msg string, fields ...zap.Field) {
	For(ctx).Info(msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	For(ctx).Warn(msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...zap.Field) {
	For(ctx).Error(msg, fields...)
}

// WithContest tags later log entries on ctx with the contest name.
func WithContest(ctx context.Context, contest string) context.Context {
	return context.WithValue(ctx, contextkey.Contest, contest)
}

func Sync() error {
	if l := global.Load(); l != nil {
		return l.Sync()
	}
	return nil
}

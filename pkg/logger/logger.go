package logger

import (
	"context"
	"os"
	"strings"

	"focusflow/pkg/trace"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options 日志配置；为空时取 LOG_LEVEL / LOG_FORMAT 环境变量
type Options struct {
	Service string
	Level   string // debug, info, warn, error
	Format  string // json（默认）或 console
}

func optionsFromEnv(service string) Options {
	return Options{
		Service: service,
		Level:   os.Getenv("LOG_LEVEL"),
		Format:  os.Getenv("LOG_FORMAT"),
	}
}

// Build 按 Options 构造 zap 配置，输出到 stderr，stdout 留给 CLI 的结果输出
func Build(opts Options) zap.Config {
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(opts.Format, "console") {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if opts.Level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(strings.ToLower(opts.Level))); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}
	if opts.Service != "" {
		cfg.InitialFields = map[string]interface{}{"service": opts.Service}
	}
	return cfg
}

// NewLogger 创建带 service 字段的 logger
func NewLogger(service string) *zap.Logger {
	l, err := Build(optionsFromEnv(service)).Build()
	if err != nil {
		panic(err)
	}
	return l
}

// WithTrace 从 context 中提取 trace_id 并添加到 logger
func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if traceID := trace.FromContext(ctx); traceID != "" {
		return logger.With(zap.String("trace_id", traceID))
	}
	return logger
}

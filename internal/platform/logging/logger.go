package logging

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level = zapcore.Level

const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
)

// Logger wraps zap with key/value call sites and trace correlation.
type Logger struct {
	zap *zap.Logger
}

var fallback atomic.Pointer[Logger]

func init() {
	fallback.Store(NewNop())
}

// ParseLevel accepts debug, info, warn/warning and error.
func ParseLevel(raw string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unsupported log level %q", raw)
	}
}

func NewJSON(level Level) *Logger {
	return newWithEncoder(zapcore.NewJSONEncoder(encoderConfig(zapcore.CapitalLevelEncoder)), level)
}

// NewConsole is the human readable variant used by local runs and the CLI.
func NewConsole(level Level) *Logger {
	return newWithEncoder(zapcore.NewConsoleEncoder(encoderConfig(zapcore.CapitalColorLevelEncoder)), level)
}

func NewNop() *Logger {
	return FromZap(zap.NewNop())
}

func FromZap(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{zap: z}
}

func Default() *Logger {
	if logger := fallback.Load(); logger != nil {
		return logger
	}
	return NewNop()
}

func SetDefault(logger *Logger) {
	if logger == nil {
		logger = NewNop()
	}
	fallback.Store(logger)
}

func encoderConfig(levelEncoder zapcore.LevelEncoder) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    levelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func newWithEncoder(encoder zapcore.Encoder, level Level) *Logger {
	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)
	// Info/emit sit between the call site and Check.
	return FromZap(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2), zap.AddStacktrace(zapcore.ErrorLevel)))
}

func (l *Logger) base() *zap.Logger {
	if l == nil || l.zap == nil {
		return Default().zap
	}
	return l.zap
}

func (l *Logger) Zap() *zap.Logger {
	return l.base()
}

func (l *Logger) Sync() error {
	if l == nil || l.zap == nil {
		return nil
	}
	return l.zap.Sync()
}

func (l *Logger) With(kv ...any) *Logger {
	return FromZap(l.base().With(toFields(kv)...))
}

// Tee fans every entry out to the extra cores as well, each applying its
// own level filter.
func (l *Logger) Tee(cores ...zapcore.Core) *Logger {
	if len(cores) == 0 {
		return l
	}
	return FromZap(l.base().WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(append([]zapcore.Core{core}, cores...)...)
	})))
}

// Named tags every entry with a dotted component name.
func (l *Logger) Named(component string) *Logger {
	return FromZap(l.base().Named(component))
}

func (l *Logger) Debug(msg string, kv ...any) { l.emit(nil, LevelDebug, msg, kv) }
func (l *Logger) Info(msg string, kv ...any)  { l.emit(nil, LevelInfo, msg, kv) }
func (l *Logger) Warn(msg string, kv ...any)  { l.emit(nil, LevelWarn, msg, kv) }
func (l *Logger) Error(msg string, kv ...any) { l.emit(nil, LevelError, msg, kv) }

func (l *Logger) DebugContext(ctx context.Context, msg string, kv ...any) {
	l.emit(ctx, LevelDebug, msg, kv)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, kv ...any) {
	l.emit(ctx, LevelInfo, msg, kv)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, kv ...any) {
	l.emit(ctx, LevelWarn, msg, kv)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, kv ...any) {
	l.emit(ctx, LevelError, msg, kv)
}

func (l *Logger) emit(ctx context.Context, level Level, msg string, kv []any) {
	ce := l.base().Check(level, msg)
	if ce == nil {
		return
	}
	fields := toFields(kv)
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				zap.String("trace_id", sc.TraceID().String()),
				zap.String("span_id", sc.SpanID().String()),
			)
		}
	}
	ce.Write(fields...)
}

func toFields(kv []any) []zap.Field {
	if len(kv) == 0 {
		return nil
	}

	out := make([]zap.Field, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok || key == "" {
			key = fmt.Sprintf("arg%d", i/2)
		}
		if i+1 >= len(kv) {
			out = append(out, zap.Skip())
			break
		}
		switch v := kv[i+1].(type) {
		case error:
			out = append(out, zap.NamedError(key, v))
		case zap.Field:
			out = append(out, v)
		default:
			out = append(out, zap.Any(key, v))
		}
	}
	return out
}

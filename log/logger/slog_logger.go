package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/corbocal/idx/cfg/validator"
	"github.com/corbocal/idx/log/writer"
	"github.com/corbocal/idx/ref"
	"github.com/pkg/errors"
)

// SLogOptions 日志初始化选项
type SLogOptions struct {
	// 日志级别：debug, info, warn, error
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`

	// 输出格式：text, json
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`

	// 输出目标，为空时输出到标准输出
	Output *ref.TypeOptions `yaml:"output"`

	// 时间格式，默认 RFC3339
	TimeFormat string `yaml:"timeFormat"`

	AddSource bool `yaml:"addSource"`

	// 每条日志都附带的字段
	Fields map[string]any `yaml:"fields"`
}

type SLog struct {
	slogger *slog.Logger
}

func NewSLogWithOptions(options *SLogOptions) (*SLog, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}
	if err := validator.ValidateStruct(options); err != nil {
		return nil, errors.WithMessage(err, "invalid slog options")
	}

	var w io.Writer
	if options.Output != nil {
		obj, err := ref.New(options.Output.Namespace, options.Output.Type, options.Output.Options)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to create writer")
		}
		ww, ok := obj.(writer.Writer)
		if !ok {
			return nil, errors.Errorf("%T does not implement Writer", obj)
		}
		w = ww
	} else {
		cw, err := writer.NewConsoleWriterWithOptions(nil)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to create default console writer")
		}
		w = cw
	}

	return NewSLog(w, options)
}

// NewSLog 使用给定的 io.Writer 创建日志器，Output 选项被忽略
func NewSLog(w io.Writer, options *SLogOptions) (*SLog, error) {
	if options == nil {
		options = &SLogOptions{}
	}
	if err := validator.ValidateStruct(options); err != nil {
		return nil, errors.WithMessage(err, "invalid slog options")
	}

	level, err := parseLevel(options.Level)
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: options.AddSource,
	}
	if options.TimeFormat != "" && options.TimeFormat != time.RFC3339 {
		timeFormat := options.TimeFormat
		handlerOpts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(a.Key, a.Value.Time().Format(timeFormat))
			}
			return a
		}
	}

	var handler slog.Handler
	switch strings.ToLower(options.Format) {
	case "", "text":
		handler = slog.NewTextHandler(w, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		return nil, errors.Errorf("unsupported format: %s", options.Format)
	}

	slogger := slog.New(handler)
	if len(options.Fields) > 0 {
		args := make([]any, 0, len(options.Fields)*2)
		for k, v := range options.Fields {
			args = append(args, k, v)
		}
		slogger = slogger.With(args...)
	}

	return &SLog{slogger: slogger}, nil
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, errors.Errorf("unknown level: %s", level)
}

func (l *SLog) Debug(msg string, args ...any) { l.slogger.Debug(msg, args...) }
func (l *SLog) Info(msg string, args ...any)  { l.slogger.Info(msg, args...) }
func (l *SLog) Warn(msg string, args ...any)  { l.slogger.Warn(msg, args...) }
func (l *SLog) Error(msg string, args ...any) { l.slogger.Error(msg, args...) }

func (l *SLog) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slogger.DebugContext(ctx, msg, args...)
}

func (l *SLog) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slogger.InfoContext(ctx, msg, args...)
}

func (l *SLog) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slogger.WarnContext(ctx, msg, args...)
}

func (l *SLog) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slogger.ErrorContext(ctx, msg, args...)
}

func (l *SLog) With(args ...any) Logger {
	return &SLog{slogger: l.slogger.With(args...)}
}

func (l *SLog) WithGroup(name string) Logger {
	return &SLog{slogger: l.slogger.WithGroup(name)}
}

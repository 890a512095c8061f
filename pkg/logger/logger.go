package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config สำหรับ logger
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, text
	Output     string // stdout, stderr, file, both
	FilePath   string // logs/app.log
	MaxSize    int    // MB
	MaxBackups int    // จำนวน backup files
	MaxAge     int    // วัน
	Compress   bool   // บีบอัด backup
	AddSource  bool   // แนบไฟล์/บรรทัดที่ log
}

// DefaultConfig ค่า default
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "json",
		Output:     "both",
		FilePath:   "logs/app.log",
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
		AddSource:  true,
	}
}

// context key สำหรับ request ID
type contextKey string

const (
	RequestIDKey  contextKey = "request_id"
	UserIDKey     contextKey = "user_id"
	MutationIDKey contextKey = "mutation_id"
)

var (
	defaultLogger *slog.Logger
	fileWriter    *lumberjack.Logger
)

// Init สร้าง logger จาก config
func Init(cfg Config) error {
	// Parse log level
	level := parseLevel(cfg.Level)

	// สร้าง writers ตาม output config
	writers := []io.Writer{}

	if cfg.Output == "stdout" || cfg.Output == "both" {
		writers = append(writers, os.Stdout)
	}

	// CLI ใช้ stderr เพื่อไม่ปนกับ output
	if cfg.Output == "stderr" {
		writers = append(writers, os.Stderr)
	}

	if cfg.Output == "file" || cfg.Output == "both" {
		// สร้าง directory ถ้าไม่มี
		dir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}

		// สร้าง lumberjack logger สำหรับ rotation
		fileWriter = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		writers = append(writers, fileWriter)
	}

	// รวม writers
	var writer io.Writer
	if len(writers) == 0 {
		writer = io.Discard
	} else if len(writers) == 1 {
		writer = writers[0]
	} else {
		writer = io.MultiWriter(writers...)
	}

	// สร้าง handler ตาม format
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	// สร้าง logger
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)

	return nil
}

// parseLevel แปลง string เป็น slog.Level
func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetLogger return default logger
func GetLogger() *slog.Logger {
	if defaultLogger == nil {
		// fallback ถ้ายังไม่ได้ init
		return slog.Default()
	}
	return defaultLogger
}

// Close ปิดไฟล์ log (ถ้ามี)
func Close() error {
	if fileWriter != nil {
		return fileWriter.Close()
	}
	return nil
}

// FromContext คืน logger ที่แนบ request_id / user_id / mutation_id ที่อยู่ใน context
func FromContext(ctx context.Context) *slog.Logger {
	logger := GetLogger()
	if ctx == nil {
		return logger
	}
	for _, key := range []contextKey{RequestIDKey, UserIDKey, MutationIDKey} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			logger = logger.With(string(key), v)
		}
	}
	return logger
}

// ContextWithUserID ใส่ user ID ลงใน context
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// ContextWithRequestID ใส่ request ID ลงใน context
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// ContextWithMutationID ใส่ mutation ID (X-Mutation-ID ของ client) ลงใน context
func ContextWithMutationID(ctx context.Context, mutationID string) context.Context {
	return context.WithValue(ctx, MutationIDKey, mutationID)
}

// GetRequestID ดึง request ID จาก context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// ========== Convenience functions ==========

// Debug log debug level
func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

// Info log info level
func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

// Warn log warn level
func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

// Error log error level
func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}

// ========== Context-aware functions ==========

// DebugContext log debug พร้อม field จาก context
func DebugContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Debug(msg, args...)
}

// InfoContext log info พร้อม field จาก context
func InfoContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Info(msg, args...)
}

// WarnContext log warn พร้อม field จาก context
func WarnContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Warn(msg, args...)
}

// ErrorContext log error พร้อม field จาก context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Error(msg, args...)
}

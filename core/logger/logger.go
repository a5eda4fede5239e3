package logger

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/vpasslabs/signalbot/core/buildinfo"
	coreconfig "github.com/vpasslabs/signalbot/core/config"
)

var (
	initOnce   sync.Once
	shutdownMu sync.Mutex
	shutdowned bool

	logFile *os.File

	levelVar slog.LevelVar

	// L is the base logger shared by all components.
	L *slog.Logger
)

// Init configures the global structured logger. It may be called only once.
func Init(cfg *coreconfig.Config) error {
	var initErr error
	initOnce.Do(func() {
		levelVar.Set(selectLevel(cfg))

		out := buildOutput(cfg)
		opts := &slog.HandlerOptions{Level: &levelVar}

		var handler slog.Handler
		if selectFormat(cfg) == "text" {
			handler = slog.NewTextHandler(out, opts)
		} else {
			handler = slog.NewJSONHandler(out, opts)
		}

		logger := slog.New(newCtxHandler(handler))
		L = logger
		slog.SetDefault(logger)

		logStartup(cfg)
	})
	return initErr
}

func logStartup(cfg *coreconfig.Config) {
	if L == nil {
		return
	}
	attrs := []slog.Attr{
		slog.String("component", "app"),
		slog.String("event", "startup"),
		slog.String("go_version", runtime.Version()),
		slog.String("build_commit", buildinfo.Commit),
		slog.String("build_version", buildinfo.Version),
	}
	if cfg != nil {
		attrs = append(attrs, slog.String("cfg_profile", selectProfile(cfg)))
	}
	L.LogAttrs(context.Background(), slog.LevelInfo, "startup", attrs...)
}

// Shutdown closes the log file sink if one was opened.
func Shutdown() error {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	if shutdowned {
		return nil
	}
	shutdowned = true
	if logFile != nil {
		return logFile.Close()
	}
	return nil
}

func selectFormat(cfg *coreconfig.Config) string {
	if cfg == nil {
		return "json"
	}
	raw := strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	switch raw {
	case "kv", "text", "pretty":
		return "text"
	case "json":
		return "json"
	}
	// Prefer human-friendly format when profile indicates debug/dev mode.
	if strings.EqualFold(cfg.Logging.Profile, "debug") || strings.EqualFold(cfg.Logging.Profile, "dev") {
		return "text"
	}
	return "json"
}

func selectLevel(cfg *coreconfig.Config) slog.Level {
	if cfg == nil {
		return slog.LevelInfo
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildOutput(cfg *coreconfig.Config) io.Writer {
	if cfg == nil {
		return os.Stdout
	}
	dir := strings.TrimSpace(cfg.Logging.Dir)
	file := strings.TrimSpace(cfg.Logging.File)
	if dir == "" || file == "" {
		return os.Stdout
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("logger: failed to create log dir %s: %v", dir, err)
		return os.Stdout
	}
	path := filepath.Join(dir, file)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("logger: failed to open log file %s: %v", path, err)
		return os.Stdout
	}
	logFile = f
	return io.MultiWriter(os.Stdout, f)
}

func selectProfile(cfg *coreconfig.Config) string {
	if cfg == nil {
		return ""
	}
	if profile := strings.TrimSpace(cfg.Logging.Profile); profile != "" {
		return strings.ToLower(profile)
	}
	return "prod"
}

// Component constructs a logger scoped to the provided component attribute.
func Component(name string) *slog.Logger {
	base := L
	if base == nil {
		base = slog.Default()
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return base
	}
	return base.With("component", trimmed)
}

// LogEvent logs with a leading event attribute for consistent log shapes.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if logg == nil {
		return
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, event, attrs...)
}

// Event logs with component scope resolved automatically.
func Event(ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), level, event, attrs...)
}

// Debug logs a debug-level event for the given component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

// Info logs an info-level event for the given component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

// Warn logs a warn-level event for the given component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

// Error logs an error-level event for the given component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

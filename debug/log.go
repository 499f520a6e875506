package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu       sync.Mutex
	logger   = zap.NewNop()
	level    = zap.NewAtomicLevelAt(zap.InfoLevel)
	file     *os.File
	enabled  bool
	counters = make(map[string]int)
)

// Options selects where and how much to log
type Options struct {
	// Level is a zap level name ("debug", "info", ...)
	Level string
	// File, when set, receives the log instead of stderr. The monitor owns
	// the terminal, so it always logs to a file.
	File string
}

// DefaultFile returns ~/.config/oslo-surface/debug.log
func DefaultFile() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "oslo-surface", "debug.log")
}

// Enable replaces the package logger. Calling it again reopens the output.
func Enable(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	if opts.Level != "" {
		lvl, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		level.SetLevel(lvl)
	}

	var sink zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	var f *os.File
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return err
		}
		var err error
		f, err = os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		sink = zapcore.AddSync(f)
	}

	closeFile()
	file = f
	logger = zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), sink, level))
	enabled = true

	logger.Info("=== logging started ===", zap.Stringer("level", level))
	return nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	cfg.EncodeCaller = nil
	cfg.CallerKey = ""
	return cfg
}

// UseLogger installs an already built logger, e.g. an observer in tests
func UseLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
	enabled = true
}

// Disable stops logging and closes the log file
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		logger.Sync()
	}
	closeFile()
	logger = zap.NewNop()
	enabled = false
}

func closeFile() {
	if file != nil {
		file.Close()
		file = nil
	}
}

// SetLevel changes the level of the running logger
func SetLevel(name string) error {
	lvl, err := zapcore.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	level.SetLevel(lvl)
	return nil
}

// L returns the package logger
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Named returns a child logger for one component
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Log writes a formatted debug message tagged with category
func Log(category, format string, args ...any) {
	l := L()
	if !l.Core().Enabled(zapcore.DebugLevel) {
		return
	}
	l.Debug(fmt.Sprintf(format, args...), zap.String("category", category))
}

// LogEvery logs only every N calls (use for high-frequency events)
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if n > 0 && count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}

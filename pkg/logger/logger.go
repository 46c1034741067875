package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel 日志级别
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var zerologLevels = map[LogLevel]zerolog.Level{
	DEBUG: zerolog.DebugLevel,
	INFO:  zerolog.InfoLevel,
	WARN:  zerolog.WarnLevel,
	ERROR: zerolog.ErrorLevel,
}

// Logger wraps a zerolog logger and the optional log file behind it.
type Logger struct {
	mu      sync.RWMutex
	zl      zerolog.Logger
	logFile *os.File
	console io.Writer
	level   LogLevel
}

var (
	defaultLogger *Logger
	once          sync.Once
)

func getDefaultLogger() *Logger {
	once.Do(func() {
		defaultLogger = &Logger{
			console: consoleWriter(os.Stdout, false),
			level:   DEBUG,
		}
		defaultLogger.rebuild()
	})
	return defaultLogger
}

func consoleWriter(out io.Writer, noColor bool) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    noColor,
		TimeFormat: "2006-01-02 15:04:05.000",
	}
}

// rebuild 重新创建底层 zerolog 实例，调用方必须持有写锁
func (l *Logger) rebuild() {
	var w io.Writer = l.console
	if l.logFile != nil {
		w = zerolog.MultiLevelWriter(l.console, l.logFile)
	}
	l.zl = zerolog.New(w).Level(zerologLevels[l.level]).With().Timestamp().Logger()
}

// InitConsoleLogger 初始化仅控制台日志记录
func InitConsoleLogger() {
	l := getDefaultLogger()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logFile != nil {
		l.logFile.Close()
		l.logFile = nil
	}
	l.console = consoleWriter(os.Stdout, false)
	l.rebuild()
}

// InitFileLogger 初始化文件和控制台日志记录
func InitFileLogger(logDir string) error {
	l := getDefaultLogger()
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("20060102T150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("cartelera_%s.log", timestamp))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	if l.logFile != nil {
		l.logFile.Close()
	}
	l.logFile = file
	l.rebuild()
	return nil
}

// SetOutput sends console output to w without colors. Used by tests.
func SetOutput(w io.Writer) {
	l := getDefaultLogger()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console = consoleWriter(w, true)
	l.rebuild()
}

// SetLevel 设置日志级别
func SetLevel(level LogLevel) {
	l := getDefaultLogger()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.rebuild()
}

// getModuleName 从调用栈中提取模块名称
func getModuleName(skip int) string {
	_, file, _, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	name := filepath.Base(file)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if level < l.level {
		return
	}
	l.zl.WithLevel(zerologLevels[level]).
		Str("module", getModuleName(3)).
		Msgf(format, args...)
}

// Info 记录信息消息
func Info(format string, args ...interface{}) {
	getDefaultLogger().log(INFO, format, args...)
}

// Error 记录错误消息
func Error(format string, args ...interface{}) {
	getDefaultLogger().log(ERROR, format, args...)
}

// Debug 记录调试消息
func Debug(format string, args ...interface{}) {
	getDefaultLogger().log(DEBUG, format, args...)
}

// Warn 记录警告消息
func Warn(format string, args ...interface{}) {
	getDefaultLogger().log(WARN, format, args...)
}

// InfoWithContext logs at info level with extra key/value fields.
func InfoWithContext(fields map[string]interface{}, format string, args ...interface{}) {
	l := getDefaultLogger()
	l.mu.RLock()
	defer l.mu.RUnlock()

	if INFO < l.level {
		return
	}
	l.zl.Info().
		Str("module", getModuleName(2)).
		Fields(fields).
		Msgf(format, args...)
}

// Close 关闭日志文件
func Close() error {
	l := getDefaultLogger()
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile == nil {
		return nil
	}
	err := l.logFile.Close()
	l.logFile = nil
	l.rebuild()
	return err
}

// Package logger wraps go.uber.org/zap behind the teacher's original
// call-site shape (Debug/Info/Warn/Error with an optional context map),
// so existing call sites never had to change while the actual encoding and
// output plumbing comes from a real structured-logging library instead of
// a hand-rolled fmt.Sprintf formatter.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger is a thin façade over a zap.SugaredLogger with a dynamically
// adjustable minimum level, matching the level-filtering behavior the
// original hand-rolled logger exposed via SetMinLevel.
type Logger struct {
	level *zap.AtomicLevel
	sugar *zap.SugaredLogger
}

func buildSugar(level zap.AtomicLevel) *zap.SugaredLogger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.Lock(os.Stdout), level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// NewLogger creates a new logger instance at minLevel.
func NewLogger(minLevel LogLevel) *Logger {
	level := zap.NewAtomicLevelAt(minLevel.zapLevel())
	return &Logger{level: &level, sugar: buildSugar(level)}
}

var defaultLogger = NewLogger(INFO)

func contextFields(context ...map[string]interface{}) []interface{} {
	if len(context) == 0 || len(context[0]) == 0 {
		return nil
	}
	fields := make([]interface{}, 0, len(context[0])*2)
	for k, v := range context[0] {
		fields = append(fields, k, v)
	}
	return fields
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, context ...map[string]interface{}) {
	l.sugar.Debugw(message, contextFields(context...)...)
}

// Info logs an info message.
func (l *Logger) Info(message string, context ...map[string]interface{}) {
	l.sugar.Infow(message, contextFields(context...)...)
}

// Warn logs a warning message.
func (l *Logger) Warn(message string, context ...map[string]interface{}) {
	l.sugar.Warnw(message, contextFields(context...)...)
}

// Error logs an error message.
func (l *Logger) Error(message string, context ...map[string]interface{}) {
	l.sugar.Errorw(message, contextFields(context...)...)
}

// SetMinLevel adjusts this logger's minimum level at runtime.
func (l *Logger) SetMinLevel(level LogLevel) {
	l.level.SetLevel(level.zapLevel())
}

// Package-level convenience functions using the default logger.

func Debug(message string, context ...map[string]interface{}) { defaultLogger.Debug(message, context...) }
func Info(message string, context ...map[string]interface{})  { defaultLogger.Info(message, context...) }
func Warn(message string, context ...map[string]interface{})  { defaultLogger.Warn(message, context...) }
func Error(message string, context ...map[string]interface{}) { defaultLogger.Error(message, context...) }

// SetMinLevel sets the minimum log level for the default logger.
func SetMinLevel(level LogLevel) {
	defaultLogger.SetMinLevel(level)
}

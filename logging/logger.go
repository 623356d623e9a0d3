// logging/logger.go

package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. InitLogger builds it during startup;
// tests swap in zap.NewNop().
var Log *zap.Logger

// InitLogger builds the production JSON logger, writing to stdout and the
// campus-api log files under logDirPath. LOG_LEVEL overrides the default
// info level.
func InitLogger(logDirPath string) {
	if err := os.MkdirAll(logDirPath, 0o755); err != nil {
		panic(err)
	}

	config := zap.NewProductionConfig()
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		if level, err := zapcore.ParseLevel(logLevel); err == nil {
			config.Level.SetLevel(level)
		}
	}

	config.OutputPaths = []string{"stdout", filepath.Join(logDirPath, "campus-api.log")}
	config.ErrorOutputPaths = []string{"stderr", filepath.Join(logDirPath, "campus-api_error.log")}

	config.EncoderConfig.CallerKey = "caller"
	config.EncoderConfig.StacktraceKey = "stacktrace"
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.InitialFields = map[string]interface{}{"service": "campus-api"}

	var err error
	Log, err = config.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}

	zap.ReplaceGlobals(Log)
}

func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	Log.Fatal(msg, fields...)
}

func Sync() error {
	return Log.Sync()
}

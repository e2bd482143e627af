package main

import (
	"os"

	"github.com/Tutortoise/stackblur-service/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logMaxSizeMB  = 100
	logMaxBackups = 5
	logMaxAgeDays = 30
)

// newLogger writes to stderr, and additionally to a rotating file when
// logFile is set. Debug mode switches to the colored console encoder.
func newLogger(debug bool, logFile string) *zap.Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	var consoleEncoder zapcore.Encoder
	if debug {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleEncoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		consoleEncoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), level),
	}
	if logFile != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			fileWriter,
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

func logTimings(logger *zap.Logger, t *models.ProcessingTimings) {
	logger.Debug("processing times",
		zap.String("request_id", t.RequestID),
		zap.Duration("decode", t.ImageDecode),
		zap.Duration("resize", t.Resize),
		zap.Duration("pack", t.Pack),
		zap.Duration("blur", t.Blur),
		zap.Duration("restore", t.Restore),
		zap.Duration("encode", t.Encode),
		zap.Duration("total", t.Total))
}

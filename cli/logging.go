package main

import (
	"io"
	"time"

	gateway "github.com/adonese/apikit/apigateway"
	"github.com/adonese/apikit/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logMaxSizeMB  = 100
	logMaxBackups = 5
	logMaxAgeDays = 28
)

// newLogger builds the process logger. When cfg.LogFile is set, output is
// also written to a rotating file; the returned func closes it.
func newLogger(cfg config.Config, stderr io.Writer) (*logrus.Logger, func() error) {
	logger := logrus.New()
	logger.Out = stderr
	closer := func() error { return nil }
	if cfg.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
			Compress:   true,
		}
		logger.Out = io.MultiWriter(stderr, rotator)
		closer = rotator.Close
	}
	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetReportCaller(true)
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetReportCaller(false)
	}
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	})
	return logger, closer
}

func logSampling(cfg config.Config) gateway.LogSamplingConfig {
	tick, after := cfg.LogSampling()
	return gateway.LogSamplingConfig{Tick: tick, After: after}
}

package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

// New creates a logger writing to stdout. Every entry carries the service name.
func New(level, format, service string) *logrus.Entry {
	return NewWithWriter(os.Stdout, level, format, service)
}

// NewWithWriter is New with an explicit output, mostly for tests.
func NewWithWriter(w io.Writer, level, format, service string) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(w)
	if strings.EqualFold(format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.SetLevel(ParseLevel(level))
	return logger.WithField("service", service)
}

// ParseLevel maps a config string to a logrus level, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// GormLevel picks the SQL log verbosity matching the application level.
func GormLevel(level string) gormlogger.LogLevel {
	if ParseLevel(level) == logrus.DebugLevel {
		return gormlogger.Info
	}
	return gormlogger.Warn
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

package logging

import (
	"github.com/sirupsen/logrus"

	"github.com/delimatsuo/talentsearch/pkg/config"
)

// Logger represents a logger instance
type Logger = *logrus.Logger

// Fields represents structured logging fields
type Fields = logrus.Fields

// Level represents a log level
type Level = logrus.Level

// Log levels
const (
	DebugLevel = logrus.DebugLevel
	InfoLevel  = logrus.InfoLevel
	WarnLevel  = logrus.WarnLevel
	ErrorLevel = logrus.ErrorLevel
)

// NewLogger creates a new configured logger instance
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(config.GetLogLevel())
	return logger
}

// NewLoggerWithService returns a logger built by NewLogger. The service name
// is not attached to its entries: WithField builds a separate Entry, and only
// that Entry's underlying Logger is returned.
func NewLoggerWithService(serviceName string) *logrus.Logger {
	logger := NewLogger()

	// The Entry carrying the service field is discarded here
	logger = logger.WithField("service", serviceName).Logger

	return logger
}

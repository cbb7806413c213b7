package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. level falls back to LOG_LEVEL and then
// to info, or debug when verbose is set.
func NewLogger(level string, verbose bool) *logrus.Logger {
	logger := logrus.New()

	// Set timestamp format with milliseconds
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}

	switch {
	case level != "":
		if parsed, err := logrus.ParseLevel(level); err == nil {
			logger.SetLevel(parsed)
		} else {
			logger.SetLevel(logrus.InfoLevel)
			logger.Warnf("Unknown log level %q, using info", level)
		}
	case verbose:
		logger.SetLevel(logrus.DebugLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	return logger
}

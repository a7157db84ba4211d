package config

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates the service logger: JSON to stdout at the configured
// level. An unknown level falls back to info.
func NewLogger(level string) *logrus.Logger {
	return newLogger(level, os.Stdout)
}

func newLogger(level string, out io.Writer) *logrus.Logger {
	log := logrus.New()

	// Set formatter to JSON
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		log.WithField("log_level", level).Warn("Unknown log level, using info")
	}
	log.SetLevel(lvl)
	return log
}

package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the shared structured logger. Level comes from
// GRAINBROKER_LOG_LEVEL, defaulting to info.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(os.Getenv("GRAINBROKER_LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

package config

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"
)

// SetupLogging applies the configured level and formatter to each logger.
// A log file, if any, is written as JSON and rotated by size.
func (c Config) SetupLogging(loggers ...*logrus.Logger) error {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return err
	}
	if c.Development() && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}

	var hook logrus.Hook
	if c.Log.File != "" {
		hook, err = rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
			Filename:   c.Log.File,
			MaxSize:    c.Log.MaxSize,
			MaxBackups: c.Log.MaxBackups,
			MaxAge:     c.Log.MaxAge,
			Level:      level,
			Formatter:  &logrus.JSONFormatter{TimestampFormat: time.RFC3339},
		})
		if err != nil {
			return err
		}
	}

	for _, log := range loggers {
		log.SetLevel(level)
		if c.Development() {
			log.SetFormatter(&logrus.TextFormatter{ForceColors: true})
		} else {
			log.SetFormatter(&logrus.JSONFormatter{})
		}
		if hook != nil {
			log.AddHook(hook)
		}
	}
	return nil
}

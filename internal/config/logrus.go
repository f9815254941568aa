package config

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// NewLogger builds a logger writing to out. format is "text" or "json".
func NewLogger(level, format string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logg := logrus.New()
	logg.SetOutput(out)
	logg.SetLevel(lvl)
	switch format {
	case "", "text":
		logg.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		logg.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return logg, nil
}

// DiscardLogger returns a logger that drops everything. Used in tests.
func DiscardLogger() *logrus.Logger {
	logg := logrus.New()
	logg.SetOutput(io.Discard)
	return logg
}

// Package logging builds the server's logrus logger. Logs always go to a
// writer other than stdout, which carries the MCP protocol.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options configures New.
type Options struct {
	Level  string    // logrus level name, default "info"
	Format string    // "text" (default) or "json"
	Output io.Writer // default os.Stderr
}

// New returns a logger configured from opts.
func New(opts Options) (*logrus.Logger, error) {
	logger := logrus.New()

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)

	level := logrus.InfoLevel
	if opts.Level != "" {
		var err error
		level, err = logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}
	logger.SetLevel(level)

	switch strings.ToLower(opts.Format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q: must be text or json", opts.Format)
	}

	return logger, nil
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// Package logging sets up the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EnvLevel names the environment variable read when no level flag is given.
const EnvLevel = "BVH_LOG_LEVEL"

// InitLogger installs a console logger tagged with app as log.Logger.
// level may be empty, in which case EnvLevel and then "info" are used.
func InitLogger(app, level string) (zerolog.Logger, error) {
	return initLogger(os.Stderr, app, level)
}

func initLogger(out io.Writer, app, level string) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).Level(lvl).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger, nil
}

// ParseLevel resolves a level name, falling back to EnvLevel and then info.
func ParseLevel(level string) (zerolog.Level, error) {
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(strings.ToLower(level))
}

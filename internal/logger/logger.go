package logger

import (
	"io"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init initializes the global zerolog logger.
func Init(logLevelStr string, appEnv string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	parsedLevel, err := zerolog.ParseLevel(strings.ToLower(logLevelStr))
	if err != nil || logLevelStr == "" {
		parsedLevel = zerolog.InfoLevel
		if err != nil {
			log.Warn().Err(err).Msgf("Invalid log level '%s', defaulting to 'info'", logLevelStr)
		}
	}
	zerolog.SetGlobalLevel(parsedLevel)

	var output io.Writer = os.Stdout
	if isDevelopment(appEnv) {
		output = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()

	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger)
}

// Component returns a child of the global logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}

func isDevelopment(appEnv string) bool {
	switch strings.ToLower(appEnv) {
	case "development", "dev":
		return true
	}
	return false
}

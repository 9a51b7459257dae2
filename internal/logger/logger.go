package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var (
	// Logger é a instância global de log
	Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Init configura o logger global
func Init(level string) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	var output io.Writer = os.Stdout

	// Saída legível no terminal em desenvolvimento
	if os.Getenv("ENV") == "development" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	Logger = zerolog.New(output).
		With().
		Timestamp().
		Logger()

	Logger.Debug().
		Str("level", logLevel.String()).
		Msg("logger inicializado")
}

// WithComponent retorna um logger com o campo component
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithGame retorna um logger com o App ID e o nome do jogo
func WithGame(l zerolog.Logger, appID, name string) zerolog.Logger {
	return l.With().Str("app_id", appID).Str("game", name).Logger()
}

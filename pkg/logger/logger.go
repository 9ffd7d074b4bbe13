// Package logx installs the process-global zerolog logger. Voice turns are
// chatty, so the default output is machine-readable JSON; PrettyFormat is for
// local REPL sessions.
package logx

import (
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config is loaded from LOG_* environment variables.
type Config struct {
	Debug        bool `split_words:"true" default:"false"`
	PrettyFormat bool `split_words:"true" default:"false"`
}

// InitFromEnv reads LOG_* and installs the global logger. Unparseable values
// fall back to the zero Config rather than failing startup.
func InitFromEnv() {
	var conf Config
	if err := envconfig.Process("LOG", &conf); err != nil {
		conf = Config{}
	}
	Init(conf)
}

func Init(conf Config) {
	writer := zerolog.New(os.Stdout)
	if conf.PrettyFormat {
		writer = zerolog.New(zerolog.NewConsoleWriter())
	}

	level := zerolog.InfoLevel
	if conf.Debug {
		level = zerolog.DebugLevel
	}

	log.Logger = writer.Level(level).With().
		Timestamp().
		Caller().
		Stack().
		Logger()
}

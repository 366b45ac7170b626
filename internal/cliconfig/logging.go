package cliconfig

import (
	"github.com/rs/zerolog"

	"github.com/bft-labs/fleetspeak/pkg/log"
)

// Logger returns a console logger on stderr at the given level. An invalid
// level falls back to info.
func Logger(level string) *log.ZerologAdapter {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return log.NewZerologAdapter(lvl)
}

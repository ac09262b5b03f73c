// Package sysutil holds process-level helpers: logger setup and scrubbing of
// secrets before they reach the logs.
package sysutil

import (
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetLogLevel configures the global zerolog level based on a string value.
// Supported values (case-insensitive): debug, info, warn, error, fatal, panic.
func SetLogLevel(lvl string) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info", "":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// SetupLogging sets the global level and installs the global logger writing
// to w (stderr when nil), as a console writer when pretty is set.
func SetupLogging(level string, pretty bool, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	SetLogLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

var (
	// Telegram bot tokens look like "<bot id>:<35 url-safe chars>" and show
	// up inside API URLs as ".../bot<token>/method".
	botTokenRE = regexp.MustCompile(`\d{6,}:[A-Za-z0-9_-]{30,}`)
	bearerRE   = regexp.MustCompile(`(?i)(bearer\s+)[^\s"',]+`)
)

// RedactSecrets masks bot tokens and bearer credentials in s.
func RedactSecrets(s string) string {
	if s == "" {
		return s
	}
	s = botTokenRE.ReplaceAllString(s, "[REDACTED:token]")
	return bearerRE.ReplaceAllString(s, "${1}[REDACTED]")
}

// RedactErr is RedactSecrets over err's message; nil stays "".
func RedactErr(err error) string {
	if err == nil {
		return ""
	}
	return RedactSecrets(err.Error())
}

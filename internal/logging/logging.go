// Package logging configures the process-wide zerolog logger. Configure
// runs once; later calls are no-ops so libraries and subcommands can
// call it defensively.
package logging

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Environment overrides, applied on top of the selected profile.
const (
	EnvLevel     = "STITCHAGENT_LOG_LEVEL"
	EnvTimestamp = "STITCHAGENT_LOG_TIMESTAMP"
	EnvNoColor   = "STITCHAGENT_LOG_NOCOLOR"
)

// Profile selects a baseline logger configuration.
type Profile int

const (
	// ProfileRuntime is the CLI default: info level, timestamps, color.
	ProfileRuntime Profile = iota
	// ProfileTest is quieter and omits timestamps for stable output.
	ProfileTest
)

type settings struct {
	level     zerolog.Level
	timestamp bool
	noColor   bool
}

var (
	configureOnce sync.Once
	root          zerolog.Logger
)

// Configure initializes the root logger for the given profile. Only the
// first call takes effect.
func Configure(profile Profile) {
	configureOnce.Do(func() {
		s := settings{level: zerolog.InfoLevel, timestamp: true}
		if profile == ProfileTest {
			s.level = zerolog.WarnLevel
			s.timestamp = false
			s.noColor = true
		}
		applyEnv(&s)

		w := zerolog.ConsoleWriter{
			Out:        os.Stderr,
			NoColor:    s.noColor,
			TimeFormat: time.RFC3339,
		}
		ctx := zerolog.New(w).With()
		if s.timestamp {
			ctx = ctx.Timestamp()
		}
		root = ctx.Logger()
		zerolog.SetGlobalLevel(s.level)
	})
}

// ConfigureRuntime configures the runtime profile.
func ConfigureRuntime() { Configure(ProfileRuntime) }

// ConfigureTests configures the test profile.
func ConfigureTests() { Configure(ProfileTest) }

// SetLevel adjusts the global level after configuration. Unknown level
// strings are ignored.
func SetLevel(raw string) {
	if lvl, ok := ParseLevel(raw); ok {
		zerolog.SetGlobalLevel(lvl)
	}
}

// Component returns a child logger tagged with a component name. It
// configures the runtime profile if nothing configured logging yet.
func Component(name string) zerolog.Logger {
	ConfigureRuntime()
	return root.With().Str("component", name).Logger()
}

// ParseLevel maps a level string to a zerolog level.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off":
		return zerolog.Disabled, true
	default:
		return zerolog.NoLevel, false
	}
}

func applyEnv(s *settings) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLevel)); ok {
		s.level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvTimestamp)); ok {
		s.timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvNoColor)); ok {
		s.noColor = v
	}
}

func parseBool(raw string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

// Package config loads the optional stitchagent.toml file. Everything
// in it has a working default; a missing file is only an error when the
// caller asked for a specific path.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mosaicworks/stitchagent/internal/logging"
)

// EnvConfigPath names a config file to load when no -config flag is
// given.
const EnvConfigPath = "STITCHAGENT_CONFIG"

// Config is the top-level file layout.
type Config struct {
	Ashlar AshlarConfig `toml:"ashlar"`
	Log    LogConfig    `toml:"log"`
	Notify NotifyConfig `toml:"notify"`
}

// AshlarConfig controls how the external binary is located and where
// artifacts land by default.
type AshlarConfig struct {
	Executable string `toml:"executable"`
	OutputDir  string `toml:"output_dir"`
}

// LogConfig sets the default log level; flags and environment still
// override it.
type LogConfig struct {
	Level string `toml:"level"`
}

// NotifyConfig configures the optional Telegram completion messages.
// Leaving the token empty disables notifications entirely.
type NotifyConfig struct {
	TelegramToken  string `toml:"telegram_token"`
	TelegramChatID int64  `toml:"telegram_chat_id"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Ashlar: AshlarConfig{Executable: "ashlar"},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads and validates the TOML file at path, filling unset fields
// from Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Config{}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg = withDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations that cannot work at runtime.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Ashlar.Executable) == "" {
		return fmt.Errorf("ashlar.executable must not be empty")
	}
	if cfg.Log.Level != "" {
		if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
			return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
		}
	}
	if strings.TrimSpace(cfg.Notify.TelegramToken) != "" && cfg.Notify.TelegramChatID == 0 {
		return fmt.Errorf("notify.telegram_chat_id is required when notify.telegram_token is set")
	}
	return nil
}

func withDefaults(cfg Config) Config {
	def := Default()
	if strings.TrimSpace(cfg.Ashlar.Executable) == "" {
		cfg.Ashlar.Executable = def.Ashlar.Executable
	}
	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = def.Log.Level
	}
	return cfg
}

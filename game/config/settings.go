package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/unblock/game/engine"
)

var ErrInvalidSettings = errors.New("invalid settings")

//go:embed settings.schema.json
var settingsSchemaJSON string

var settingsSchema = jsonschema.MustCompileString("settings.schema.json", settingsSchemaJSON)

// Settings is the YAML settings file
type Settings struct {
	Server   ServerSettings  `yaml:"server"`
	Levels   LevelSettings   `yaml:"levels"`
	Game     GameSettings    `yaml:"game"`
	Sessions SessionSettings `yaml:"sessions"`
	Log      LogSettings     `yaml:"log"`
}

type ServerSettings struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LevelSettings struct {
	Dir         string `yaml:"dir"`
	DefaultPack string `yaml:"default_pack"`
	Watch       bool   `yaml:"watch"`
}

type GameSettings struct {
	Wrap        string `yaml:"wrap"`
	AutoAdvance bool   `yaml:"auto_advance"`
}

type SessionSettings struct {
	TTL string `yaml:"ttl"`
}

type LogSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultSettings returns the settings used when no file is given
func DefaultSettings() Settings {
	return Settings{
		Server:   ServerSettings{Port: 8080},
		Levels:   LevelSettings{Dir: "levels", Watch: true},
		Game:     GameSettings{Wrap: engine.Saturate.String()},
		Sessions: SessionSettings{TTL: "24h"},
		Log:      LogSettings{Level: "info", Format: "text"},
	}
}

// LoadSettings reads a YAML settings file over the defaults. An empty path
// returns the defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if strings.TrimSpace(path) == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read settings: %w", err)
	}
	return ParseSettings(data)
}

// ParseSettings validates a YAML document against the settings schema and
// decodes it over the defaults.
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if doc != nil {
		if err := validateDocument(doc); err != nil {
			return s, err
		}
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if _, err := s.SessionTTL(); err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return s, nil
}

// validateDocument checks a decoded YAML document against the schema. The
// validator expects JSON values, so the document goes through JSON first.
func validateDocument(doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if err := settingsSchema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return nil
}

// Addr returns the listen address
func (s Settings) Addr() string {
	return net.JoinHostPort(s.Server.Host, strconv.Itoa(s.Server.Port))
}

// EngineOptions converts the game section into engine options
func (s Settings) EngineOptions() (engine.Options, error) {
	wrap, err := engine.ParseWrapPolicy(s.Game.Wrap)
	if err != nil {
		return engine.Options{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return engine.Options{Wrap: wrap, AutoAdvance: s.Game.AutoAdvance}, nil
}

// SessionTTL returns how long idle sessions are kept. Zero disables expiry.
func (s Settings) SessionTTL() (time.Duration, error) {
	if s.Sessions.TTL == "" {
		return 0, nil
	}
	return time.ParseDuration(s.Sessions.TTL)
}

// ConfigureLogging applies the log section to the standard logrus logger
func ConfigureLogging(ls LogSettings) error {
	level := ls.Level
	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	log.SetLevel(lvl)

	switch ls.Format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("%w: unknown log format '%s'", ErrInvalidSettings, ls.Format)
	}
	return nil
}

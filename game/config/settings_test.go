package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/unblock/game/engine"
)

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings("")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}
	if s != DefaultSettings() {
		t.Errorf("Expected defaults, got %+v", s)
	}
	if s.Addr() != ":8080" {
		t.Errorf("Expected addr :8080, got %s", s.Addr())
	}
	ttl, err := s.SessionTTL()
	if err != nil || ttl != 24*time.Hour {
		t.Errorf("Expected 24h TTL, got %v (%v)", ttl, err)
	}
}

func TestLoadSettings_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unblock.yaml")
	data := []byte(`
server:
  host: 127.0.0.1
  port: 9090
levels:
  dir: packs
  default_pack: hard
  watch: false
game:
  wrap: wrap
  auto_advance: true
sessions:
  ttl: 90m
log:
  level: debug
  format: json
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write settings: %v", err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if s.Addr() != "127.0.0.1:9090" {
		t.Errorf("Expected addr 127.0.0.1:9090, got %s", s.Addr())
	}
	if s.Levels.Dir != "packs" || s.Levels.DefaultPack != "hard" || s.Levels.Watch {
		t.Errorf("Unexpected levels section: %+v", s.Levels)
	}

	opts, err := s.EngineOptions()
	if err != nil {
		t.Fatalf("EngineOptions failed: %v", err)
	}
	if opts.Wrap != engine.Wrap || !opts.AutoAdvance {
		t.Errorf("Unexpected engine options: %+v", opts)
	}

	ttl, err := s.SessionTTL()
	if err != nil || ttl != 90*time.Minute {
		t.Errorf("Expected 90m TTL, got %v (%v)", ttl, err)
	}
}

func TestParseSettings_Partial(t *testing.T) {
	s, err := ParseSettings([]byte("game:\n  auto_advance: true\n"))
	if err != nil {
		t.Fatalf("Failed to parse settings: %v", err)
	}
	if !s.Game.AutoAdvance {
		t.Error("Expected auto_advance to be set")
	}
	if s.Server.Port != 8080 || s.Levels.Dir != "levels" {
		t.Errorf("Expected other sections to keep defaults, got %+v", s)
	}
}

func TestParseSettings_Empty(t *testing.T) {
	s, err := ParseSettings(nil)
	if err != nil {
		t.Fatalf("Failed to parse empty settings: %v", err)
	}
	if s != DefaultSettings() {
		t.Errorf("Expected defaults, got %+v", s)
	}
}

func TestParseSettings_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown section", "extra: 1\n"},
		{"unknown key", "server:\n  hostname: x\n"},
		{"port out of range", "server:\n  port: 70000\n"},
		{"port not a number", "server:\n  port: http\n"},
		{"bad wrap policy", "game:\n  wrap: bounce\n"},
		{"bad ttl", "sessions:\n  ttl: forever\n"},
		{"bad log level", "log:\n  level: loud\n"},
		{"bad log format", "log:\n  format: xml\n"},
		{"empty levels dir", "levels:\n  dir: \"\"\n"},
		{"malformed yaml", "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSettings([]byte(tt.yaml))
			if !errors.Is(err, ErrInvalidSettings) {
				t.Errorf("Expected ErrInvalidSettings, got %v", err)
			}
		})
	}
}

func TestLoadSettings_MissingFile(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestConfigureLogging(t *testing.T) {
	defer log.SetLevel(log.GetLevel())
	defer log.SetFormatter(log.StandardLogger().Formatter)

	if err := ConfigureLogging(LogSettings{Level: "debug", Format: "json"}); err != nil {
		t.Fatalf("ConfigureLogging failed: %v", err)
	}
	if log.GetLevel() != log.DebugLevel {
		t.Errorf("Expected debug level, got %s", log.GetLevel())
	}
	if _, ok := log.StandardLogger().Formatter.(*log.JSONFormatter); !ok {
		t.Error("Expected JSON formatter")
	}

	if err := ConfigureLogging(LogSettings{Format: "xml"}); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("Expected ErrInvalidSettings, got %v", err)
	}
	if err := ConfigureLogging(LogSettings{Level: "loud"}); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("Expected ErrInvalidSettings, got %v", err)
	}
}

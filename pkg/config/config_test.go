package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func TestParseExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("SAMPLE_TOKEN", "s3cret")
	cfg := sample{Name: "default", Port: 8080}
	if err := Parse([]byte("token: ${SAMPLE_TOKEN}\n"), &cfg); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Token != "s3cret" || cfg.Name != "default" || cfg.Port != 8080 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	cfg := sample{Port: 1}
	if err := Parse([]byte("prot: 9\n"), &cfg); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestParseValidates(t *testing.T) {
	cfg := sample{}
	err := Parse([]byte("port: 0\n"), &cfg)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.yaml")

	cfg := sample{Port: 9000}
	if err := LoadWithDefaults(missing, "", &cfg); err != nil {
		t.Fatalf("missing file without default: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("port = %d", cfg.Port)
	}

	fallback := filepath.Join(dir, "default.yaml")
	if err := os.WriteFile(fallback, []byte("port: 7000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadWithDefaults(missing, fallback, &cfg); err != nil {
		t.Fatalf("fallback: %v", err)
	}
	if cfg.Port != 7000 {
		t.Errorf("port = %d, want 7000", cfg.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg := sample{Port: 1}
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Fatal("expected error for missing file")
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Level int    `yaml:"level"`
}

func (s *sample) Validate() error {
	if s.Level < 0 {
		return errors.New("level must be non-negative")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "chair")
	s := sample{Level: 3}
	if err := Load(writeFile(t, "name: ${SAMPLE_NAME}\n"), &s); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Name != "chair" || s.Level != 3 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s := sample{Name: "default"}
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &s); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Name != "default" {
		t.Errorf("name = %q", s.Name)
	}
}

func TestLoad_Invalid(t *testing.T) {
	var s sample
	if err := Load(writeFile(t, "level: -1\n"), &s); err == nil {
		t.Fatal("expected validation error")
	}
	if err := Load(writeFile(t, "level: [\n"), &s); err == nil {
		t.Fatal("expected parse error")
	}
}

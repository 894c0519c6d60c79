package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aquaplan/aquaplan/internal/domain"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Valid(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
store_path: /tmp/aqua.db
timezone: Europe/Berlin
weekly_day: 6
monthly_day: 15
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StorePath != "/tmp/aqua.db" {
		t.Errorf("StorePath = %q", cfg.StorePath)
	}
	if cfg.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.WeeklyDay != 6 || cfg.MonthlyDay != 15 {
		t.Errorf("reminders = %d/%d", cfg.WeeklyDay, cfg.MonthlyDay)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StorePath != "aquaplan.db" || cfg.Timezone != "UTC" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.WeeklyDay != 0 || cfg.MonthlyDay != 1 {
		t.Errorf("reminder defaults = %d/%d", cfg.WeeklyDay, cfg.MonthlyDay)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "store_path: [unterminated")

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
timezone: Atlantis/Nowhere
weekly_day: 9
monthly_day: 40
`)

	_, err := Load(path)
	var engErr *domain.EngineError
	if !errors.As(err, &engErr) || engErr.Code != domain.ErrConfigInvalid.Code {
		t.Fatalf("err = %v, want config-invalid", err)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != StoreLevelDB {
		t.Fatalf("store = %q", cfg.Store)
	}
	if cfg.ProgramID != DefaultProgramID {
		t.Fatalf("program id = %q", cfg.ProgramID)
	}
	if cfg.Listen != ":8080" {
		t.Fatalf("listen = %q", cfg.Listen)
	}
	if cfg.ReadTimeout != 10*time.Second {
		t.Fatalf("read timeout = %s", cfg.ReadTimeout)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	data := "store: memory\nlisten: \":9000\"\nlog-level: debug\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("WALIEN_LOG_LEVEL", "warn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("listen", "", "")
	if err := flags.Parse([]string{"--listen", ":7000"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != StoreMemory {
		t.Fatalf("store = %q", cfg.Store)
	}
	if cfg.Listen != ":7000" {
		t.Fatalf("listen = %q, want flag value", cfg.Listen)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("log level = %q, want env value", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		cfg Config
		ok  bool
	}{
		{Config{Store: StoreMemory}, true},
		{Config{Store: StoreLevelDB}, false},
		{Config{Store: StoreLevelDB, LevelDBPath: "x"}, true},
		{Config{Store: StorePostgres}, false},
		{Config{Store: StorePostgres, PGDSN: "postgres://"}, true},
		{Config{Store: "redis"}, false},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if (err == nil) != tc.ok {
			t.Fatalf("%+v: err = %v", tc.cfg, err)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("1700000000")
	if err != nil || ts != 1700000000 {
		t.Fatalf("unix: %d %v", ts, err)
	}
	ts, err = ParseTimestamp("2023-11-14T22:13:20Z")
	if err != nil || ts != 1700000000 {
		t.Fatalf("rfc3339: %d %v", ts, err)
	}
	ts, err = ParseTimestamp("  ")
	if err != nil || ts != 0 {
		t.Fatalf("empty: %d %v", ts, err)
	}
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatalf("expected error")
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hailam/chessai/internal/engine"
)

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvDataDir, EnvDifficulty, EnvWorkers, EnvAddr, EnvSeed} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFiles(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatal(err)
	}
	want := &Config{Difficulty: engine.Medium, Workers: 1, Addr: DefaultAddr}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("defaults (-want +got):\n%s", diff)
	}
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDataDir, "/tmp/chessai")
	t.Setenv(EnvDifficulty, "expert")
	t.Setenv(EnvWorkers, "0")
	t.Setenv(EnvAddr, "127.0.0.1:9000")
	t.Setenv(EnvSeed, "42")

	cfg, err := LoadFiles()
	if err != nil {
		t.Fatal(err)
	}
	want := &Config{
		DataDir:    "/tmp/chessai",
		Difficulty: engine.Expert,
		Workers:    0,
		Addr:       "127.0.0.1:9000",
		Seed:       42,
		Seeded:     true,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}

	eng := cfg.NewEngine()
	if eng.Difficulty() != engine.Expert || eng.Workers() < 1 {
		t.Errorf("engine difficulty %v workers %d", eng.Difficulty(), eng.Workers())
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAddr, ":7000")

	path := filepath.Join(t.TempDir(), ".env")
	content := "CHESSAI_DIFFICULTY=Hard\nCHESSAI_ADDR=:6000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv(EnvDifficulty) })

	cfg, err := LoadFiles(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Difficulty != engine.Hard {
		t.Errorf("Difficulty = %v, want Hard from .env", cfg.Difficulty)
	}
	if cfg.Addr != ":7000" {
		t.Errorf("Addr = %q, environment should override .env", cfg.Addr)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvDifficulty, "grandmaster"},
		{EnvWorkers, "many"},
		{EnvWorkers, "-2"},
		{EnvSeed, "-1"},
	}
	for _, tc := range tests {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)
			if _, err := LoadFiles(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

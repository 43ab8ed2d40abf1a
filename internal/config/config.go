// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/hailam/chessai/internal/engine"
)

// ErrInvalidConfig wraps every malformed setting.
var ErrInvalidConfig = errors.New("invalid configuration")

// Environment variables.
const (
	EnvDataDir    = "CHESSAI_DATA_DIR"
	EnvDifficulty = "CHESSAI_DIFFICULTY"
	EnvWorkers    = "CHESSAI_WORKERS"
	EnvAddr       = "CHESSAI_ADDR"
	EnvSeed       = "CHESSAI_SEED"
)

// DefaultAddr is the HTTP listen address when CHESSAI_ADDR is unset.
const DefaultAddr = ":8080"

// Config holds the settings shared by the binaries.
type Config struct {
	DataDir    string // empty selects the platform data directory
	Difficulty engine.Difficulty
	Workers    int
	Addr       string

	Seed   uint64
	Seeded bool // Seed was set explicitly
}

// Load reads .env from the working directory if present, then the
// environment. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv files. Missing files are skipped.
func LoadFiles(files ...string) (*Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, f, err)
		}
	}

	cfg := &Config{
		DataDir:    os.Getenv(EnvDataDir),
		Difficulty: engine.Medium,
		Workers:    1,
		Addr:       DefaultAddr,
	}

	if v := os.Getenv(EnvDifficulty); v != "" {
		d, err := engine.ParseDifficulty(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvDifficulty, err)
		}
		cfg.Difficulty = d
	}

	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %s must be a non-negative integer, got %q", ErrInvalidConfig, EnvWorkers, v)
		}
		cfg.Workers = n
	}

	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Addr = v
	}

	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvSeed, err)
		}
		cfg.Seed, cfg.Seeded = seed, true
	}

	return cfg, nil
}

// NewEngine builds an engine with the configured difficulty and workers.
// A zero worker count uses every CPU.
func (c *Config) NewEngine() *engine.Engine {
	var opts []engine.Option
	if c.Seeded {
		opts = append(opts, engine.WithRand(rand.New(rand.NewPCG(c.Seed, c.Seed))))
	}

	eng := engine.NewEngine(opts...)
	eng.SetDifficulty(c.Difficulty)
	eng.SetWorkers(c.Workers)
	return eng
}

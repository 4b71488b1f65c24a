// Package config loads engine tuning values from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nathoo/lairgrid/types"
)

// Config holds tunables that are not part of game content.
type Config struct {
	TileSize  float64 `yaml:"tile_size"`
	MoveSpeed float64 `yaml:"move_speed"` // world units per tick
	Seed      int64   `yaml:"seed"`

	// Lair behaviour. Spawn intervals are counted in turns.
	SpawnIntervalMin   int     `yaml:"spawn_interval_min"`
	SpawnIntervalMax   int     `yaml:"spawn_interval_max"`
	RoamingCount       int     `yaml:"roaming_count"`
	RoamingSpread      int     `yaml:"roaming_spread"`
	GuardianCount      int     `yaml:"guardian_count"`
	GuardianWakeRadius float64 `yaml:"guardian_wake_radius"`
	LairClaimRadius    float64 `yaml:"lair_claim_radius"`

	DefaultEnemyAbility types.Ability `yaml:"default_enemy_ability"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogFile   string `yaml:"log_file"`
	SaveDir   string `yaml:"save_dir"`
	SaveDB    string `yaml:"save_db"`
}

// Default returns the built-in configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".lairgrid")
	return Config{
		TileSize:           120,
		MoveSpeed:          15,
		SpawnIntervalMin:   4,
		SpawnIntervalMax:   9,
		RoamingCount:       3,
		RoamingSpread:      2,
		GuardianCount:      6,
		GuardianWakeRadius: 5,
		LairClaimRadius:    10,
		DefaultEnemyAbility: types.Ability{
			Name:        "Strike",
			Effect:      "target['hp'] -= 1",
			Description: "A clumsy blow.",
			Target:      "enemy",
		},
		LogLevel:  "warn",
		LogFormat: "text",
		SaveDir:   filepath.Join(base, "saves"),
		SaveDB:    filepath.Join(base, "saves.db"),
	}
}

// Load reads a YAML file and overlays it onto Default(). Fields missing from
// the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c Config) Validate() error {
	var errs []string
	if c.TileSize <= 0 {
		errs = append(errs, "tile_size must be positive")
	}
	if c.MoveSpeed <= 0 {
		errs = append(errs, "move_speed must be positive")
	}
	if c.SpawnIntervalMin <= 0 || c.SpawnIntervalMax < c.SpawnIntervalMin {
		errs = append(errs, fmt.Sprintf("spawn interval [%d,%d] is invalid", c.SpawnIntervalMin, c.SpawnIntervalMax))
	}
	if c.RoamingCount < 0 || c.RoamingSpread < 0 || c.GuardianCount < 0 {
		errs = append(errs, "spawn counts must not be negative")
	}
	if c.DefaultEnemyAbility.Effect == "" {
		errs = append(errs, "default_enemy_ability.effect is required")
	}
	if len(errs) > 0 {
		return errors.New("invalid config: " + strings.Join(errs, "; "))
	}
	return nil
}

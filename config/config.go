package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigRows                = "rows"
	ConfigCols                = "cols"
	ConfigWindowLength        = "window-length"
	ConfigEnginePiece         = "engine-piece"
	ConfigCacheStore          = "cache-store"
	ConfigCachePath           = "cache-path"
	ConfigEasyIterations      = "easy-iterations"
	ConfigMediumIterations    = "medium-iterations"
	ConfigHardIterations      = "hard-iterations"
	ConfigExplorationConstant = "exploration-constant"
	ConfigMinimaxDepth        = "minimax-depth"
	ConfigExactTimeout        = "exact-timeout"
	ConfigSolverCommand       = "solver-command"
	ConfigSolverTTFraction    = "solver-tt-fraction"
	ConfigPollInterval        = "poll-interval"
	ConfigMaxWait             = "max-wait"
	ConfigCheckpointEvery     = "checkpoint-every"
	ConfigTrainingDepth       = "training-depth"
	ConfigTrainingThreads     = "training-threads"
	ConfigSeed                = "seed"
	ConfigDebug               = "debug"
	ConfigFile                = "config"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds every tunable of the engine. Values come (lowest precedence
// first) from defaults, an optional YAML file, CONNECTUM_* environment
// variables and command-line flags.
type Config struct {
	viper.Viper
}

func DefaultConfig() *Config {
	c := &Config{Viper: *viper.New()}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigRows, 6)
	c.SetDefault(ConfigCols, 7)
	c.SetDefault(ConfigWindowLength, 4)
	c.SetDefault(ConfigEnginePiece, 1)
	c.SetDefault(ConfigCacheStore, "json")
	c.SetDefault(ConfigCachePath, "./data/lookup_table.json")
	c.SetDefault(ConfigEasyIterations, 100)
	c.SetDefault(ConfigMediumIterations, 1000)
	c.SetDefault(ConfigHardIterations, 1000)
	c.SetDefault(ConfigExplorationConstant, 1.414)
	c.SetDefault(ConfigMinimaxDepth, 6)
	c.SetDefault(ConfigExactTimeout, 10*time.Second)
	c.SetDefault(ConfigSolverCommand, "")
	c.SetDefault(ConfigSolverTTFraction, 0.1)
	c.SetDefault(ConfigPollInterval, 20*time.Millisecond)
	c.SetDefault(ConfigMaxWait, 30*time.Second)
	c.SetDefault(ConfigCheckpointEvery, 1)
	c.SetDefault(ConfigTrainingDepth, 4)
	c.SetDefault(ConfigTrainingThreads, 1)
	c.SetDefault(ConfigSeed, uint64(0))
	c.SetDefault(ConfigDebug, false)
}

// Flags returns a flag set registering every configuration key. The flag
// set is bound into the config by Load.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String(ConfigFile, "", "optional YAML configuration file")
	fs.Int(ConfigRows, 6, "board rows")
	fs.Int(ConfigCols, 7, "board columns")
	fs.Int(ConfigWindowLength, 4, "pieces in a row needed to win")
	fs.Int(ConfigEnginePiece, 1, "piece value the engine plays (1 or 2)")
	fs.String(ConfigCacheStore, "json", "position cache store: json, sqlite, badger or none")
	fs.String(ConfigCachePath, "./data/lookup_table.json", "position cache location")
	fs.Int(ConfigEasyIterations, 100, "rollout iterations for the easy tier")
	fs.Int(ConfigMediumIterations, 1000, "rollout iterations for the medium tier")
	fs.Int(ConfigHardIterations, 1000, "tree search iterations for the hard tier")
	fs.Float64(ConfigExplorationConstant, 1.414, "UCB1 exploration constant")
	fs.Int(ConfigMinimaxDepth, 6, "search depth for the minimax tier")
	fs.Duration(ConfigExactTimeout, 10*time.Second, "time budget for one exact analysis")
	fs.String(ConfigSolverCommand, "", "external solver executable; empty uses the built-in solver")
	fs.Float64(ConfigSolverTTFraction, 0.1, "fraction of system memory for the solver transposition table")
	fs.Duration(ConfigPollInterval, 20*time.Millisecond, "worker mailbox poll interval")
	fs.Duration(ConfigMaxWait, 30*time.Second, "maximum time to wait for a worker reply")
	fs.Int(ConfigCheckpointEvery, 1, "flush the cache every N training sequences")
	fs.Int(ConfigTrainingDepth, 4, "opponent moves enumerated per training sequence")
	fs.Int(ConfigTrainingThreads, 1, "parallel training workers")
	fs.Uint64(ConfigSeed, 0, "random seed; 0 picks one")
	fs.Bool(ConfigDebug, false, "debug logging")
	return fs
}

// Load parses args and merges every configuration source.
func (c *Config) Load(args []string) error {
	fs := Flags("connectum")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return c.LoadFlags(fs)
}

// LoadFlags merges an already-parsed flag set (for example one owned by a
// cobra command) with the file and environment sources.
func (c *Config) LoadFlags(fs *pflag.FlagSet) error {
	c.Viper = *viper.New()
	c.setDefaults()
	c.SetEnvPrefix("connectum")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	if path := c.GetString(ConfigFile); path != "" {
		c.SetConfigFile(path)
		c.SetConfigType("yaml")
		if err := c.ReadInConfig(); err != nil {
			return err
		}
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	rows, cols, wl := c.GetInt(ConfigRows), c.GetInt(ConfigCols), c.GetInt(ConfigWindowLength)
	switch {
	case rows < 1 || cols < 1:
		return errors.Join(ErrInvalidConfig, errors.New("board dimensions must be positive"))
	case wl < 2 || (wl > rows && wl > cols):
		return errors.Join(ErrInvalidConfig, errors.New("window length does not fit the board"))
	case c.GetInt(ConfigEnginePiece) != 1 && c.GetInt(ConfigEnginePiece) != 2:
		return errors.Join(ErrInvalidConfig, errors.New("engine piece must be 1 or 2"))
	case c.GetFloat64(ConfigSolverTTFraction) <= 0 || c.GetFloat64(ConfigSolverTTFraction) > 0.9:
		return errors.Join(ErrInvalidConfig, errors.New("solver-tt-fraction must be in (0, 0.9]"))
	case c.GetFloat64(ConfigExplorationConstant) <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("exploration-constant must be positive"))
	}
	for _, key := range []string{ConfigEasyIterations, ConfigMediumIterations, ConfigHardIterations,
		ConfigMinimaxDepth, ConfigCheckpointEvery, ConfigTrainingThreads} {
		if c.GetInt(key) < 1 {
			return fmt.Errorf("%w: %s must be at least 1, got %d", ErrInvalidConfig, key, c.GetInt(key))
		}
	}
	if c.GetInt(ConfigTrainingDepth) < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, ConfigTrainingDepth)
	}
	for _, key := range []string{ConfigPollInterval, ConfigMaxWait, ConfigExactTimeout} {
		if c.GetDuration(key) <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, key, c.GetDuration(key))
		}
	}
	return nil
}

// AdjustRelativePaths resolves the cache path against basePath when it is
// relative, so binaries can be started from any directory.
func (c *Config) AdjustRelativePaths(basePath string) {
	p := c.GetString(ConfigCachePath)
	if p == "" || filepath.IsAbs(p) {
		return
	}
	if _, err := os.Stat(p); err == nil {
		return
	}
	c.Set(ConfigCachePath, filepath.Join(basePath, p))
}

// SanitizedSettings returns all settings for logging.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}

// Package config loads tool-level settings with priority
// defaults < smelt.toml < SMELT_* environment variables.
// Command-line flags override later, at the CLI layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the default config file name, looked up in the project
// directory.
const FileName = "smelt.toml"

// Environment variable names.
const (
	EnvWorkDir  = "SMELT_WORK_DIR"
	EnvParallel = "SMELT_PARALLEL"
	EnvLogLevel = "SMELT_LOG_LEVEL"
	EnvNoColor  = "SMELT_NO_COLOR"
)

// Config holds tool-level settings, fully populated after Load.
type Config struct {
	// WorkDir overrides where part work directories are kept.
	// Empty means alongside parts.yaml in the project directory.
	WorkDir string

	// Parallel is exported to build scripts as the parallel build count.
	Parallel int

	LogLevel string
	NoColor  bool
}

// FileConfig mirrors Config with pointer fields so an absent key can be
// told apart from a zero value.
type FileConfig struct {
	WorkDir  *string `toml:"work-dir"`
	Parallel *int    `toml:"parallel"`
	LogLevel *string `toml:"log-level"`
	NoColor  *bool   `toml:"no-color"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Parallel: runtime.NumCPU(),
		LogLevel: "info",
	}
}

// Load loads configuration for a project. configPath names an explicit
// config file; when empty, projectDir/smelt.toml is used. A missing
// file is not an error.
func Load(projectDir, configPath string) (*Config, error) {
	cfg := Default()

	fileCfg, err := loadFile(projectDir, configPath)
	if err != nil {
		return nil, err
	}
	if fileCfg != nil {
		mergeFile(cfg, fileCfg)
	}

	applyEnv(cfg)
	return cfg, nil
}

func loadFile(projectDir, configPath string) (*FileConfig, error) {
	if configPath == "" {
		configPath = filepath.Join(projectDir, FileName)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg FileConfig
	if err := toml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("invalid TOML in %s: %w", configPath, err)
	}
	return &fileCfg, nil
}

func mergeFile(cfg *Config, file *FileConfig) {
	if file.WorkDir != nil {
		cfg.WorkDir = *file.WorkDir
	}
	if file.Parallel != nil && *file.Parallel > 0 {
		cfg.Parallel = *file.Parallel
	}
	if file.LogLevel != nil {
		cfg.LogLevel = *file.LogLevel
	}
	if file.NoColor != nil {
		cfg.NoColor = *file.NoColor
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvWorkDir); v != "" {
		cfg.WorkDir = v
	}
	if v := os.Getenv(EnvParallel); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			cfg.Parallel = i
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvNoColor); v != "" {
		cfg.NoColor = v == "true" || v == "1"
	}
}

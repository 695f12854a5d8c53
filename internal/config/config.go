// Package config loads the project file of a CAP generation run and applies
// environment overrides to it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

const ConfigFileName = "ccpp.yaml"

// Environment variables overriding the project file.
const (
	EnvPasses            = "CCPP_PASSES"
	EnvTarget            = "CCPP_TARGET"
	EnvOutputDir         = "CCPP_OUTPUT_DIR"
	EnvOutputModuleFiles = "CCPP_OUTPUT_MODULE_FILES"
)

// Defaults used when neither the project file nor the environment set a field.
const (
	DefaultPasses    = "generate-meta-cap,generate-suite-cap,strip-ccpp"
	DefaultTarget    = "ftn"
	DefaultOutputDir = "generated"
)

type ProjectConfig struct {
	Passes            string `yaml:"passes"`
	Target            string `yaml:"target"`
	OutputDir         string `yaml:"output_dir"`
	OutputModuleFiles bool   `yaml:"output_module_files"`

	// Inputs of ccpp-meta, relative to the project directory.
	Suites  []string `yaml:"suites,omitempty"`
	Schemes []string `yaml:"schemes,omitempty"`
	Hosts   []string `yaml:"hosts,omitempty"`
}

// Default returns the configuration of a run without a project file.
func Default() *ProjectConfig {
	return &ProjectConfig{
		Passes:    DefaultPasses,
		Target:    DefaultTarget,
		OutputDir: DefaultOutputDir,
	}
}

// Load reads ConfigFileName from dir. Fields missing from the file keep
// their default value.
func Load(dir string) (*ProjectConfig, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

// LoadEnv loads the .env file of dir into the process environment, if
// present. Variables already set are not overwritten.
func LoadEnv(dir string) error {
	err := godotenv.Load(filepath.Join(dir, ".env"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// ApplyEnv overrides the fields of cfg set in the environment.
func (cfg *ProjectConfig) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvPasses); ok {
		cfg.Passes = v
	}
	if v, ok := os.LookupEnv(EnvTarget); ok {
		cfg.Target = v
	}
	if v, ok := os.LookupEnv(EnvOutputDir); ok {
		cfg.OutputDir = v
	}
	if v, ok := os.LookupEnv(EnvOutputModuleFiles); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvOutputModuleFiles, err)
		}
		cfg.OutputModuleFiles = b
	}
	return nil
}

// Resolve returns the configuration of dir: the project file if any, or the
// defaults, with the .env file and environment applied on top.
func Resolve(dir string) (*ProjectConfig, error) {
	if err := LoadEnv(dir); err != nil {
		return nil, err
	}
	cfg, err := Load(dir)
	if errors.Is(err, ErrConfigNotFound) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

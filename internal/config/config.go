// Package config loads relint run configuration. Precedence: CLI flag >
// RELINT_* environment variable > config file > default.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ConfigDirName is the per-workspace directory holding config and state.
const ConfigDirName = ".relint"

// Config represents the complete relint configuration
type Config struct {
	Version int `json:"version" mapstructure:"version" yaml:"version"`

	Projects  SelectionConfig `json:"projects" mapstructure:"projects" yaml:"projects"`
	Files     FilesConfig     `json:"files" mapstructure:"files" yaml:"files"`
	Manifest  string          `json:"manifest" mapstructure:"manifest" yaml:"manifest"`

	LiteralMatch    bool `json:"literalMatch" mapstructure:"literalMatch" yaml:"literalMatch"`
	Parallel        bool `json:"parallel" mapstructure:"parallel" yaml:"parallel"`
	ContinueOnError bool `json:"continueOnError" mapstructure:"continueOnError" yaml:"continueOnError"`

	Compiler ToolConfig    `json:"compiler" mapstructure:"compiler" yaml:"compiler"`
	Linter   LinterConfig  `json:"linter" mapstructure:"linter" yaml:"linter"`
	Editor   EditorConfig  `json:"editor" mapstructure:"editor" yaml:"editor"`
	Watcher  WatcherConfig `json:"watcher" mapstructure:"watcher" yaml:"watcher"`
	History  HistoryConfig `json:"history" mapstructure:"history" yaml:"history"`
	Logging  LoggingConfig `json:"logging" mapstructure:"logging" yaml:"logging"`
}

// SelectionConfig filters the project universe.
type SelectionConfig struct {
	Include []string `json:"include" mapstructure:"include" yaml:"include"`
	Ignore  []string `json:"ignore" mapstructure:"ignore" yaml:"ignore"`
}

// FilesConfig filters files within included projects.
type FilesConfig struct {
	Include   []string `json:"include" mapstructure:"include" yaml:"include"`
	Ignore    []string `json:"ignore" mapstructure:"ignore" yaml:"ignore"`
	Extension string   `json:"extension" mapstructure:"extension" yaml:"extension"`
}

// ToolConfig names the compiler and its flag configuration.
type ToolConfig struct {
	Path        string   `json:"path" mapstructure:"path" yaml:"path"`
	Flags       []string `json:"flags" mapstructure:"flags" yaml:"flags"`
	IncludeDirs []string `json:"includeDirs" mapstructure:"includeDirs" yaml:"includeDirs"`
}

// LinterConfig names the linter and its lint / lint-fix flag sets.
type LinterConfig struct {
	Path     string   `json:"path" mapstructure:"path" yaml:"path"`
	Flags    []string `json:"flags" mapstructure:"flags" yaml:"flags"`
	FixFlags []string `json:"fixFlags" mapstructure:"fixFlags" yaml:"fixFlags"`
}

// EditorConfig locates the hosting editor's RPC endpoint.
type EditorConfig struct {
	Address string `json:"address" mapstructure:"address" yaml:"address"`
}

// WatcherConfig controls external-edit detection during fix batches.
type WatcherConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
	Root    string `json:"root" mapstructure:"root" yaml:"root"`
}

// HistoryConfig controls run-history persistence.
type HistoryConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
	Dir     string `json:"dir" mapstructure:"dir" yaml:"dir"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level" yaml:"level"`
	Format string `json:"format" mapstructure:"format" yaml:"format"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Version:  1,
		Manifest: filepath.Join(ConfigDirName, "projects.yaml"),
		Files:    FilesConfig{Extension: ".cpp"},
		Compiler: ToolConfig{Path: "clang++"},
		Linter:   LinterConfig{Path: "clang-tidy"},
		Watcher:  WatcherConfig{Enabled: true},
		History:  HistoryConfig{Enabled: true, Dir: ConfigDirName},
		Logging:  LoggingConfig{Level: "info", Format: "human"},
	}
}

// Load reads <dir>/.relint/config.yaml, layering it over the defaults. A
// missing file is not an error; RELINT_* environment variables override both.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(dir, ConfigDirName))
	v.SetEnvPrefix("RELINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Default())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("manifest", d.Manifest)
	v.SetDefault("files.extension", d.Files.Extension)
	v.SetDefault("compiler.path", d.Compiler.Path)
	v.SetDefault("linter.path", d.Linter.Path)
	v.SetDefault("watcher.enabled", d.Watcher.Enabled)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.dir", d.History.Dir)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Write renders the configuration as YAML at path, creating parent
// directories as needed. Used by `relint init`.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// Load loads configuration from every layer and returns the effective config.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cws, err := LoadWithSources(fs, args)
	if err != nil {
		return nil, err
	}
	return cws.Config, nil
}

// LoadWithSources loads configuration and tracks the source of each value.
// Returns ConfigWithSources containing the config and a map of field names to their sources.
func LoadWithSources(fs *flag.FlagSet, args []string) (*ConfigWithSources, error) {
	cws := &ConfigWithSources{
		Config:  &Config{},
		Sources: make(map[string]ConfigSource),
	}
	cfg := cws.Config

	// 1. Defaults
	setDefaults(cfg)
	for _, field := range configFields() {
		cws.Sources[field] = SourceDefault
	}

	// 2. User config file
	if path := findUserConfigFile(); path != "" {
		if err := cws.loadFile(path, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", path, err)
		}
	}

	// 3. Project config file (overrides user config)
	if path := findProjectConfigFile(); path != "" {
		if err := cws.loadFile(path, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", path, err)
		}
	}

	// 4. Environment
	warnings := loadFromEnv(cfg, cws.Sources)
	cws.Warnings = append(cws.Warnings, warnings...)

	// 5. CLI flags override everything
	if err := parseFlags(cfg, fs, args, cws.Sources); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 6. Derived values
	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}
	return cws, nil
}

// loadFile decodes a TOML file over the current config. Only keys present in
// the file change values or sources; unknown keys become warnings.
func (cws *ConfigWithSources) loadFile(path string, source ConfigSource) error {
	md, err := toml.DecodeFile(path, cws.Config)
	if err != nil {
		return err
	}
	cws.Files = append(cws.Files, path)

	for _, key := range md.Keys() {
		cws.Sources[key.String()] = source
	}
	undecoded := md.Undecoded()
	keys := make([]string, 0, len(undecoded))
	for _, key := range undecoded {
		keys = append(keys, key.String())
	}
	sort.Strings(keys)
	for _, key := range keys {
		cws.Warnings = append(cws.Warnings, fmt.Sprintf("%s: unknown key %q", path, key))
	}
	return nil
}

// GetConfigFile returns the highest-priority config file that was read.
func (cws *ConfigWithSources) GetConfigFile() string {
	if len(cws.Files) == 0 {
		return ""
	}
	return cws.Files[len(cws.Files)-1]
}

// finalizeConfig computes derived values and resolves paths.
func finalizeConfig(cfg *Config) error {
	cfg.LogDir = expandPath(cfg.LogDir)
	cfg.DataFile = expandPath(cfg.DataFile)
	cfg.SchemaFile = expandPath(cfg.SchemaFile)
	cfg.HookCommand = expandPath(cfg.HookCommand)

	if cfg.ProjectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		cfg.ProjectRoot = wd
	}

	if cfg.DataFile == "" {
		return fmt.Errorf("data_file is empty")
	}
	cfg.DataFile = resolvePath(cfg.ProjectRoot, cfg.DataFile)
	if cfg.SchemaFile != "" {
		cfg.SchemaFile = resolvePath(cfg.ProjectRoot, cfg.SchemaFile)
	}
	return nil
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

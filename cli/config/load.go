package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file, expands environment variables, and
// unmarshals into a Config struct.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	expanded := ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	return &cfg, nil
}

// Discover loads smelt.yaml from the script's directory, falling back to
// the working directory. A missing config file is not an error: the zero
// Config is returned so flag defaults apply.
func Discover(scriptDir string) (*Config, error) {
	for _, dir := range candidateDirs(scriptDir) {
		path := filepath.Join(dir, DefaultFileName)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return Load(path)
	}
	return &Config{}, nil
}

func candidateDirs(scriptDir string) []string {
	dirs := []string{}
	if scriptDir != "" {
		dirs = append(dirs, scriptDir)
	}
	if cwd, err := os.Getwd(); err == nil && cwd != scriptDir {
		dirs = append(dirs, cwd)
	}
	return dirs
}

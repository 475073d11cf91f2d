package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name looked up in the root.
const DefaultConfigFile = ".mintmerge"

// UserConfigFile is the configuration file name inside the XDG config directory.
const UserConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads a configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
// Unknown keys are rejected so that typos do not go unnoticed.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := decodeStrict(data, &cf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if abs, err := filepath.Abs(path); err == nil {
		cf.dir = filepath.Dir(abs)
	} else {
		cf.dir = filepath.Dir(path)
	}

	return &cf, nil
}

// decodeStrict decodes YAML into v, failing on unknown fields.
// An empty document leaves v untouched.
func decodeStrict(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .mintmerge in root (the working directory when root is empty)
// 3. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath, root string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if root == "" {
		if cwd, err := os.Getwd(); err == nil {
			root = cwd
		}
	}
	if root != "" {
		rootConfig := filepath.Join(root, DefaultConfigFile)
		if info, err := os.Stat(rootConfig); err == nil && !info.IsDir() {
			return rootConfig
		}
	}

	userConfig := filepath.Join(XDGConfigDir(), UserConfigFile)
	if _, err := os.Stat(userConfig); err == nil {
		return userConfig
	}

	return ""
}

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/stackprobe"
	projectConfigDir = ".stackprobe"
	configFileName   = "config.yaml"
)

var validate = validator.New()

// LoadConfig loads the stackprobe configuration by layering default, user,
// project and, when explicitPath is set, explicitly requested settings.
//
// It is called once per CLI invocation: nothing is cached between calls, so
// edits to any layer are picked up by the next invocation.
func LoadConfig(explicitPath string) (HarnessConfig, error) {
	// 1. Start with the default configuration
	config := GetDefaultConfig()

	// 2. User-specific configuration
	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// User config is optional
		fmt.Fprintf(os.Stderr, "Warning: Could not determine user config path: %v\n", err)
	} else if err := mergeConfigFile(&config, userConfigPath, true); err != nil {
		return HarnessConfig{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
	}

	// 3. Project-specific configuration
	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not determine project config path: %v\n", err)
	} else if err := mergeConfigFile(&config, projectConfigPath, true); err != nil {
		return HarnessConfig{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
	}

	// 4. Explicit configuration must exist when requested
	if explicitPath != "" {
		if err := mergeConfigFile(&config, explicitPath, false); err != nil {
			return HarnessConfig{}, fmt.Errorf("error loading config from %s: %w", explicitPath, err)
		}
	}

	if err := Validate(config); err != nil {
		return HarnessConfig{}, err
	}
	return config, nil
}

// Validate checks a configuration against its struct constraints.
func Validate(config HarnessConfig) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// mergeConfigFile decodes a YAML file on top of config. Keys present in the
// file replace the current values, absent keys keep them.
func mergeConfigFile(config *HarnessConfig, filePath string, optional bool) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, config)
}

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// Package config loads and validates DelegateHoistOptions documents.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"

	"github.com/anvil-platform/delegatehoist/api/v1alpha1"
)

const (
	// EnvPrefix prefixes every environment override, e.g. DELEGATEHOIST_RUNTIME.
	EnvPrefix = "DELEGATEHOIST"
	// DefaultConfigName is the base name looked up when no file is given.
	DefaultConfigName = "delegatehoist"
)

// Scalar options that may be overridden from the environment.
var envKeys = []string{"runtime", "container", "eager", "applicationName", "debug"}

// Load reads options from path (YAML or JSON) and applies DELEGATEHOIST_*
// environment overrides. With an empty path a delegatehoist.{yaml,yml,json}
// in the working directory is used when present; otherwise options come from
// the environment alone.
//
// Load does not validate; see Validate.
func Load(path string) (v1alpha1.DelegateHoistOptions, error) {
	var opts v1alpha1.DelegateHoistOptions

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	file, err := findConfigFile(v, path)
	if err != nil {
		return opts, err
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return opts, fmt.Errorf("read options %s: %w", file, err)
		}
		// viper lowercases map keys, which would corrupt remote and shared names.
		if err := yaml.UnmarshalStrict(data, &opts); err != nil {
			return opts, fmt.Errorf("decode options %s: %w", file, err)
		}
	}

	v.SetDefault("runtime", opts.Runtime)
	v.SetDefault("container", opts.Container)
	v.SetDefault("eager", opts.Eager)
	v.SetDefault("applicationName", opts.ApplicationName)
	v.SetDefault("debug", opts.Debug)

	opts.Runtime = v.GetString("runtime")
	opts.Container = v.GetString("container")
	opts.Eager = v.GetBool("eager")
	opts.ApplicationName = v.GetString("applicationName")
	opts.Debug = v.GetBool("debug")

	opts.Default()
	return opts, nil
}

func findConfigFile(v *viper.Viper, path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("options file: %w", err)
		}
		return path, nil
	}

	v.SetConfigName(DefaultConfigName)
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("discover options file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

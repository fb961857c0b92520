// Package config loads the backend's TOML configuration file and hands each
// section to the component that owns it: `[log]` decodes into log.LogCfg,
// `[plugin]` and `[pools]` stay as raw maps for the plugin and pool managers
// to decode themselves.
package config

import (
	"fmt"
	"os"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"

	"github.com/harborgrid/keelson/log"
)

// AppConfig is the decoded top-level configuration of one keelson process.
type AppConfig struct {
	Log    *log.LogCfg
	Plugin map[string]any
	Pools  map[string]any
}

// LoadFile reads and parses the TOML configuration at path.
func LoadFile(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Load parses TOML configuration data.
func Load(data []byte) (*AppConfig, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	cfg := &AppConfig{}

	if section, ok := raw["log"]; ok {
		logCfg := &log.LogCfg{}
		if err := decodeSection(section, logCfg); err != nil {
			return nil, fmt.Errorf("log section: %w", err)
		}
		cfg.Log = logCfg
	}
	if section, ok := raw["plugin"]; ok {
		m, ok := section.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("plugin section must be a table")
		}
		cfg.Plugin = m
	}
	if section, ok := raw["pools"]; ok {
		m, ok := section.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("pools section must be a table")
		}
		cfg.Pools = m
	}
	return cfg, nil
}

// decodeSection maps one raw TOML table onto a typed config struct. Level
// names like "info" decode into log.Level values.
func decodeSection(section any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       logLevelHook,
		Result:           target,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(section)
}

// logLevelHook converts level name strings into log.Level.
func logLevelHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.String && to == reflect.TypeOf(log.Level(0)) {
		return log.ParseLevel(data.(string)), nil
	}
	return data, nil
}

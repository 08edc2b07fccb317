package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cperrin88/mvnindex/pkg/errutils"
)

// settingKeys lists the keys accepted by SetValue and GetValue in display order.
var settingKeys = []string{
	"index_dir",
	"local_repository",
	"cache_dir",
	"http_timeout",
	"max_concurrent_sources",
	"update_hook",
	"archetype_hook",
	"output_format",
	"log_level",
}

// Keys returns the supported setting keys.
func Keys() []string {
	return append([]string(nil), settingKeys...)
}

// SetValue sets a setting by its YAML key. The new value is validated.
func (c *Config) SetValue(key, value string) error {
	updated := c.Settings
	switch key {
	case "index_dir":
		updated.IndexDir = value
	case "local_repository":
		updated.LocalRepository = value
	case "cache_dir":
		updated.CacheDir = value
	case "http_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: http_timeout %q: %w", errutils.ErrConfigValidation, value, err)
		}
		updated.HTTPTimeout = d
	case "max_concurrent_sources":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: max_concurrent_sources %q: %w", errutils.ErrConfigValidation, value, err)
		}
		updated.MaxConcurrentSources = n
	case "update_hook":
		updated.UpdateHook = value
	case "archetype_hook":
		updated.ArchetypeHook = value
	case "output_format":
		updated.OutputFormat = value
	case "log_level":
		updated.LogLevel = value
	default:
		return fmt.Errorf("%w: %s", errutils.ErrUnknownConfigKey, key)
	}

	if err := validateSettings(updated); err != nil {
		return err
	}
	c.Settings = updated
	return nil
}

// GetValue returns a setting by its YAML key.
func (c *Config) GetValue(key string) (string, error) {
	switch key {
	case "index_dir":
		return c.Settings.IndexDir, nil
	case "local_repository":
		return c.Settings.LocalRepository, nil
	case "cache_dir":
		return c.Settings.CacheDir, nil
	case "http_timeout":
		return c.Settings.HTTPTimeout.String(), nil
	case "max_concurrent_sources":
		return strconv.Itoa(c.Settings.MaxConcurrentSources), nil
	case "update_hook":
		return c.Settings.UpdateHook, nil
	case "archetype_hook":
		return c.Settings.ArchetypeHook, nil
	case "output_format":
		return c.Settings.OutputFormat, nil
	case "log_level":
		return c.Settings.LogLevel, nil
	default:
		return "", fmt.Errorf("%w: %s", errutils.ErrUnknownConfigKey, key)
	}
}

// ToMap returns every setting as a string, keyed like the YAML file.
// This is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string, len(settingKeys))
	for _, key := range settingKeys {
		value, err := c.GetValue(key)
		if err != nil {
			continue
		}
		result[key] = value
	}
	return result
}

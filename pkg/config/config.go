// Package config loads, validates and saves the mvnindex configuration file.
// The file is YAML; missing values are filled with defaults derived from the
// platform's data, cache and home directories.
package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cperrin88/mvnindex/pkg/errutils"
	"github.com/cperrin88/mvnindex/pkg/fsutil"
	"github.com/cperrin88/mvnindex/pkg/location"
)

// Config represents the application configuration.
type Config struct {
	Settings Settings `yaml:"settings"`

	// Remote Maven repositories that get an index.
	Repositories []*RepositoryConfig `yaml:"repositories"`

	// Additional archetype catalogs, local files or http(s) URLs.
	ArchetypeCatalogs []*CatalogConfig `yaml:"archetype_catalogs"`
}

// RepositoryConfig represents one remote repository.
type RepositoryConfig struct {
	Name string      `yaml:"name"`
	URL  string      `yaml:"url"`
	Auth *AuthConfig `yaml:"auth,omitempty"`
}

// CatalogConfig represents one archetype catalog.
type CatalogConfig struct {
	Name     string      `yaml:"name"`
	Location string      `yaml:"location"`
	Auth     *AuthConfig `yaml:"auth,omitempty"`
}

// Settings represents general application settings.
type Settings struct {
	// Storage
	IndexDir        string `yaml:"index_dir,omitempty"`
	LocalRepository string `yaml:"local_repository,omitempty"`
	CacheDir        string `yaml:"cache_dir,omitempty"`

	// Network settings
	HTTPTimeout          time.Duration `yaml:"http_timeout"`
	MaxConcurrentSources int           `yaml:"max_concurrent_sources"`

	// Hook scripts
	UpdateHook    string `yaml:"update_hook,omitempty"`
	ArchetypeHook string `yaml:"archetype_hook,omitempty"`

	// Output settings
	OutputFormat string `yaml:"output_format"` // text, json
	LogLevel     string `yaml:"log_level"`     // error, warn, info, debug
}

// Default configuration values.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultMaxConcurrentSources is the default number of archetype sources
	// queried in parallel.
	DefaultMaxConcurrentSources = 4

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	indexDir, err := fsutil.GetIndicesDir()
	if err != nil {
		indexDir = filepath.Join(os.TempDir(), fsutil.AppName, "indices")
	}
	cacheDir, err := fsutil.GetCacheDir()
	if err != nil {
		cacheDir = filepath.Join(os.TempDir(), fsutil.AppName, "cache")
	}
	localRepo, err := fsutil.GetLocalRepositoryDir()
	if err != nil {
		localRepo = ""
	}

	return &Config{
		Repositories:      []*RepositoryConfig{},
		ArchetypeCatalogs: []*CatalogConfig{},
		Settings: Settings{
			IndexDir:             indexDir,
			LocalRepository:      localRepo,
			CacheDir:             cacheDir,
			HTTPTimeout:          DefaultHTTPTimeout,
			MaxConcurrentSources: DefaultMaxConcurrentSources,
			OutputFormat:         "text",
			LogLevel:             "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// default configuration.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errutils.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errutils.Wrap(errutils.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errutils.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errutils.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %w", errutils.ErrConfigParse, err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveConfig writes the configuration to path atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errutils.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errutils.Wrap(errutils.ErrInvalidConfigPath, err.Error())
	}

	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return fmt.Errorf("%w: %w", errutils.ErrConfigDirectory, err)
	}

	data, err := c.ToYAML()
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(absPath, data, fsutil.FileModeSecure); err != nil {
		return fmt.Errorf("%w: %w", errutils.ErrConfigFileCreate, err)
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	var sb strings.Builder
	encoder := yaml.NewEncoder(&sb)
	encoder.SetIndent(YAMLIndent)
	if err := encoder.Encode(c); err != nil {
		return nil, fmt.Errorf("%w: %w", errutils.ErrConfigMarshal, err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", errutils.ErrConfigEncode, err)
	}
	return []byte(sb.String()), nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errutils.ErrConfigValidation
	}
	if err := validateRepositories(c.Repositories); err != nil {
		return err
	}
	if err := validateCatalogs(c.ArchetypeCatalogs); err != nil {
		return err
	}
	return validateSettings(c.Settings)
}

func validateRepositories(repos []*RepositoryConfig) error {
	names := make(map[string]bool)
	for i, repo := range repos {
		if repo == nil || repo.Name == "" {
			return fmt.Errorf("%w: repository %d has no name", errutils.ErrConfigValidation, i)
		}
		if repo.URL == "" {
			return fmt.Errorf("repository '%s': %w", repo.Name, errutils.ErrEmptyRepositoryURL)
		}
		if !location.IsRemote(repo.URL) {
			return fmt.Errorf("%w: repository '%s' URL %q is not remote", errutils.ErrConfigValidation, repo.Name, repo.URL)
		}
		if names[repo.Name] {
			return errutils.ErrRepositoryExistsWithName(repo.Name)
		}
		names[repo.Name] = true
	}
	return nil
}

func validateCatalogs(catalogs []*CatalogConfig) error {
	names := make(map[string]bool)
	for i, catalog := range catalogs {
		if catalog == nil || catalog.Name == "" {
			return fmt.Errorf("%w: archetype catalog %d has no name", errutils.ErrConfigValidation, i)
		}
		if catalog.Location == "" {
			return fmt.Errorf("archetype catalog '%s': %w", catalog.Name, errutils.ErrEmptyCatalogLocation)
		}
		if names[catalog.Name] {
			return fmt.Errorf("%w: duplicate archetype catalog '%s'", errutils.ErrConfigValidation, catalog.Name)
		}
		names[catalog.Name] = true
	}
	return nil
}

func validateSettings(s Settings) error {
	if s.HTTPTimeout < 0 {
		return errutils.ErrHTTPTimeoutNegative
	}
	if s.MaxConcurrentSources < 1 {
		return errutils.ErrMaxConcurrentInvalid
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[s.OutputFormat] {
		return errutils.ErrInvalidOutputFormatWithDetails(s.OutputFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errutils.ErrInvalidLogLevelWithDetails(s.LogLevel)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, fsutil.AppName, "config.yaml"), nil
}

// GetIndexDir returns the directory holding index data.
func (c *Config) GetIndexDir() string {
	return expandHome(c.Settings.IndexDir)
}

// GetLocalRepository returns the local Maven repository path.
func (c *Config) GetLocalRepository() string {
	return expandHome(c.Settings.LocalRepository)
}

// GetCacheDir returns the base cache directory.
func (c *Config) GetCacheDir() string {
	return expandHome(c.Settings.CacheDir)
}

// GetCatalogCacheDir returns where downloaded archetype catalogs are kept.
func (c *Config) GetCatalogCacheDir() string {
	return filepath.Join(c.GetCacheDir(), "catalogs")
}

// GetUpdateHook returns the path of the post-update script, if any.
func (c *Config) GetUpdateHook() string {
	return expandHome(c.Settings.UpdateHook)
}

// GetArchetypeHook returns the path of the post-archetype-add script, if any.
func (c *Config) GetArchetypeHook() string {
	return expandHome(c.Settings.ArchetypeHook)
}

// RemoteURLs returns the URLs of the configured repositories in order.
func (c *Config) RemoteURLs() []string {
	urls := make([]string, 0, len(c.Repositories))
	for _, repo := range c.Repositories {
		urls = append(urls, repo.URL)
	}
	return urls
}

// AddRepository adds a repository. It fails when the name is taken.
func (c *Config) AddRepository(name, rawURL string) error {
	if c.GetRepository(name) != nil {
		return errutils.ErrRepositoryExistsWithName(name)
	}
	c.Repositories = append(c.Repositories, &RepositoryConfig{Name: name, URL: rawURL})
	return nil
}

// RemoveRepository removes a repository by name.
func (c *Config) RemoveRepository(name string) bool {
	for i, repo := range c.Repositories {
		if repo.Name == name {
			c.Repositories = append(c.Repositories[:i], c.Repositories[i+1:]...)
			return true
		}
	}
	return false
}

// GetRepository gets a repository configuration by name.
func (c *Config) GetRepository(name string) *RepositoryConfig {
	for _, repo := range c.Repositories {
		if repo.Name == name {
			return repo
		}
	}
	return nil
}

// GetURL parses the repository URL.
func (rc *RepositoryConfig) GetURL() *url.URL {
	parsed, err := url.Parse(rc.URL)
	if err != nil {
		return nil
	}
	return parsed
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.IndexDir == "" {
		c.Settings.IndexDir = defaults.Settings.IndexDir
	}
	if c.Settings.LocalRepository == "" {
		c.Settings.LocalRepository = defaults.Settings.LocalRepository
	}
	if c.Settings.CacheDir == "" {
		c.Settings.CacheDir = defaults.Settings.CacheDir
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.MaxConcurrentSources == 0 {
		c.Settings.MaxConcurrentSources = defaults.Settings.MaxConcurrentSources
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.Settings.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if c.Repositories == nil {
		c.Repositories = []*RepositoryConfig{}
	}
	if c.ArchetypeCatalogs == nil {
		c.ArchetypeCatalogs = []*CatalogConfig{}
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

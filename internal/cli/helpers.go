package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cperrin88/mvnindex/internal/logger"
	"github.com/cperrin88/mvnindex/pkg/archetype"
	"github.com/cperrin88/mvnindex/pkg/config"
	"github.com/cperrin88/mvnindex/pkg/download"
	"github.com/cperrin88/mvnindex/pkg/engine"
	"github.com/cperrin88/mvnindex/pkg/hooks"
	"github.com/cperrin88/mvnindex/pkg/index"
	"github.com/cperrin88/mvnindex/pkg/location"
	"github.com/cperrin88/mvnindex/pkg/manager"
	"github.com/cperrin88/mvnindex/pkg/scheduler"
)

// These variables will be set by the main package
var (
	ConfigPath   *string
	Verbose      *bool
	OutputFormat *string
)

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		// An empty path makes LoadConfig fail with a descriptive error.
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

// loadConfig loads the configuration, applies the global flags and
// initializes the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if OutputFormat != nil && *OutputFormat != "" {
		cfg.Settings.OutputFormat = *OutputFormat
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.InitLogger(cfg.Settings.LogLevel, logger.OutputFormat(cfg.Settings.OutputFormat))
	return cfg, nil
}

func loadDownloadManager(cfg *config.Config) *download.ManagerImpl {
	return download.NewManager(cfg.Settings.HTTPTimeout, "").WithAuth(cfg.AuthTable())
}

// loadHookExecutor registers the configured hook scripts.
func loadHookExecutor(cfg *config.Config) (*hooks.TengoExecutor, error) {
	executor := hooks.NewTengoExecutor()
	if path := cfg.GetUpdateHook(); path != "" {
		if err := hooks.LoadScriptFile(executor, hooks.PostUpdate, path); err != nil {
			return nil, err
		}
	}
	if path := cfg.GetArchetypeHook(); path != "" {
		if err := hooks.LoadScriptFile(executor, hooks.PostArchetypeAdd, path); err != nil {
			return nil, err
		}
	}
	return executor, nil
}

// loadCatalogProviders builds one archetype source per configured catalog.
func loadCatalogProviders(cfg *config.Config, dl *download.ManagerImpl) ([]archetype.Source, error) {
	providers := make([]archetype.Source, 0, len(cfg.ArchetypeCatalogs))
	for _, catalog := range cfg.ArchetypeCatalogs {
		if location.IsRemote(catalog.Location) {
			provider, err := archetype.NewRemoteCatalogProvider(catalog.Name, catalog.Location, dl, cfg.GetCatalogCacheDir())
			if err != nil {
				return nil, fmt.Errorf("archetype catalog '%s': %w", catalog.Name, err)
			}
			providers = append(providers, provider)
			continue
		}
		path, err := filepath.Abs(catalog.Location)
		if err != nil {
			return nil, fmt.Errorf("archetype catalog '%s': %w", catalog.Name, err)
		}
		providers = append(providers, archetype.NewCatalogFileProvider(catalog.Name, path))
	}
	return providers, nil
}

// loadManager wires the index manager from the configuration. Progress
// events are written to out.
func loadManager(cfg *config.Config, out io.Writer) (*manager.Manager, error) {
	dl := loadDownloadManager(cfg)

	executor, err := loadHookExecutor(cfg)
	if err != nil {
		return nil, err
	}
	providers, err := loadCatalogProviders(cfg, dl)
	if err != nil {
		return nil, err
	}

	return manager.New(manager.Options{
		IndexDir: cfg.GetIndexDir(),
		EngineFactory: func() (index.Engine, error) {
			return engine.New(dl), nil
		},
		Providers:            providers,
		CompletionHook:       hooks.CompletionHook(executor),
		ArchetypeHook:        hooks.ArchetypeHook(executor),
		EventHook:            progressPrinter(out),
		MaxConcurrentSources: cfg.Settings.MaxConcurrentSources,
	}), nil
}

// withManager runs fn with an initialized manager and shuts it down afterwards.
func withManager(cmd *cobra.Command, fn func(*config.Config, *manager.Manager) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mgr, err := loadManager(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if err := mgr.Shutdown(); err != nil {
			logger.Warn("Failed to close indices", logger.Fields{"error": err})
		}
	}()
	if err := mgr.Init(cmd.Context()); err != nil {
		return fmt.Errorf("failed to initialize index manager: %w", err)
	}
	return fn(cfg, mgr)
}

func progressPrinter(out io.Writer) func(scheduler.Event) {
	return func(e scheduler.Event) {
		if e.ID != "" {
			_, _ = fmt.Fprintf(out, "%s: %s (%s)\n", e.Phase, e.Msg, e.ID)
		} else {
			_, _ = fmt.Fprintf(out, "%s: %s\n", e.Phase, e.Msg)
		}
	}
}

func jsonOutput(cfg *config.Config) bool {
	return cfg.Settings.OutputFormat == string(logger.FormatJSON)
}

func writeJSON(out io.Writer, v interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

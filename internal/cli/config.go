package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cperrin88/mvnindex/internal/logger"
	"github.com/cperrin88/mvnindex/pkg/config"
	"github.com/cperrin88/mvnindex/pkg/errutils"
)

// NewConfigCmd creates the config command with subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "View and modify mvnindex configuration settings",
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigSetCmd(),
		newConfigGetCmd(),
		newConfigInitCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current configuration settings",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}

	return cmd
}

// Number of arguments expected by the set command.
const setCommandArgs = 2

func newConfigSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration key to a specific value",
		Args:  cobra.ExactArgs(setCommandArgs),
		RunE: func(_ *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}

	return cmd
}

func newConfigGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Get a configuration value",
		Long:  "Get the value of a specific configuration key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd, args[0])
		},
	}

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		Long:  "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigInit(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration file")

	return cmd
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if jsonOutput(cfg) {
		return writeJSON(out, configView{
			Settings:          cfg.ToMap(),
			Repositories:      repositoryViews(cfg),
			ArchetypeCatalogs: catalogViews(cfg),
		})
	}

	tabWriter := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tabWriter, "SETTING\tVALUE")
	_, _ = fmt.Fprintln(tabWriter, "-------\t-----")

	settings := cfg.ToMap()
	for _, key := range config.Keys() {
		_, _ = fmt.Fprintf(tabWriter, "%s\t%s\n", key, settings[key])
	}
	_ = tabWriter.Flush()

	_, _ = fmt.Fprintf(out, "\nRepositories (%d):\n", len(cfg.Repositories))
	for _, repo := range cfg.Repositories {
		_, _ = fmt.Fprintf(out, "  %s: %s\n", repo.Name, repo.URL)
	}
	_, _ = fmt.Fprintf(out, "\nArchetype catalogs (%d):\n", len(cfg.ArchetypeCatalogs))
	for _, catalog := range cfg.ArchetypeCatalogs {
		_, _ = fmt.Fprintf(out, "  %s: %s\n", catalog.Name, catalog.Location)
	}

	return nil
}

// Views leave out credentials.
type configView struct {
	Settings          map[string]string `json:"settings"`
	Repositories      []namedLocation   `json:"repositories"`
	ArchetypeCatalogs []namedLocation   `json:"archetype_catalogs"`
}

type namedLocation struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

func repositoryViews(cfg *config.Config) []namedLocation {
	views := make([]namedLocation, 0, len(cfg.Repositories))
	for _, repo := range cfg.Repositories {
		views = append(views, namedLocation{Name: repo.Name, Location: repo.URL})
	}
	return views
}

func catalogViews(cfg *config.Config) []namedLocation {
	views := make([]namedLocation, 0, len(cfg.ArchetypeCatalogs))
	for _, catalog := range cfg.ArchetypeCatalogs {
		views = append(views, namedLocation{Name: catalog.Name, Location: catalog.Location})
	}
	return views
}

func runConfigSet(key, value string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := cfg.SetValue(key, value); err != nil {
		return fmt.Errorf("failed to set configuration value: %w", err)
	}

	if err := cfg.SaveConfig(getConfigPath()); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	logger.Success("Configuration updated", logger.Fields{"key": key, "value": value})
	return nil
}

func runConfigGet(cmd *cobra.Command, key string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	value, err := cfg.GetValue(key)
	if err != nil {
		return fmt.Errorf("failed to get configuration value: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigInit(force bool) error {
	configPath := getConfigPath()

	if fileExists(configPath) && !force {
		return fmt.Errorf("configuration file already exists at %s: %w", configPath, errutils.ErrConfigFileExists)
	}

	if err := config.DefaultConfig().SaveConfig(configPath); err != nil {
		return fmt.Errorf("failed to save default configuration: %w", err)
	}

	logger.Success("Configuration file created", logger.Fields{"path": configPath})
	return nil
}

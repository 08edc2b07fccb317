package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cperrin88/mvnindex/pkg/cache"
	"github.com/cperrin88/mvnindex/pkg/config"
)

// NewCacheCmd creates the cache command with subcommands.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage index data and downloaded catalogs",
		Long:  "Clean and show information about index data and downloaded archetype catalogs",
	}

	cmd.AddCommand(
		newCacheCleanCmd(),
		newCacheInfoCmd(),
	)

	return cmd
}

func newCacheCleanCmd() *cobra.Command {
	var (
		all      bool
		indices  bool
		catalogs bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean cached data",
		Long: `Remove index data directories and downloaded archetype catalogs.
The user archetype list is kept. Removed indices are recreated by 'index ensure'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheClean(cmd, all, indices, catalogs)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Clean everything")
	cmd.Flags().BoolVar(&indices, "indices", false, "Clean only index data")
	cmd.Flags().BoolVar(&catalogs, "catalogs", false, "Clean only downloaded archetype catalogs")

	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show cache information",
		Long:  "Display the size of index data and downloaded archetype catalogs",
		Args:  cobra.NoArgs,
		RunE:  runCacheInfo,
	}

	return cmd
}

func loadCacheOperation(cfg *config.Config) *cache.CacheOperation {
	return cache.NewCacheOperation(cache.NewManager(cfg.GetIndexDir(), cfg.GetCatalogCacheDir()))
}

func runCacheClean(cmd *cobra.Command, all, indices, catalogs bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	message, err := loadCacheOperation(cfg).Clean(all, indices, catalogs)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), message)
	return nil
}

func runCacheInfo(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	info, err := loadCacheOperation(cfg).GetInfo()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), info)
	return nil
}

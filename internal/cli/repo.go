package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cperrin88/mvnindex/internal/logger"
	"github.com/cperrin88/mvnindex/pkg/errutils"
)

// NewRepoCmd creates the repo command with subcommands.
func NewRepoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage remote repositories",
		Long:  "Add, remove and list the remote repositories that get an index",
	}

	cmd.AddCommand(
		newRepoAddCmd(),
		newRepoRemoveCmd(),
		newRepoListCmd(),
	)

	return cmd
}

// Number of arguments expected by the repo add command.
const repoAddArgs = 2

func newRepoAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add NAME URL",
		Short: "Add a remote repository",
		Long:  "Add a remote repository. Its index is created by the next 'index ensure'.",
		Args:  cobra.ExactArgs(repoAddArgs),
		RunE: func(_ *cobra.Command, args []string) error {
			return runRepoAdd(args[0], args[1])
		},
	}

	return cmd
}

func newRepoRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove a remote repository",
		Long:  "Remove a remote repository by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runRepoRemove(args[0])
		},
	}

	return cmd
}

func newRepoListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List remote repositories",
		Long:  "List the configured remote repositories",
		Args:  cobra.NoArgs,
		RunE:  runRepoList,
	}

	return cmd
}

func runRepoAdd(name, rawURL string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := cfg.AddRepository(name, rawURL); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.SaveConfig(getConfigPath()); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	logger.Success("Repository added", logger.Fields{"name": name, "url": rawURL})
	return nil
}

func runRepoRemove(name string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !cfg.RemoveRepository(name) {
		return fmt.Errorf("%w: repository '%s' not found", errutils.ErrValidation, name)
	}
	if err := cfg.SaveConfig(getConfigPath()); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	logger.Success("Repository removed", logger.Fields{"name": name})
	return nil
}

func runRepoList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if jsonOutput(cfg) {
		return writeJSON(out, repositoryViews(cfg))
	}

	tabWriter := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tabWriter, "NAME\tURL")
	for _, repo := range cfg.Repositories {
		_, _ = fmt.Fprintf(tabWriter, "%s\t%s\n", repo.Name, repo.URL)
	}
	return tabWriter.Flush()
}

package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cperrin88/mvnindex/internal/logger"
	"github.com/cperrin88/mvnindex/pkg/archetype"
	"github.com/cperrin88/mvnindex/pkg/config"
	"github.com/cperrin88/mvnindex/pkg/manager"
)

// NewArchetypeCmd creates the archetype command with subcommands.
func NewArchetypeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archetype",
		Short: "Manage archetypes",
		Long:  "List the known project archetypes and add your own",
	}

	cmd.AddCommand(
		newArchetypeListCmd(),
		newArchetypeAddCmd(),
	)

	return cmd
}

func newArchetypeListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archetypes",
		Long: `List the archetypes of the built-in catalog, the indexed repositories,
the configured archetype catalogs and the user list.`,
		Args: cobra.NoArgs,
		RunE: runArchetypeList,
	}

	return cmd
}

// Number of arguments expected by the archetype add command.
const archetypeAddArgs = 3

func newArchetypeAddCmd() *cobra.Command {
	var repository string

	cmd := &cobra.Command{
		Use:   "add GROUP ARTIFACT VERSION",
		Short: "Add a user archetype",
		Long:  "Add an archetype to the user list. The list survives restarts.",
		Args:  cobra.ExactArgs(archetypeAddArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			info := archetype.Info{
				GroupID:    args[0],
				ArtifactID: args[1],
				Version:    args[2],
				Repository: repository,
			}
			return withManager(cmd, func(_ *config.Config, mgr *manager.Manager) error {
				if err := mgr.AddArchetype(cmd.Context(), info); err != nil {
					return err
				}
				logger.Success("Archetype added", logger.Fields{"archetype": info.String()})
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&repository, "repository", "", "Repository URL the archetype is resolved from")

	return cmd
}

func runArchetypeList(cmd *cobra.Command, _ []string) error {
	return withManager(cmd, func(cfg *config.Config, mgr *manager.Manager) error {
		archetypes := mgr.Archetypes(cmd.Context())
		out := cmd.OutOrStdout()

		if jsonOutput(cfg) {
			if archetypes == nil {
				archetypes = []archetype.Info{}
			}
			return writeJSON(out, archetypes)
		}

		tabWriter := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
		_, _ = fmt.Fprintln(tabWriter, "GROUP\tARTIFACT\tVERSION\tREPOSITORY")
		for _, a := range archetypes {
			_, _ = fmt.Fprintf(tabWriter, "%s\t%s\t%s\t%s\n", a.GroupID, a.ArtifactID, a.Version, a.Repository)
		}
		return tabWriter.Flush()
	})
}

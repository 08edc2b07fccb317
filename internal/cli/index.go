package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cperrin88/mvnindex/internal/logger"
	"github.com/cperrin88/mvnindex/pkg/config"
	"github.com/cperrin88/mvnindex/pkg/errutils"
	"github.com/cperrin88/mvnindex/pkg/index"
	"github.com/cperrin88/mvnindex/pkg/location"
	"github.com/cperrin88/mvnindex/pkg/manager"
)

// NewIndexCmd creates the index command with subcommands.
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage repository indices",
		Long:  "Create, list, update and inspect the indices of Maven repositories",
	}

	cmd.AddCommand(
		newIndexEnsureCmd(),
		newIndexListCmd(),
		newIndexUpdateCmd(),
		newIndexStatusCmd(),
	)

	return cmd
}

func newIndexEnsureCmd() *cobra.Command {
	var (
		local   string
		remotes []string
		wait    bool
	)

	cmd := &cobra.Command{
		Use:   "ensure",
		Short: "Create missing indices",
		Long: `Make sure an index exists for the local repository and every remote
repository. Remotes given with --remote are used next to the configured ones.
A local index that was never built is updated right away.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd, func(cfg *config.Config, mgr *manager.Manager) error {
				if local == "" {
					local = cfg.GetLocalRepository()
				}
				all := append(cfg.RemoteURLs(), remotes...)
				indices := mgr.EnsureIndicesExist(cmd.Context(), local, all)
				if wait {
					mgr.Wait(cmd.Context())
				}
				return printIndices(cmd.Context(), cmd.OutOrStdout(), cfg, mgr, indices)
			})
		},
	}

	cmd.Flags().StringVar(&local, "local", "", "Local repository path (defaults to config)")
	cmd.Flags().StringArrayVar(&remotes, "remote", nil, "Additional remote repository URL (repeatable)")
	cmd.Flags().BoolVar(&wait, "wait", true, "Wait for scheduled updates; false cancels them on exit")

	return cmd
}

func newIndexListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indices",
		Long:  "List every registered index with its kind and last update",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd, func(cfg *config.Config, mgr *manager.Manager) error {
				return printIndices(cmd.Context(), cmd.OutOrStdout(), cfg, mgr, mgr.Indices(cmd.Context()))
			})
		},
	}

	return cmd
}

func newIndexUpdateCmd() *cobra.Command {
	var (
		repair bool
		wait   bool
	)

	cmd := &cobra.Command{
		Use:   "update [LOCATION...]",
		Short: "Update indices",
		Long: `Rebuild the indices of the given locations, or of every index when no
location is given. With --repair only missing or broken data is rebuilt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, func(cfg *config.Config, mgr *manager.Manager) error {
				indices, err := selectIndices(mgr.Indices(cmd.Context()), args)
				if err != nil {
					return err
				}
				if len(indices) == 0 {
					logger.Info("No indices to update")
					return nil
				}

				if repair {
					mgr.ScheduleRepair(cmd.Context(), indices)
				} else {
					mgr.ScheduleUpdate(cmd.Context(), indices)
				}
				if !wait {
					return nil
				}
				mgr.Wait(cmd.Context())
				return printIndices(cmd.Context(), cmd.OutOrStdout(), cfg, mgr, indices)
			})
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "Only rebuild missing or broken index data")
	cmd.Flags().BoolVar(&wait, "wait", true, "Wait for the update; false cancels it on exit")

	return cmd
}

func newIndexStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [LOCATION...]",
		Short: "Show index status",
		Long:  "Show whether indices are idle, waiting or updating and whether their data is broken",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, func(cfg *config.Config, mgr *manager.Manager) error {
				indices, err := selectIndices(mgr.Indices(cmd.Context()), args)
				if err != nil {
					return err
				}
				return printIndices(cmd.Context(), cmd.OutOrStdout(), cfg, mgr, indices)
			})
		},
	}

	return cmd
}

// selectIndices returns the indices whose location matches one of locations,
// or all indices when locations is empty.
func selectIndices(indices []*index.RepositoryIndex, locations []string) ([]*index.RepositoryIndex, error) {
	if len(locations) == 0 {
		return indices, nil
	}

	selected := make([]*index.RepositoryIndex, 0, len(locations))
	for _, loc := range locations {
		var found *index.RepositoryIndex
		for _, idx := range indices {
			if location.Same(idx.Location(), loc) {
				found = idx
				break
			}
		}
		if found == nil {
			return nil, fmt.Errorf("%w: no index for %q", errutils.ErrValidation, loc)
		}
		selected = append(selected, found)
	}
	return selected, nil
}

type indexView struct {
	Location string `json:"location"`
	Kind     string `json:"kind"`
	Updated  string `json:"updated"`
	State    string `json:"state"`
	Broken   bool   `json:"broken"`
	Dir      string `json:"dir"`
}

func newIndexView(ctx context.Context, mgr *manager.Manager, idx *index.RepositoryIndex) indexView {
	updated := neverUpdatedLabel
	if idx.Timestamp() != index.NeverUpdated {
		updated = idx.UpdatedAt().Local().Format(timeLayout)
	}
	return indexView{
		Location: idx.Location(),
		Kind:     idx.Kind().String(),
		Updated:  updated,
		State:    mgr.UpdatingState(ctx, idx).String(),
		Broken:   idx.IsBroken(),
		Dir:      idx.Dir(),
	}
}

func printIndices(ctx context.Context, out io.Writer, cfg *config.Config, mgr *manager.Manager, indices []*index.RepositoryIndex) error {
	views := make([]indexView, 0, len(indices))
	for _, idx := range indices {
		views = append(views, newIndexView(ctx, mgr, idx))
	}

	if jsonOutput(cfg) {
		return writeJSON(out, views)
	}
	if len(views) == 0 {
		_, _ = fmt.Fprintln(out, "No indices")
		return nil
	}

	tabWriter := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tabWriter, "LOCATION\tKIND\tUPDATED\tSTATE")
	for _, v := range views {
		state := v.State
		if v.Broken {
			state += " (broken)"
		}
		_, _ = fmt.Fprintf(tabWriter, "%s\t%s\t%s\t%s\n", v.Location, v.Kind, v.Updated, state)
	}
	return tabWriter.Flush()
}

// Package cli contains the mvnindex commands and subcommands.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cperrin88/mvnindex/internal/logger"
	"github.com/cperrin88/mvnindex/pkg/config"
	"github.com/cperrin88/mvnindex/pkg/errutils"
	"github.com/cperrin88/mvnindex/pkg/manager"
)

// NewArtifactCmd creates the artifact command with subcommands.
func NewArtifactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifact",
		Short: "Manage indexed artifacts",
		Long:  "Add freshly installed artifacts to the index of their local repository",
	}

	cmd.AddCommand(newArtifactAddCmd())

	return cmd
}

// Number of arguments expected by the artifact add command.
const artifactAddArgs = 2

func newArtifactAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add FILE COORDINATE-PATH",
		Short: "Add an artifact to its local index",
		Long: `Add FILE to the index of the local repository it was installed into.
COORDINATE-PATH is the file's path below the repository root, for example
org/example/lib/1.0/lib-1.0.jar.`,
		Args: cobra.ExactArgs(artifactAddArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArtifactAdd(cmd, args[0], args[1])
		},
	}

	return cmd
}

func runArtifactAdd(cmd *cobra.Command, file, name string) error {
	absFile, err := filepath.Abs(file)
	if err != nil {
		return errutils.Wrapf(errutils.ErrInvalidPath, "%s: %v", file, err)
	}
	if !fileExists(absFile) {
		return fmt.Errorf("%w: %s", errutils.ErrFileNotFound, absFile)
	}

	return withManager(cmd, func(_ *config.Config, mgr *manager.Manager) error {
		mgr.AddArtifact(cmd.Context(), absFile, name)
		logger.Debug("Artifact processed", logger.Fields{"file": absFile, "name": name})
		return nil
	})
}

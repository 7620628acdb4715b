package cmd

import (
	"github.com/spf13/cobra"

	"flymake/internal/build"
	"flymake/internal/state"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove build artifacts for the project rooted at path (default: .)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	root, err := state.NewRoot(targetArg(args), optionsFromFlags(), logger)
	if err != nil {
		return err
	}
	// Clean never triggers dependency resolution (no cloning to remove
	// deps/ by force); root.DepsFolder is already known from the manifest.
	return build.Clean(root)
}

package cmd

import (
	"github.com/spf13/cobra"

	"flymake/internal/build"
	"flymake/internal/resolve"
	"flymake/internal/state"
)

var buildCmd = &cobra.Command{
	Use:   "build [path]",
	Short: "Resolve dependencies and build the project rooted at path (default: .)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	root, err := state.NewRoot(targetArg(args), optionsFromFlags(), logger)
	if err != nil {
		return err
	}
	if err := resolve.ResolveAll(root, logger); err != nil {
		return err
	}
	if err := build.BuildProject(root); err != nil {
		return err
	}
	logger.Printf("%s: %d compiled, %d scanned\n", root.ProjectName, root.Stats.Compiled, root.Stats.SrcFiles)
	return nil
}

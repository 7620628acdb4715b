package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"flymake/internal/fmkerr"
	"flymake/internal/scaffold"
)

var (
	flagCpp  bool
	flagLib  bool
	flagName string
)

var newCmd = &cobra.Command{
	Use:   "new [path]",
	Short: "Scaffold a new project's standard folder layout at path (default: .)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runNew,
}

func init() {
	newCmd.Flags().BoolVar(&flagCpp, "cpp", false, "emit .cpp/.hpp sources instead of .c/.h")
	newCmd.Flags().BoolVar(&flagLib, "lib", false, "scaffold a library (lib/) instead of a program (src/)")
	newCmd.Flags().StringVar(&flagName, "name", "", "project name (defaults to the target folder's basename)")
}

func runNew(cmd *cobra.Command, args []string) error {
	target := targetArg(args)
	if err := os.MkdirAll(target, 0755); err != nil {
		return fmkerr.Wrap(fmkerr.WriteFailed, target, err)
	}

	name := flagName
	if name == "" {
		abs, err := filepath.Abs(target)
		if err != nil {
			return fmkerr.Wrap(fmkerr.BadPath, target, err)
		}
		name = filepath.Base(abs)
	}

	return scaffold.New(target, scaffold.Options{
		Name: name,
		Cpp:  flagCpp,
		Lib:  flagLib,
		All:  flagAll,
	})
}

package cmd

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"flymake/internal/build"
	"flymake/internal/fmkerr"
	"flymake/internal/resolve"
	"flymake/internal/source"
	"flymake/internal/state"
)

var testCmd = &cobra.Command{
	Use:   "test [path] [-- args...]",
	Short: "Build the project, then exec every binary under its test/ Tool folder",
	Args:  maxOneTargetArg,
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	target, passthrough := splitDashArgs(cmd, args)

	logger := newLogger()
	root, err := state.NewRoot(target, optionsFromFlags(), logger)
	if err != nil {
		return err
	}
	if err := resolve.ResolveAll(root, logger); err != nil {
		return err
	}
	if err := build.BuildProject(root); err != nil {
		return err
	}

	testFolder := root.FindFolder("test/")
	if testFolder == nil {
		return fmkerr.New(fmkerr.NoRule, "no test/ folder")
	}
	tl, err := source.NewToolList(root.Reg, filepath.Join(root.FullPath, testFolder.Path))
	if err != nil {
		return err
	}

	failed := 0
	for _, tool := range tl.Tools {
		binPath := filepath.Join(root.FullPath, testFolder.Path, tool.Name)
		c := exec.Command(binPath, passthrough...)
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			logger.Errorf("FAIL %s: %v\n", tool.Name, err)
			failed++
			continue
		}
		logger.Printf("PASS %s\n", tool.Name)
	}

	if failed > 0 {
		return fmkerr.New(fmkerr.Custom, "")
	}
	return nil
}

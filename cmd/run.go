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

var flagRunTool string

var runCmd = &cobra.Command{
	Use:   "run [path] [-- args...]",
	Short: "Build the project, then exec its Src program (or a named Tool)",
	Args:  maxOneTargetArg,
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&flagRunTool, "tool", "", "run this named Tool instead of the root Src program")
}

func runRun(cmd *cobra.Command, args []string) error {
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

	binPath, err := resolveRunnable(root, flagRunTool)
	if err != nil {
		return err
	}
	return execBinary(binPath, passthrough)
}

// resolveRunnable locates the executable to run: a named Tool if
// toolName is set, otherwise the root project's Src program.
func resolveRunnable(root *state.Project, toolName string) (string, error) {
	if toolName != "" {
		for _, f := range root.Folders {
			if f.Rule != state.RuleTool {
				continue
			}
			tl, err := source.NewToolList(root.Reg, filepath.Join(root.FullPath, f.Path))
			if err != nil {
				continue
			}
			if tl.Find(toolName) != nil {
				return filepath.Join(root.FullPath, f.Path, toolName), nil
			}
		}
		return "", fmkerr.New(fmkerr.NoRule, "no such tool: "+toolName)
	}

	f := root.FindFolderByRule(state.RuleSrc)
	if f == nil {
		return "", fmkerr.New(fmkerr.NoRule, "no Src folder to run")
	}
	return filepath.Join(root.FullPath, root.SrcProgPath(f.Path)), nil
}

func execBinary(binPath string, args []string) error {
	c := exec.Command(binPath, args...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmkerr.Wrap(fmkerr.BadProgram, binPath, err)
	}
	return nil
}

// splitDashArgs separates the single positional target argument from any
// "--"-prefixed passthrough arguments bound for the subprogram (spec §6).
func splitDashArgs(cmd *cobra.Command, args []string) (target string, passthrough []string) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		return targetArg(args), nil
	}
	if dash > 0 {
		target = args[0]
	} else {
		target = "."
	}
	return target, args[dash:]
}

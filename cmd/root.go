// Package cmd implements flymake's CLI surface (spec §6): a cobra root
// command with build/clean/new/run/test subcommands, mapping flags 1:1
// onto the original flyMakeOpts_t.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"flymake/internal/fmkerr"
	"flymake/internal/logx"
	"flymake/internal/state"
)

const toolVersion = "1.0.0"

var (
	flagRebuild   bool
	flagDebug     int
	flagDryRun    bool
	flagVerbose   int
	flagAll       bool
	flagRuleLib   bool
	flagRuleSrc   bool
	flagRuleTool  bool
	flagNoWerror  bool
)

var rootCmd = &cobra.Command{
	Use:   "flymake",
	Short: "Cargo-inspired project manager for C/C++ source trees",
	Long: `flymake discovers a C/C++ project root, loads its flymake.toml manifest,
resolves its dependency graph (prebuilt libraries, local-path packages, and
git packages pinned by version or SHA), and incrementally builds every Lib,
Src and Tool folder it finds.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runBuild,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagRebuild, "rebuild", "B", false, "force recompile and relink of the root project")
	rootCmd.PersistentFlags().IntVarP(&flagDebug, "debug", "D", 0, "enable debug flags (-g -DDEBUG=1)")
	rootCmd.PersistentFlags().BoolVarP(&flagDryRun, "dry-run", "n", false, "print commands without executing them")
	rootCmd.PersistentFlags().IntVarP(&flagVerbose, "verbose", "v", 0, "verbosity level")
	rootCmd.PersistentFlags().BoolVar(&flagAll, "all", false, "clean also removes the deps folder (build does not read this flag)")
	rootCmd.PersistentFlags().BoolVar(&flagRuleLib, "rl", false, "force the target folder's rule to Lib")
	rootCmd.PersistentFlags().BoolVar(&flagRuleSrc, "rs", false, "force the target folder's rule to Src")
	rootCmd.PersistentFlags().BoolVar(&flagRuleTool, "rt", false, "force the target folder's rule to Tool")
	rootCmd.PersistentFlags().BoolVar(&flagNoWerror, "no-werror", false, `disable -Werror (the original's "-w-")`)

	rootCmd.AddCommand(buildCmd, cleanCmd, newCmd, runCmd, testCmd)
}

// Execute runs the root command, printing a diagnostic and exiting 1 on
// any error except fmkerr.Custom, whose site already printed its own
// message (spec §6 "Exit codes").
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !fmkerr.IsCustom(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// optionsFromFlags builds a state.Options from the persistent flags.
func optionsFromFlags() state.Options {
	return state.Options{
		All:       flagAll,
		Rebuild:   flagRebuild,
		Debug:     flagDebug,
		DryRun:    flagDryRun,
		RulesLib:  flagRuleLib,
		RulesSrc:  flagRuleSrc,
		RulesTool: flagRuleTool,
		Verbose:   flagVerbose,
		NoWarning: flagNoWerror,
	}
}

func newLogger() *logx.Logger {
	return logx.New(flagVerbose, flagDebug, flagDryRun)
}

// targetArg returns the single positional target argument, or "." when
// none is given.
func targetArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

// maxOneTargetArg accepts at most one positional argument before a "--"
// separator, ignoring anything after it (passthrough args for run/test).
func maxOneTargetArg(cmd *cobra.Command, args []string) error {
	n := len(args)
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		n = dash
	}
	if n > 1 {
		return fmt.Errorf("accepts at most 1 target argument, received %d", n)
	}
	return nil
}

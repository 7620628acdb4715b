// Package build implements flymake's Build Engine (spec §4.6): per-file
// compilation with mtime-based staleness checks, and the Lib/Src/Tool
// folder rules that archive, link, and group sources into executables.
package build

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"flymake/internal/compiler"
	"flymake/internal/fmkerr"
	"flymake/internal/source"
	"flymake/internal/state"
)

// Status reports what a per-file compile step did.
type Status int

const (
	UpToDate Status = iota
	Compiled
)

// BuildProject builds every Lib folder, then every Src folder, then every
// Tool folder, in the project's folder-list order (spec §4.6 "Project
// rule").
func BuildProject(p *state.Project) error {
	for _, f := range p.Folders {
		if f.Rule == state.RuleLib {
			if err := BuildLib(p, f.Path); err != nil {
				return err
			}
		}
	}
	for _, f := range p.Folders {
		if f.Rule == state.RuleSrc {
			if err := BuildSrc(p, f.Path); err != nil {
				return err
			}
		}
	}
	for _, f := range p.Folders {
		if f.Rule == state.RuleTool {
			if err := BuildTools(p, f.Path, ""); err != nil {
				return err
			}
		}
	}
	return nil
}

// BuildLib compiles every matched source under folder and archives them
// into the folder's library file if the archive is missing or any member
// was recompiled, setting p.LibCompiled so Src/Tool folders relink.
func BuildLib(p *state.Project, folder string) error {
	full := filepath.Join(p.FullPath, folder)
	list, err := source.New(p.Reg, full, indexDepth(p))
	if err != nil {
		return fmkerr.Wrap(fmkerr.NoFiles, full, err)
	}

	anyCompiled, err := compileAll(p, full, list.Files)
	if err != nil {
		return err
	}

	libFull := filepath.Join(p.FullPath, p.LibPath(folder))
	if anyCompiled || !fileExists(libFull) {
		objGlob := filepath.Join(full, "out", "*.o")
		if err := runCommand(p, compiler.FormatArchive(libFull, objGlob)); err != nil {
			return err
		}
		p.LibCompiled = true
	}
	return nil
}

// BuildSrc compiles every matched source under folder and links them into
// the folder's program, relinking when any member compiled, when a Lib
// folder recompiled its archive, when the program is missing, or when
// rebuild is forced.
func BuildSrc(p *state.Project, folder string) error {
	full := filepath.Join(p.FullPath, folder)
	list, err := source.New(p.Reg, full, indexDepth(p))
	if err != nil {
		return fmkerr.Wrap(fmkerr.NoFiles, full, err)
	}
	if len(list.Files) == 0 {
		return fmkerr.New(fmkerr.NoFiles, full)
	}

	anyCompiled, err := compileAll(p, full, list.Files)
	if err != nil {
		return err
	}

	progFull := filepath.Join(p.FullPath, p.SrcProgPath(folder))
	if anyCompiled || p.LibCompiled || !fileExists(progFull) || p.Opts.Rebuild {
		entry := p.Reg.FindByExtension(filepath.Ext(list.Files[0]))
		if entry == nil {
			return fmkerr.New(fmkerr.NoRule, list.Files[0])
		}
		objGlob := filepath.Join(full, "out", "*.o")
		cmdline, err := entry.FormatLink(objGlob, p.LibsJoined(), debugLinkFlags(p, entry), progFull)
		if err != nil {
			return fmkerr.Wrap(fmkerr.BadProgram, folder, err)
		}
		if err := runCommand(p, cmdline); err != nil {
			return err
		}
	}
	return nil
}

// BuildTools groups folder's sources into tools (spec §4.2) and compiles
// and links each one (or only the one named target, if non-empty) into an
// executable at <folder><toolname>, applying the same up-to-date test per
// tool.
func BuildTools(p *state.Project, folder, target string) error {
	full := filepath.Join(p.FullPath, folder)
	tl, err := source.NewToolList(p.Reg, full)
	if err != nil {
		return fmkerr.Wrap(fmkerr.NoFiles, full, err)
	}

	for _, tool := range tl.Tools {
		if target != "" && tool.Name != target {
			continue
		}
		if err := buildOneTool(p, full, tool); err != nil {
			return err
		}
	}
	return nil
}

func buildOneTool(p *state.Project, full string, tool *source.Tool) error {
	anyCompiled, err := compileAll(p, full, tool.SourceFiles)
	if err != nil {
		return err
	}

	toolFull := filepath.Join(full, tool.Name)
	if !anyCompiled && !p.LibCompiled && fileExists(toolFull) && !p.Opts.Rebuild {
		return nil
	}

	entry := p.Reg.FindByExtension(filepath.Ext(tool.SourceFiles[0]))
	if entry == nil {
		return fmkerr.New(fmkerr.NoRule, tool.SourceFiles[0])
	}

	var objs []string
	for _, relSrc := range tool.SourceFiles {
		objs = append(objs, filepath.Join(full, "out", basenameNoExt(relSrc)+".o"))
	}
	cmdline, err := entry.FormatLink(strings.Join(objs, " "), p.LibsJoined(), debugLinkFlags(p, entry), toolFull)
	if err != nil {
		return fmkerr.Wrap(fmkerr.BadProgram, tool.Name, err)
	}
	return runCommand(p, cmdline)
}

// compileAll compiles every relSrc under full, returning true if any one
// of them actually ran the compiler (as opposed to being up to date).
func compileAll(p *state.Project, full string, files []string) (bool, error) {
	any := false
	for _, relSrc := range files {
		status, err := compileOne(p, full, relSrc)
		if err != nil {
			return false, err
		}
		p.Stats.SrcFiles++
		if status == Compiled {
			any = true
			p.Stats.Compiled++
		}
	}
	return any, nil
}

// compileOne implements spec §4.6's per-file compile: resolve the
// compiler by extension, confirm the source exists, compute the object
// path, and skip the compile when the object is not older than the source
// and rebuild isn't forced.
func compileOne(p *state.Project, folder, relSrc string) (Status, error) {
	entry := p.Reg.FindByExtension(filepath.Ext(relSrc))
	if entry == nil {
		return 0, fmkerr.New(fmkerr.NoRule, relSrc)
	}

	srcFull := filepath.Join(folder, relSrc)
	srcInfo, err := os.Stat(srcFull)
	if err != nil || srcInfo.IsDir() {
		return 0, fmkerr.New(fmkerr.BadPath, srcFull)
	}

	outDir := filepath.Join(folder, "out")
	objFull := filepath.Join(outDir, basenameNoExt(relSrc)+".o")

	if !p.Opts.Rebuild {
		if objInfo, err := os.Stat(objFull); err == nil && !objInfo.ModTime().Before(srcInfo.ModTime()) {
			return UpToDate, nil
		}
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return 0, fmkerr.Wrap(fmkerr.WriteFailed, outDir, err)
	}

	incs := entry.FormatIncludes(p.AggIncludes)
	warn := ""
	if !p.Opts.NoWarning {
		warn = entry.WarningFlags
	}
	debug := ""
	if p.Opts.Debug > 0 {
		debug = entry.CompileDbg
	}

	cmdline, err := entry.FormatCompile(srcFull, incs, warn, debug, objFull)
	if err != nil {
		return 0, fmkerr.Wrap(fmkerr.BadProgram, relSrc, err)
	}
	if err := runCommand(p, cmdline); err != nil {
		return 0, err
	}
	return Compiled, nil
}

func debugLinkFlags(p *state.Project, entry *compiler.Entry) string {
	if p.Opts.Debug > 0 {
		return entry.LinkDbg
	}
	return ""
}

// runCommand prints cmdline per the logger's verbosity contract and, unless
// dry-run, spawns it directly as an argv list (spec §9's design note: no
// shell in between, so a path or flag in the template can't be reinterpreted
// by shell quoting rules). An argument holding a glob pattern (the out/*.o
// object lists) is expanded with filepath.Glob, and the command runs in the
// project root so root-relative include and library paths resolve. A
// non-zero exit propagates as a fatal BadProgram error (spec §5: no
// cancellation beyond unwinding on a failed child process).
func runCommand(p *state.Project, cmdline string) error {
	p.Logger.Command(cmdline)
	if p.Opts.DryRun {
		return nil
	}
	var argv []string
	for _, arg := range strings.Fields(cmdline) {
		if strings.ContainsAny(arg, "*?[") {
			if matches, err := filepath.Glob(arg); err == nil && len(matches) > 0 {
				argv = append(argv, matches...)
				continue
			}
		}
		argv = append(argv, arg)
	}
	if len(argv) == 0 {
		return fmkerr.New(fmkerr.BadProgram, cmdline)
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = p.FullPath
	cmd.Stdout = p.Logger.Out
	cmd.Stderr = p.Logger.Err
	if err := cmd.Run(); err != nil {
		return fmkerr.Wrap(fmkerr.BadProgram, cmdline, err)
	}
	return nil
}

// indexDepth returns the recursion depth new_source_list uses for a Lib or
// Src folder: 1 for a simple project's synthesized root folder, 3
// otherwise (spec §4.2).
func indexDepth(p *state.Project) int {
	if p.IsSimple {
		return 1
	}
	return 3
}

func basenameNoExt(relSrc string) string {
	base := filepath.Base(relSrc)
	if idx := strings.LastIndex(base, "."); idx >= 0 {
		return base[:idx]
	}
	return base
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

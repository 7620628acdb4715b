// Package state implements flymake's State & Target Model (spec §3, §4.7):
// the per-project Project value and the Target parsed from a user CLI
// argument.
package state

import (
	"path/filepath"
	"strings"

	"flymake/internal/compiler"
	"flymake/internal/locate"
	"flymake/internal/logx"
	"flymake/internal/manifest"
)

// Rule is re-exported from manifest so callers of state don't need to
// import manifest just to compare rules; Proj has no manifest equivalent
// (it's the project-root meta-rule).
type Rule = manifest.Rule

const (
	RuleNone = manifest.RuleNone
	RuleLib  = manifest.RuleLib
	RuleSrc  = manifest.RuleSrc
	RuleTool = manifest.RuleTool
	RuleProj Rule = 100 // sentinel outside manifest.Rule's range
)

// Options mirrors the original flyMakeOpts_t: command-line flags that
// shape how the core behaves.
type Options struct {
	All       bool // --all: Clean also removes the deps folder; the build does not read it
	Rebuild   bool // -B: force recompile + relink of root project targets
	Cpp       bool // --cpp: used by `new`, emit C++ instead of C
	Debug     int  // -D[=n]: enables -DDEBUG=1 and -g flags
	Lib       bool // --lib: used by `new`, create lib/ instead of src/
	DryRun    bool // -n: print commands, execute none
	RulesLib  bool // --rl: force Lib rule on target folders
	RulesSrc  bool // --rs: force Src rule on target folders
	RulesTool bool // --rt: force Tool rule on target folders
	Verbose   int  // -v[=n]
	NoWarning bool // -w-: disable -Werror
}

// Folder is one folder-to-rule mapping in a project's folder list.
type Folder struct {
	Path string // e.g. "src/" or "" for a simple project's root
	Rule Rule
}

// Dependency is one resolved (or resolving) entry in a project's dependency
// list (spec §3 "Dependency Entry").
type Dependency struct {
	Name           string
	RequestedRange string
	ActualVersion  string
	Libs           string // space-joined library file path(s)
	IncFolder      string
	Built          bool
	Child          *Project // nil for Prebuilt deps (no sub-project to build)
}

// Stats tracks per-invocation build counters.
type Stats struct {
	Compiled  int
	SrcFiles  int
}

// Project is flymake's per-project state (spec §3 "Project State"). A root
// Project is constructed once per invocation; each resolved local-path or
// git dependency owns its own child Project.
type Project struct {
	Opts    Options
	Logger  *logx.Logger
	Reg     *compiler.Registry

	FullPath     string // absolute root path
	RootRel      string // "" or ends in a path separator
	IncFolder    string
	DepsFolder   string
	ManifestPath string // "" if no flymake.toml
	IsSimple     bool

	ProjectName    string
	ProjectVersion string

	Folders     []Folder
	Deps        []*Dependency
	PendingDeps []manifest.DependencyEntry // unresolved [dependencies] entries, consumed by internal/resolve

	AggIncludes []string // e.g. [".", "inc/", "../dep1/inc/"]
	AggLibs     []string // e.g. ["lib/myproj.a", "../dep1/lib/dep1.a"]

	LibCompiled bool

	Stats Stats
}

// NewRoot locates the project root from path, loads its manifest, and
// builds the initial Project state (folders, initial aggregated
// includes/libs — dependency resolution happens separately via
// internal/resolve).
func NewRoot(path string, opts Options, logger *logx.Logger) (*Project, error) {
	reg := compiler.NewDefault()
	root, err := locate.Find(path, reg)
	if err != nil {
		return nil, err
	}
	return newProjectAt(root, "", reg, opts, logger)
}

// NewChild builds a Project for a dependency rooted at childFull, sharing
// the same Options/Logger as the parent but starting its own compiler
// registry (so a dep's own [compiler] overrides don't leak into the
// parent's registry, matching the original's one-state-per-manifest model).
func NewChild(childFull string, opts Options, logger *logx.Logger) (*Project, error) {
	reg := compiler.NewDefault()
	return newProjectAt(childFull, "", reg, opts, logger)
}

func newProjectAt(root, rootRel string, reg *compiler.Registry, opts Options, logger *logx.Logger) (*Project, error) {
	m, err := manifest.Load(root, reg)
	if err != nil {
		return nil, err
	}

	p := &Project{
		Opts:           opts,
		Logger:         logger,
		Reg:            reg,
		FullPath:       root,
		RootRel:        rootRel,
		IncFolder:      m.IncFolder,
		DepsFolder:     m.DepsFolder,
		IsSimple:       m.IsSimple,
		ProjectName:    m.ProjectName,
		ProjectVersion: m.ProjectVersion,
	}
	if m.TomlPath != "" {
		p.ManifestPath = m.TomlPath
	}

	for _, f := range m.Folders {
		p.Folders = append(p.Folders, Folder{Path: f.Path, Rule: f.Rule})
	}
	p.PendingDeps = m.Dependencies

	p.initAggregates()
	return p, nil
}

// initAggregates appends the library path of every Lib folder to AggLibs
// and sets AggIncludes to ["."] plus the discovered include folder,
// per spec §4.4's closing paragraph.
func (p *Project) initAggregates() {
	for _, f := range p.Folders {
		if f.Rule != RuleLib {
			continue
		}
		p.AggLibs = append(p.AggLibs, p.LibPath(f.Path))
	}

	p.AggIncludes = append(p.AggIncludes, ".")
	if p.IncFolder != "" && p.IncFolder != "." {
		p.AggIncludes = append(p.AggIncludes, p.IncFolder)
	}
}

// LibPath returns the archive path a Lib folder builds: <folder><libname>.a
// where libname is the project name if the folder's basename is literally
// "lib" or "library", else the folder's basename (spec §4.6).
func (p *Project) LibPath(folder string) string {
	return filepath.Join(folder, p.libName(folder)) + ".a"
}

func (p *Project) libName(folder string) string {
	base := strings.TrimRight(folder, "/")
	base = filepath.Base(base)
	if base == "lib" || base == "library" || base == "." || base == "" {
		return p.ProjectName
	}
	return base
}

// SrcProgPath returns the executable path a Src folder links:
// <folder><progname> where progname is the project name if the folder's
// basename is "src" or "source", else the folder's basename.
func (p *Project) SrcProgPath(folder string) string {
	return filepath.Join(folder, p.srcName(folder))
}

func (p *Project) srcName(folder string) string {
	base := strings.TrimRight(folder, "/")
	base = filepath.Base(base)
	if base == "src" || base == "source" || base == "." || base == "" {
		return p.ProjectName
	}
	return base
}

// FindFolder returns the Folder entry matching path, or nil.
func (p *Project) FindFolder(path string) *Folder {
	for i := range p.Folders {
		if samePathString(p.Folders[i].Path, path) {
			return &p.Folders[i]
		}
	}
	return nil
}

// FindFolderByRule returns the first Folder entry with the given rule, or nil.
func (p *Project) FindFolderByRule(rule Rule) *Folder {
	for i := range p.Folders {
		if p.Folders[i].Rule == rule {
			return &p.Folders[i]
		}
	}
	return nil
}

func samePathString(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}

// LibsJoined returns the aggregated libs as a single space-joined string,
// ready to splice into a {libs} template placeholder.
func (p *Project) LibsJoined() string {
	var b strings.Builder
	for _, l := range p.AggLibs {
		b.WriteString(l)
		b.WriteString(" ")
	}
	return b.String()
}

// IncludesJoined returns the aggregated include folders, ready for
// Entry.FormatIncludes.
func (p *Project) IncludesJoined() []string {
	return p.AggIncludes
}

// AddDep appends a resolved dependency to the root's dependency list and
// its library to AggLibs, in the order dependencies are added — this order
// determines linker argument order (spec §5). Call this on root: a
// dependency's include folder is scoped to whichever project declared it
// (which may be a nested child, not root), so the caller appends that to
// the declaring project's own AggIncludes separately.
func (p *Project) AddDep(d *Dependency) {
	p.Deps = append(p.Deps, d)
	if d.Libs != "" {
		for _, lib := range strings.Fields(d.Libs) {
			p.AggLibs = append(p.AggLibs, lib)
		}
	}
}

// FindDep returns the dependency with the given name, or nil.
func (p *Project) FindDep(name string) *Dependency {
	for _, d := range p.Deps {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// Package resolve implements flymake's Dependency Resolver (spec §4.5): it
// walks a project's [dependencies] table breadth-first, classifying each
// entry as a prebuilt library, a local-path package, or a git package, and
// materializes each on disk before recursing into the next level.
package resolve

import (
	"fmt"
	"os"
	"path/filepath"

	"flymake/internal/fmkerr"
	"flymake/internal/logx"
	"flymake/internal/manifest"
	"flymake/internal/semverrange"
	"flymake/internal/state"
)

// ResolveAll walks root's full dependency graph, populating root.Deps and
// every visited project's aggregated include/lib sets.
func ResolveAll(root *state.Project, logger *logx.Logger) error {
	stack := map[string]bool{root.FullPath: true}
	return resolveLevel(root, root, root.PendingDeps, logger, stack)
}

// resolveLevel processes every entry at one manifest's [dependencies]
// table (detecting conflicts within the level before recursing), then
// recurses into each newly created child's own table — breadth before
// depth, as spec §4.5 requires.
func resolveLevel(root, parent *state.Project, entries []manifest.DependencyEntry, logger *logx.Logger, stack map[string]bool) error {
	var children []*state.Project
	for _, entry := range entries {
		child, err := resolveOne(root, parent, entry, logger, stack)
		if err != nil {
			return err
		}
		if child != nil {
			children = append(children, child)
		}
	}
	for _, child := range children {
		if len(child.PendingDeps) == 0 {
			continue
		}
		stack[child.FullPath] = true
		if err := resolveLevel(root, child, child.PendingDeps, logger, stack); err != nil {
			return err
		}
		delete(stack, child.FullPath)
	}
	return nil
}

// resolveOne classifies and materializes a single dependency entry,
// returning the child project it resolved to (nil for a Prebuilt entry or
// a reused duplicate, neither of which need further recursion here).
func resolveOne(root, parent *state.Project, entry manifest.DependencyEntry, logger *logx.Logger, stack map[string]bool) (*state.Project, error) {
	if existing := root.FindDep(entry.Name); existing != nil {
		return nil, handleDuplicate(root, parent, existing, entry)
	}

	switch classify(entry) {
	case kindPrebuilt:
		return nil, resolvePrebuilt(root, parent, entry)
	case kindLocalPath:
		return resolveLocalPath(root, parent, entry, logger, stack)
	case kindGit:
		return resolveGit(root, parent, entry, logger, stack)
	default:
		return nil, fmkerr.New(fmkerr.BadManifest, entry.Name+": cannot classify dependency")
	}
}

type depKind int

const (
	kindLocalPath depKind = iota
	kindPrebuilt
	kindGit
)

// classify implements spec §4.5's three-way split: a git URL always wins;
// a path with inc= set is Prebuilt (resolvePrebuilt then checks that the
// path is an existing file); any other path is a LocalPath package folder.
// classify itself does not touch the filesystem.
func classify(e manifest.DependencyEntry) depKind {
	if e.Git != "" {
		return kindGit
	}
	if e.Path != "" && e.Inc != "" {
		return kindPrebuilt
	}
	return kindLocalPath
}

func resolvePrebuilt(root, parent *state.Project, entry manifest.DependencyEntry) error {
	libFull := filepath.Join(parent.FullPath, entry.Path)
	if !isFile(libFull) {
		return fmkerr.New(fmkerr.BadPath, libFull)
	}
	incFull := filepath.Join(parent.FullPath, entry.Inc)
	if !dirExists(incFull) {
		return fmkerr.New(fmkerr.BadPath, incFull)
	}

	libRel := relTo(root.FullPath, libFull)
	incRel := relTo(root.FullPath, incFull)

	root.AddDep(&state.Dependency{
		Name:           entry.Name,
		RequestedRange: entry.Version,
		ActualVersion:  "*",
		Libs:           libRel,
		IncFolder:      incRel,
		Built:          true,
	})
	parent.AggIncludes = append(parent.AggIncludes, incRel)
	return nil
}

func resolveLocalPath(root, parent *state.Project, entry manifest.DependencyEntry, logger *logx.Logger, stack map[string]bool) (*state.Project, error) {
	full := filepath.Join(parent.FullPath, entry.Path)
	if !dirExists(full) {
		return nil, fmkerr.New(fmkerr.BadPath, full)
	}
	if stack[full] {
		return nil, fmkerr.New(fmkerr.Cycle, entry.Name+": "+full)
	}

	child, err := state.NewChild(full, parent.Opts, logger)
	if err != nil {
		return nil, err
	}
	if err := validateVersion(entry, child.ProjectVersion); err != nil {
		return nil, err
	}

	libRel, incRel, err := childLibAndInc(root, child)
	if err != nil {
		return nil, err
	}

	root.AddDep(&state.Dependency{
		Name:           entry.Name,
		RequestedRange: entry.Version,
		ActualVersion:  child.ProjectVersion,
		Libs:           libRel,
		IncFolder:      incRel,
		Child:          child,
	})
	parent.AggIncludes = append(parent.AggIncludes, incRel)
	return child, nil
}

func resolveGit(root, parent *state.Project, entry manifest.DependencyEntry, logger *logx.Logger, stack map[string]bool) (*state.Project, error) {
	depsFolder := filepath.Join(root.FullPath, root.DepsFolder)
	if err := os.MkdirAll(depsFolder, 0755); err != nil {
		return nil, fmkerr.Wrap(fmkerr.WriteFailed, depsFolder, err)
	}
	dest := filepath.Join(depsFolder, entry.Name)

	repo, err := cloneOrOpen(dest, entry.Git, entry.Branch)
	if err != nil {
		return nil, err
	}

	var actualVersion string
	switch {
	case entry.Sha != "":
		if err := checkoutSha(repo, entry.Sha); err != nil {
			return nil, err
		}
	case entry.Version != "":
		v, err := checkoutVersionTag(repo, entry.Version)
		if err != nil {
			return nil, err
		}
		actualVersion = v
	}

	if stack[dest] {
		return nil, fmkerr.New(fmkerr.Cycle, entry.Name+": "+dest)
	}

	child, err := state.NewChild(dest, parent.Opts, logger)
	if err != nil {
		return nil, err
	}
	if actualVersion == "" {
		if child.ProjectVersion != "" {
			actualVersion = child.ProjectVersion
		} else {
			actualVersion = "*"
		}
	}

	libRel, incRel, err := childLibAndInc(root, child)
	if err != nil {
		return nil, err
	}

	root.AddDep(&state.Dependency{
		Name:           entry.Name,
		RequestedRange: entry.Version,
		ActualVersion:  actualVersion,
		Libs:           libRel,
		IncFolder:      incRel,
		Child:          child,
	})
	parent.AggIncludes = append(parent.AggIncludes, incRel)
	return child, nil
}

// handleDuplicate implements spec §4.5's "Version validation" paragraph: a
// second entry with a name already in root.Deps must be compatible with
// the existing resolution, and only propagates its include folder to the
// *current* parent — the root's libs were already populated when the
// entry was first added.
func handleDuplicate(root, parent *state.Project, existing *state.Dependency, entry manifest.DependencyEntry) error {
	if classify(entry) == kindPrebuilt {
		incFull := filepath.Join(parent.FullPath, entry.Inc)
		same, err := sameCanonicalPath(incFull, filepath.Join(root.FullPath, existing.IncFolder))
		if err != nil {
			return fmkerr.Wrap(fmkerr.BadPath, incFull, err)
		}
		if !same {
			return fmkerr.New(fmkerr.NotSameRoot, entry.Name+": duplicate dependency resolves to a different include folder")
		}
		parent.AggIncludes = append(parent.AggIncludes, relTo(root.FullPath, incFull))
		return nil
	}

	if err := validateVersion(entry, existing.ActualVersion); err != nil {
		return err
	}
	parent.AggIncludes = append(parent.AggIncludes, existing.IncFolder)
	return nil
}

func validateVersion(entry manifest.DependencyEntry, actual string) error {
	if entry.Version == "" {
		return nil
	}
	ok, err := semverrange.Satisfies(entry.Version, actual)
	if err != nil {
		return fmkerr.Wrap(fmkerr.BadManifest, entry.Name, err)
	}
	if !ok {
		return fmkerr.New(fmkerr.BadManifest,
			fmt.Sprintf("%s: version conflict: already resolved to %s, requires %s", entry.Name, actual, entry.Version))
	}
	return nil
}

// childLibAndInc locates child's Lib-folder archive and include folder,
// expressed as paths relative to root (ready to splice into root's own
// {libs}/{incs} templates).
func childLibAndInc(root, child *state.Project) (libRel, incRel string, err error) {
	libFolder := child.FindFolderByRule(state.RuleLib)
	if libFolder == nil {
		return "", "", fmkerr.New(fmkerr.NoRule, child.FullPath+": dependency has no Lib folder")
	}
	absLib := filepath.Join(child.FullPath, child.LibPath(libFolder.Path))

	absInc := child.FullPath
	if child.IncFolder != "" {
		absInc = filepath.Join(child.FullPath, child.IncFolder)
	}

	return relTo(root.FullPath, absLib), relTo(root.FullPath, absInc), nil
}

func relTo(root, abs string) string {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return abs
	}
	return rel
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func sameCanonicalPath(a, b string) (bool, error) {
	ra, err := filepath.EvalSymlinks(a)
	if err != nil {
		return false, err
	}
	rb, err := filepath.EvalSymlinks(b)
	if err != nil {
		return false, err
	}
	return ra == rb, nil
}

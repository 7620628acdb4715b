// Package manifest implements flymake's Manifest Loader (spec §4.4): it
// reads the optional flymake.toml file, filling in project identity,
// compiler overrides, the folder-to-rule map, and the dependency table.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"flymake/internal/compiler"
	"flymake/internal/fmkerr"
	"flymake/internal/locate"
	"flymake/internal/semverrange"
)

// Rule mirrors the folder build recipe from spec §3/§4.6.
type Rule int

const (
	RuleNone Rule = iota
	RuleLib
	RuleSrc
	RuleTool
)

func (r Rule) String() string {
	switch r {
	case RuleLib:
		return "Lib"
	case RuleSrc:
		return "Src"
	case RuleTool:
		return "Tool"
	default:
		return "None"
	}
}

// FolderEntry is one [folders] table entry, or a discovered default folder.
type FolderEntry struct {
	Path string // relative to root, e.g. "src/"
	Rule Rule
}

// DependencyEntry is one [dependencies] table entry, not yet resolved.
type DependencyEntry struct {
	Name    string
	Path    string
	Inc     string
	Git     string
	Version string
	Sha     string
	Branch  string
}

// Manifest is the parsed (but not yet resolved) contents of flymake.toml,
// merged with the conventional defaults that apply even when the file is
// absent.
type Manifest struct {
	RootFolder     string // absolute path to the project root
	TomlPath       string // path to flymake.toml, "" if absent
	ProjectName    string
	ProjectVersion string
	IncFolder      string // "inc/" or "include/", "" if none found
	DepsFolder     string // "deps/" (always synthesized, may not exist yet)
	IsSimple       bool
	Folders        []FolderEntry
	Dependencies   []DependencyEntry
	HasSubDeps     bool // true if [dependencies] table is non-empty
}

// rawManifest is the TOML document shape.
type rawManifest struct {
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"package"`
	Compiler     map[string]rawCompiler     `toml:"compiler"`
	Folders      map[string]string          `toml:"folders"`
	Dependencies map[string]rawDependency   `toml:"dependencies"`
}

type rawCompiler struct {
	Cc    string `toml:"cc"`
	Ll    string `toml:"ll"`
	CcDbg string `toml:"cc_dbg"`
	LlDbg string `toml:"ll_dbg"`
	Inc   string `toml:"inc"`
	Warn  string `toml:"warn"`
}

type rawDependency struct {
	Path    string `toml:"path"`
	Inc     string `toml:"inc"`
	Git     string `toml:"git"`
	Version string `toml:"version"`
	Sha     string `toml:"sha"`
	Branch  string `toml:"branch"`
}

var defaultFolders = []FolderEntry{
	{Path: "src/", Rule: RuleSrc},
	{Path: "source/", Rule: RuleSrc},
	{Path: "lib/", Rule: RuleLib},
	{Path: "library/", Rule: RuleLib},
	{Path: "test/", Rule: RuleTool},
}

var folderRuleStrings = map[string]Rule{
	"--rl": RuleLib,
	"--rs": RuleSrc,
	"--rt": RuleTool,
}

// Load reads (or synthesizes) the manifest for the project rooted at root,
// merging [compiler] overrides into reg in place.
func Load(root string, reg *compiler.Registry) (*Manifest, error) {
	m := &Manifest{
		RootFolder:     root,
		ProjectName:    filepath.Base(strings.TrimRight(root, string(filepath.Separator))),
		ProjectVersion: "*",
		DepsFolder:     "deps/",
	}

	tomlPath := filepath.Join(root, locate.ManifestName)
	data, err := os.ReadFile(tomlPath)
	if err == nil {
		m.TomlPath = tomlPath
		if err := applyToml(m, reg, tomlPath, data); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, fmkerr.Wrap(fmkerr.BadManifest, tomlPath, err)
	}

	// [folders]-declared entries only count if the folder actually exists on disk.
	var declared []FolderEntry
	for _, f := range m.Folders {
		if dirExists(filepath.Join(root, f.Path)) {
			declared = append(declared, f)
		}
	}
	m.Folders = declared

	// Default folders (src/source/lib/library/test) that exist on disk are
	// always added, in addition to any [folders] declarations.
	for _, def := range defaultFolders {
		if dirExists(filepath.Join(root, def.Path)) {
			m.Folders = append(m.Folders, def)
		}
	}

	// Simple project: no folders found, but the root itself has sources.
	if len(m.Folders) == 0 {
		list, err := hasAnySource(root, reg)
		if err == nil && list {
			m.IsSimple = true
			m.Folders = append(m.Folders, FolderEntry{Path: "", Rule: RuleLib})
		}
	}

	// Discover an include folder: "inc/" or "include/", else the root itself.
	for _, cand := range []string{"inc/", "include/"} {
		if dirExists(filepath.Join(root, cand)) {
			m.IncFolder = cand
			break
		}
	}

	return m, nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func hasAnySource(root string, reg *compiler.Registry) (bool, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		idx := strings.LastIndex(e.Name(), ".")
		if idx < 0 {
			continue
		}
		if reg.FindByExtension(e.Name()[idx:]) != nil {
			return true, nil
		}
	}
	return false, nil
}

func applyToml(m *Manifest, reg *compiler.Registry, tomlPath string, data []byte) error {
	var raw rawManifest
	if err := toml.Unmarshal(data, &raw); err != nil {
		return tomlError(tomlPath, data, err)
	}

	if raw.Package.Name != "" {
		m.ProjectName = raw.Package.Name
	}
	if raw.Package.Version != "" {
		m.ProjectVersion = raw.Package.Version
	}

	// [compiler] overrides merge into the registry in place.
	extKeys := make([]string, 0, len(raw.Compiler))
	for k := range raw.Compiler {
		extKeys = append(extKeys, k)
	}
	sort.Strings(extKeys)
	for _, extKey := range extKeys {
		rc := raw.Compiler[extKey]
		override := compiler.Entry{
			CompileTmpl:  rc.Cc,
			LinkTmpl:     rc.Ll,
			CompileDbg:   rc.CcDbg,
			LinkDbg:      rc.LlDbg,
			IncludeFlag:  rc.Inc,
			WarningFlags: rc.Warn,
		}
		if err := reg.Merge(extKey, override); err != nil {
			return fmkerr.Wrap(fmkerr.BadManifest, tomlPath, err)
		}
	}

	// [folders], in the order they're declared in the file (spec §4.5: validation
	// order is manifest order).
	folderKeys := orderedMapKeys(data, "folders", raw.Folders)
	for _, key := range folderKeys {
		ruleStr := raw.Folders[key]
		rule, ok := folderRuleStrings[ruleStr]
		if !ok {
			return fmkerr.New(fmkerr.BadManifest,
				fmt.Sprintf("%s: folder %q: rule must be one of \"--rl\", \"--rs\" or \"--rt\", got %q", tomlPath, key, ruleStr))
		}
		m.Folders = append(m.Folders, FolderEntry{Path: key, Rule: rule})
	}

	// [dependencies], in declaration order: §5 says aggregated include/lib
	// strings append in the order dependencies are added, which determines
	// linker argument order.
	depKeys := orderedMapKeys(data, "dependencies", raw.Dependencies)
	for _, name := range depKeys {
		rd := raw.Dependencies[name]
		if rd.Version != "" && rd.Sha != "" {
			return fmkerr.New(fmkerr.BadManifest,
				fmt.Sprintf("%s: dependency %q: version= and sha= are mutually exclusive", tomlPath, name))
		}
		if rd.Path == "" && rd.Git == "" {
			return fmkerr.New(fmkerr.BadManifest,
				fmt.Sprintf("%s: dependency %q: must have either path= or git=", tomlPath, name))
		}
		if rd.Version != "" && !semverrange.Valid(rd.Version) {
			return fmkerr.New(fmkerr.BadManifest,
				fmt.Sprintf("%s: dependency %q: invalid version range %q", tomlPath, name, rd.Version))
		}
		m.Dependencies = append(m.Dependencies, DependencyEntry{
			Name:    name,
			Path:    rd.Path,
			Inc:     rd.Inc,
			Git:     rd.Git,
			Version: rd.Version,
			Sha:     rd.Sha,
			Branch:  rd.Branch,
		})
		m.HasSubDeps = true
	}

	return nil
}

// orderedMapKeys returns m's keys in the order they were declared in data's
// [section] table, falling back to alphabetical order for any key the
// declaration scan didn't find (defensive; should only happen for a TOML
// form declarationOrder doesn't recognize). go-toml/v2 decodes a table into
// a Go map, which discards declaration order, so the order has to be
// recovered from the raw source separately.
func orderedMapKeys[V any](data []byte, section string, m map[string]V) []string {
	keys := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, k := range declarationOrder(data, section) {
		if _, ok := m[k]; ok && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	var leftover []string
	for k := range m {
		if !seen[k] {
			leftover = append(leftover, k)
		}
	}
	sort.Strings(leftover)
	return append(keys, leftover...)
}

var (
	anyHeaderRe = regexp.MustCompile(`^\[`)
	keyLineRe   = regexp.MustCompile(`^("[^"]*"|'[^']*'|[A-Za-z0-9_-]+)\s*=`)
)

// declarationOrder scans the raw TOML source for the order in which keys of
// [section] were declared, recognizing both inline-table form
// ("[section]\nfoo = {...}") and dotted-table form ("[section.foo]").
func declarationOrder(data []byte, section string) []string {
	directHeaderRe := regexp.MustCompile(`^\[` + regexp.QuoteMeta(section) + `\]\s*$`)
	subHeaderRe := regexp.MustCompile(`^\[` + regexp.QuoteMeta(section) + `\.([A-Za-z0-9_"'-]+)\]`)

	var order []string
	seen := map[string]bool{}
	state := "other"

	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case directHeaderRe.MatchString(line):
			state = "direct"
			continue
		case subHeaderRe.MatchString(line):
			name := strings.Trim(subHeaderRe.FindStringSubmatch(line)[1], `"'`)
			if !seen[name] {
				seen[name] = true
				order = append(order, name)
			}
			state = "sub"
			continue
		case anyHeaderRe.MatchString(line):
			state = "other"
			continue
		}
		if state == "direct" {
			if m := keyLineRe.FindStringSubmatch(line); m != nil {
				name := strings.Trim(m[1], `"'`)
				if !seen[name] {
					seen[name] = true
					order = append(order, name)
				}
			}
		}
	}
	return order
}

// tomlError renders a go-toml/v2 decode error as flymake's
// "<path>:<line>:<col>: error: <message>" diagnostic followed by the
// offending line and a caret at the column (spec §4.4), prints it to stderr
// and returns a Custom error, since the diagnostic is already shown.
func tomlError(path string, data []byte, err error) error {
	var de *toml.DecodeError
	if de2, ok := err.(*toml.DecodeError); ok {
		de = de2
	}
	if de == nil {
		return fmkerr.Wrap(fmkerr.BadManifest, path, err)
	}

	row, col := de.Position()
	lines := strings.Split(string(data), "\n")
	var line string
	if row-1 >= 0 && row-1 < len(lines) {
		line = lines[row-1]
	}
	caret := strings.Repeat(" ", max(col-1, 0)) + "^"
	msg := fmt.Sprintf("%s:%d:%d: error: %s\n%s\n%s", path, row, col, de.Error(), line, caret)
	fmt.Fprintln(os.Stderr, msg)
	return fmkerr.New(fmkerr.Custom, msg)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

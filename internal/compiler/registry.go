// Package compiler implements flymake's Compiler Registry (spec §4.1): an
// ordered list of entries mapping a file extension to compile/link/archive
// command templates, with placeholder substitution.
package compiler

import (
	"fmt"
	"strings"
)

// Entry is one compiler registration: a set of extensions sharing a compile
// driver, link driver and their debug/warning flags.
type Entry struct {
	Extensions     string // dot-prefixed concatenation, e.g. ".c++.cpp.cxx.cc.C"
	CompileTmpl    string // requires {in} {incs} {warn} {debug} {out}
	LinkTmpl       string // requires {in} {libs} {debug} {out}
	IncludeFlag    string // e.g. "-I"
	WarningFlags   string // e.g. "-Wall -Werror "
	CompileDbg     string // e.g. "-g -DDEBUG=1 "
	LinkDbg        string // e.g. "-g "
}

// ArchiveTmpl is fixed and shared by every entry (spec §4.1, §6).
const ArchiveTmpl = "ar -crs {library} {objects}"

// Registry holds the ordered list of compiler entries.
type Registry struct {
	entries []*Entry
}

// NewDefault returns a Registry pre-populated with the two built-in entries
// present even without a manifest: a C driver and a C++ driver.
func NewDefault() *Registry {
	r := &Registry{}
	r.entries = append(r.entries, &Entry{
		Extensions:   ".c",
		CompileTmpl:  "cc {in} -c {incs}{warn}{debug}-o {out}",
		LinkTmpl:     "cc {in} {libs}{debug}-o {out}",
		IncludeFlag:  "-I",
		WarningFlags: "-Wall -Werror ",
		CompileDbg:   "-g -DDEBUG=1 ",
		LinkDbg:      "-g ",
	})
	r.entries = append(r.entries, &Entry{
		Extensions:   ".c++.cpp.cxx.cc.C",
		CompileTmpl:  "c++ {in} -c {incs}{warn}{debug}-o {out}",
		LinkTmpl:     "c++ {in} {libs}{debug}-o {out}",
		IncludeFlag:  "-I",
		WarningFlags: "-Wall -Werror ",
		CompileDbg:   "-g -DDEBUG=1 ",
		LinkDbg:      "-g ",
	})
	return r
}

// Entries returns the registry's entries in registration order.
func (r *Registry) Entries() []*Entry { return r.entries }

// FindByExtension returns the entry whose Extensions string contains ext as
// a dot-delimited token, e.g. ".cpp" matches ".c++.cpp.cxx.cc.C". Returns
// nil when no entry registers that extension.
func (r *Registry) FindByExtension(ext string) *Entry {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	for _, e := range r.entries {
		if hasExtToken(e.Extensions, ext) {
			return e
		}
	}
	return nil
}

func hasExtToken(exts, ext string) bool {
	// exts is like ".c++.cpp.cxx.cc.C" — split on '.' keeping tokens non-empty.
	for _, tok := range strings.Split(exts, ".") {
		if tok == "" {
			continue
		}
		if "."+tok == ext {
			return true
		}
	}
	return false
}

// AllExtensions returns the concatenation of every registered entry's
// Extensions string, used by the Source Indexer to know which files
// compile.
func (r *Registry) AllExtensions() string {
	var b strings.Builder
	for _, e := range r.entries {
		b.WriteString(e.Extensions)
	}
	return b.String()
}

// Merge updates (or inserts) the entry matching extsKey in place: unspecified
// fields in the override keep the existing entry's defaults; a brand-new
// extension key inserts a new entry seeded from the given override.
// Missing Cc/Ll after merge is a hard error (spec §4.1).
func (r *Registry) Merge(extsKey string, override Entry) error {
	var target *Entry
	for _, e := range r.entries {
		if e.Extensions == extsKey {
			target = e
			break
		}
	}
	if target == nil {
		target = &Entry{Extensions: extsKey}
		r.entries = append(r.entries, target)
	}
	if override.CompileTmpl != "" {
		target.CompileTmpl = override.CompileTmpl
	}
	if override.LinkTmpl != "" {
		target.LinkTmpl = override.LinkTmpl
	}
	if override.IncludeFlag != "" {
		target.IncludeFlag = override.IncludeFlag
	}
	if override.WarningFlags != "" {
		target.WarningFlags = override.WarningFlags
	}
	if override.CompileDbg != "" {
		target.CompileDbg = override.CompileDbg
	}
	if override.LinkDbg != "" {
		target.LinkDbg = override.LinkDbg
	}
	if target.CompileTmpl == "" || target.LinkTmpl == "" {
		return fmt.Errorf("compiler %q: missing cc= or ll= after merge", extsKey)
	}
	return nil
}

var requiredCompilePlaceholders = []string{"{in}", "{incs}", "{warn}", "{debug}", "{out}"}
var requiredLinkPlaceholders = []string{"{in}", "{libs}", "{debug}", "{out}"}

// FormatIncludes turns a list of include folders into
// the {incs} substitution value: each folder prefixed with the entry's
// include flag, order preserved, trailing space.
func (e *Entry) FormatIncludes(folders []string) string {
	var b strings.Builder
	for _, f := range folders {
		if f == "" {
			continue
		}
		b.WriteString(e.IncludeFlag)
		b.WriteString(f)
		b.WriteString(" ")
	}
	return b.String()
}

// FormatCompile substitutes every placeholder in the compile template
// exactly once. Fails if the template is missing a required placeholder.
func (e *Entry) FormatCompile(in, incs, warn, debug, out string) (string, error) {
	if err := checkPlaceholders(e.CompileTmpl, requiredCompilePlaceholders); err != nil {
		return "", err
	}
	r := strings.NewReplacer(
		"{in}", in,
		"{incs}", incs,
		"{warn}", warn,
		"{debug}", debug,
		"{out}", out,
	)
	return r.Replace(e.CompileTmpl), nil
}

// FormatLink substitutes every placeholder in the link template exactly once.
func (e *Entry) FormatLink(in, libs, debug, out string) (string, error) {
	if err := checkPlaceholders(e.LinkTmpl, requiredLinkPlaceholders); err != nil {
		return "", err
	}
	r := strings.NewReplacer(
		"{in}", in,
		"{libs}", libs,
		"{debug}", debug,
		"{out}", out,
	)
	return r.Replace(e.LinkTmpl), nil
}

// FormatArchive substitutes the fixed archive template.
func FormatArchive(library, objects string) string {
	r := strings.NewReplacer("{library}", library, "{objects}", objects)
	return r.Replace(ArchiveTmpl)
}

func checkPlaceholders(tmpl string, required []string) error {
	for _, ph := range required {
		if strings.Count(tmpl, ph) != 1 {
			return fmt.Errorf("template %q: placeholder %s must appear exactly once", tmpl, ph)
		}
	}
	return nil
}

// Package source implements flymake's Source Indexer (spec §4.2): it
// enumerates a folder tree to a sorted list of compilable source files and
// groups those files into "tool sets" — one program per base name.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"flymake/internal/compiler"
)

// List is a sorted sequence of source-file paths under one folder.
type List struct {
	Folder string
	Files  []string // relative to Folder, sorted lexicographically
}

// New enumerates a folder tree to a sorted list of compilable sources,
// recursing up to depth subfolders (0 means just the folder itself, 1 one
// level of subfolders, and so on). Non-matching files and all directories
// are excluded from the result. Returns an empty, non-nil list when the
// folder exists and contains no matches.
func New(reg *compiler.Registry, folder string, depth int) (*List, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("cannot enumerate %q: %w", folder, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", folder)
	}

	list := &List{Folder: folder, Files: []string{}}
	err = walkDepth(folder, folder, depth, func(rel string, ext string) {
		if reg.FindByExtension(ext) != nil {
			list.Files = append(list.Files, rel)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("cannot enumerate %q: %w", folder, err)
	}
	sort.Strings(list.Files)
	return list, nil
}

// walkDepth visits every regular file under root up to the given recursion
// depth, invoking fn with the path relative to root and the file's
// extension (including the leading dot).
func walkDepth(root, dir string, depth int, fn func(rel, ext string)) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, ent := range entries {
		full := filepath.Join(dir, ent.Name())
		if ent.IsDir() {
			if depth <= 0 {
				continue
			}
			if err := walkDepth(root, full, depth-1, fn); err != nil {
				return err
			}
			continue
		}
		ext := fileExt(ent.Name())
		if ext == "" {
			continue
		}
		rel, err := filepath.Rel(root, full)
		if err != nil {
			rel = full
		}
		fn(filepath.ToSlash(rel), ext)
	}
	return nil
}

// fileExt returns the dot-prefixed extension of a filename, e.g. "foo.cpp"
// -> ".cpp", "foo" -> "".
func fileExt(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return name[idx:]
}

// Tool groups every source file in one folder whose base name shares the
// stem of a "primary" source — see the grouping rule in spec §4.2.
type Tool struct {
	Name        string
	SourceFiles []string // relative to the tool folder, sorted
}

// ToolList is the result of grouping a Src List's files into Tools.
type ToolList struct {
	Folder string
	Tools  []*Tool
}

// NewToolList enumerates folder at depth 0, then groups the resulting
// source files into tools.
//
// Grouping rule: iterate sources in sorted order. For the first unconsumed
// source, its prefix is the path up to and including the last '/' plus its
// basename stem (everything before the extension's first '.'). Every
// yet-unconsumed source whose path begins with this prefix joins the same
// tool, whose name is the stem (so tool.c and tool_aux.c form one tool).
// Repeat until every source is consumed.
func NewToolList(reg *compiler.Registry, folder string) (*ToolList, error) {
	list, err := New(reg, folder, 0)
	if err != nil {
		return nil, err
	}

	consumed := make([]bool, len(list.Files))
	tl := &ToolList{Folder: folder}

	for i, f := range list.Files {
		if consumed[i] {
			continue
		}
		prefix := stemOf(f) // path up to and including last '/' plus the basename stem
		tool := &Tool{Name: baseStem(prefix)}
		for j := i; j < len(list.Files); j++ {
			if consumed[j] {
				continue
			}
			cand := list.Files[j]
			if strings.HasPrefix(cand, prefix) {
				tool.SourceFiles = append(tool.SourceFiles, cand)
				consumed[j] = true
			}
		}
		tl.Tools = append(tl.Tools, tool)
	}
	return tl, nil
}

// stemOf returns the path up to (and not including) the extension's first
// dot, e.g. "tool.c" -> "tool", "sub/tool.test.cpp" -> "sub/tool".
func stemOf(path string) string {
	base := filepath.Base(path)
	dir := filepath.Dir(path)
	idx := strings.Index(base, ".")
	stemBase := base
	if idx >= 0 {
		stemBase = base[:idx]
	}
	if dir == "." {
		return stemBase
	}
	return dir + "/" + stemBase
}

// baseStem returns just the final path component of a stem.
func baseStem(stem string) string {
	return filepath.Base(stem)
}

// Find returns the Tool with the given name, or nil.
func (tl *ToolList) Find(name string) *Tool {
	for _, t := range tl.Tools {
		if t.Name == name {
			return t
		}
	}
	return nil
}

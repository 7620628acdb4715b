// Package locate implements flymake's Root Locator (spec §4.3): given any
// file or folder path, it finds the project root by ascending and
// inspecting folder contents.
package locate

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"flymake/internal/compiler"
	"flymake/internal/fmkerr"
)

// ManifestName is the fixed manifest file name (spec §6).
const ManifestName = "flymake.toml"

// rootMarkers are folder contents that qualify an ancestor as a root.
var rootMarkers = []string{ManifestName, "src", "source", "lib", "library"}

// ExpandHome expands a leading "~" to the user's home directory.
func ExpandHome(path string) string {
	if path == "~" {
		if u, err := user.Current(); err == nil {
			return u.HomeDir
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if u, err := user.Current(); err == nil {
			return filepath.Join(u.HomeDir, path[2:])
		}
	}
	return path
}

// normalizeToFolder resolves path (file or folder, relative or absolute,
// possibly empty) down to a folder path. Empty or "." means the current
// directory, represented as "".
func normalizeToFolder(path string) (string, error) {
	path = ExpandHome(path)
	if path == "" || path == "." {
		return "", nil
	}
	info, err := os.Stat(path)
	if err != nil {
		// Path doesn't exist: treat it as a folder candidate anyway so the
		// caller can report BadPath with the original string.
		return path, err
	}
	if !info.IsDir() {
		return filepath.Dir(path), nil
	}
	return path, nil
}

// Find locates the project root from an arbitrary path, returning the
// absolute root folder. Fails with fmkerr.NotAProject when no ancestor
// qualifies and the starting folder is not a simple project either.
func Find(path string, reg *compiler.Registry) (string, error) {
	folder, statErr := normalizeToFolder(path)
	if statErr != nil {
		return "", fmkerr.Wrap(fmkerr.BadPath, path, statErr)
	}

	display := folder
	if display == "" {
		display = "."
	}

	// Ascend at most three levels: the starting folder and two parents.
	cur, err := filepath.Abs(display)
	if err != nil {
		return "", fmkerr.Wrap(fmkerr.NotAProject, path, err)
	}
	for level := 0; level < 3; level++ {
		if hasRootMarker(cur) {
			abs, err := filepath.Abs(cur)
			if err != nil {
				return "", fmkerr.Wrap(fmkerr.NotAProject, path, err)
			}
			return abs, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	// Simple project: the starting folder itself contains a compilable file.
	if isSimpleRoot(display, reg) {
		abs, err := filepath.Abs(display)
		if err != nil {
			return "", fmkerr.Wrap(fmkerr.NotAProject, path, err)
		}
		return abs, nil
	}

	return "", fmkerr.New(fmkerr.NotAProject, path)
}

func hasRootMarker(folder string) bool {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return false
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	for _, marker := range rootMarkers {
		if names[marker] {
			return true
		}
	}
	return false
}

func isSimpleRoot(folder string, reg *compiler.Registry) bool {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := extOf(e.Name())
		if ext != "" && reg.FindByExtension(ext) != nil {
			return true
		}
	}
	return false
}

func extOf(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return name[idx:]
}

// SameRoot resolves path1 and path2 (each may be empty, meaning ".") via
// Find and reports whether they belong to the same project root.
func SameRoot(reg *compiler.Registry, path1, path2 string) bool {
	if path1 == "" {
		path1 = "."
	}
	if path2 == "" {
		path2 = "."
	}
	r1, err1 := Find(path1, reg)
	r2, err2 := Find(path2, reg)
	if err1 != nil || err2 != nil {
		return false
	}
	c1, e1 := filepath.EvalSymlinks(r1)
	c2, e2 := filepath.EvalSymlinks(r2)
	if e1 != nil {
		c1 = r1
	}
	if e2 != nil {
		c2 = r2
	}
	return c1 == c2
}

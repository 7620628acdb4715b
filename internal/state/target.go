package state

import (
	"os"
	"path/filepath"
	"strings"

	"flymake/internal/fmkerr"
	"flymake/internal/locate"
)

// Target is a user-specified folder (and optionally a file within it),
// resolved against a Project's state (spec §3 "Target").
type Target struct {
	Original string // the string as the user typed it
	Folder   string // relative to the project root, e.g. "src/"
	File     string // basename, set only if Original named a file
	Rule     Rule
}

// ParseTarget resolves userString against p per spec §4.7's six steps:
// resolve to an existing folder, classify its rule (root -> Proj, a forced
// --rl/--rs/--rt flag, or a matching folder-list entry), verify it belongs
// to the same project, and record a named file's basename if userString
// pointed at a file rather than a folder.
func ParseTarget(p *Project, userString string) (*Target, error) {
	folderPath, file, err := splitExistingFolder(userString)
	if err != nil {
		return nil, fmkerr.Wrap(fmkerr.BadPath, userString, err)
	}

	t := &Target{Original: userString, File: file}

	absFolder, err := filepath.Abs(folderPath)
	if err != nil {
		return nil, fmkerr.Wrap(fmkerr.BadPath, userString, err)
	}
	absRoot, err := filepath.Abs(p.FullPath)
	if err != nil {
		return nil, fmkerr.Wrap(fmkerr.BadPath, p.FullPath, err)
	}

	if samePathString(absFolder, absRoot) {
		t.Rule = RuleProj
		t.Folder = ""
		return t, nil
	}

	switch {
	case p.Opts.RulesLib:
		t.Rule = RuleLib
	case p.Opts.RulesSrc:
		t.Rule = RuleSrc
	case p.Opts.RulesTool:
		t.Rule = RuleTool
	default:
		rel, err := filepath.Rel(absRoot, absFolder)
		if err != nil {
			return nil, fmkerr.Wrap(fmkerr.BadPath, userString, err)
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasSuffix(rel, "/") {
			rel += "/"
		}
		f := p.FindFolder(rel)
		if f == nil {
			return nil, fmkerr.New(fmkerr.NoRule, userString)
		}
		t.Rule = f.Rule
		t.Folder = f.Path
	}

	if t.Folder == "" {
		rel, err := filepath.Rel(absRoot, absFolder)
		if err != nil {
			return nil, fmkerr.Wrap(fmkerr.BadPath, userString, err)
		}
		t.Folder = filepath.ToSlash(rel) + "/"
	}

	same, err := sameProjectRoot(p, absFolder)
	if err != nil {
		return nil, err
	}
	if !same {
		return nil, fmkerr.New(fmkerr.NotSameRoot, userString)
	}

	return t, nil
}

// splitExistingFolder resolves userString to an existing folder, splitting
// off a trailing file component if userString names a file rather than a
// directory.
func splitExistingFolder(userString string) (folder, file string, err error) {
	path := locate.ExpandHome(userString)

	info, statErr := os.Stat(path)
	if statErr == nil && info.IsDir() {
		return path, "", nil
	}
	if statErr == nil {
		// Names an existing file: the folder is its parent.
		return filepath.Dir(path), filepath.Base(path), nil
	}

	// Doesn't exist as given; maybe it names a folder that doesn't exist.
	return "", "", statErr
}

// sameProjectRoot reports whether absFolder's project root matches p's, per
// locate.SameRoot.
func sameProjectRoot(p *Project, absFolder string) (bool, error) {
	return locate.SameRoot(p.Reg, absFolder, p.FullPath), nil
}

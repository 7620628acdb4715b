package build

import (
	"os"
	"path/filepath"

	"flymake/internal/source"
	"flymake/internal/state"
)

// Clean implements spec §4.6's Clean rule: removes every folder's out/
// tree; when rebuild is set, additionally removes each folder's archive or
// program artifact; when --all is set, also removes the entire deps
// directory. Per §7, Clean always reports success even when an individual
// removal fails (a missing or already-removed artifact isn't an error).
func Clean(p *state.Project) error {
	for _, f := range p.Folders {
		full := filepath.Join(p.FullPath, f.Path)
		os.RemoveAll(filepath.Join(full, "out"))

		if !p.Opts.Rebuild {
			continue
		}
		switch f.Rule {
		case state.RuleLib:
			os.Remove(filepath.Join(p.FullPath, p.LibPath(f.Path)))
		case state.RuleSrc:
			os.Remove(filepath.Join(p.FullPath, p.SrcProgPath(f.Path)))
		case state.RuleTool:
			cleanTools(p, full)
		}
	}

	if p.Opts.All && p.DepsFolder != "" {
		os.RemoveAll(filepath.Join(p.FullPath, p.DepsFolder))
	}
	return nil
}

func cleanTools(p *state.Project, full string) {
	tl, err := source.NewToolList(p.Reg, full)
	if err != nil {
		return
	}
	for _, tool := range tl.Tools {
		os.Remove(filepath.Join(full, tool.Name))
	}
}

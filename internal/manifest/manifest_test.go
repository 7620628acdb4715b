package manifest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"flymake/internal/compiler"
)

func testdataDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "testdata")
}

func TestLoad_WithToml(t *testing.T) {
	reg := compiler.NewDefault()
	root := filepath.Join(testdataDir(), "withtoml")
	m, err := Load(root, reg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.ProjectName != "widget" {
		t.Errorf("ProjectName = %q, want widget", m.ProjectName)
	}
	if m.ProjectVersion != "1.2.3" {
		t.Errorf("ProjectVersion = %q, want 1.2.3", m.ProjectVersion)
	}
	if m.IncFolder != "inc/" {
		t.Errorf("IncFolder = %q, want inc/", m.IncFolder)
	}
	if len(m.Dependencies) != 1 || m.Dependencies[0].Name != "foo" {
		t.Fatalf("Dependencies = %+v", m.Dependencies)
	}
	found := false
	for _, f := range m.Folders {
		if f.Path == "src/" && f.Rule == RuleSrc {
			found = true
		}
	}
	if !found {
		t.Errorf("expected src/ folder with Src rule, got %+v", m.Folders)
	}
}

func TestLoad_DefaultsWithoutToml(t *testing.T) {
	reg := compiler.NewDefault()
	root := filepath.Join(testdataDir(), "defaults")
	m, err := Load(root, reg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.ProjectName != "defaults" {
		t.Errorf("ProjectName = %q, want defaults (folder basename)", m.ProjectName)
	}
	if m.ProjectVersion != "*" {
		t.Errorf("ProjectVersion = %q, want *", m.ProjectVersion)
	}
	found := false
	for _, f := range m.Folders {
		if f.Path == "lib/" && f.Rule == RuleLib {
			found = true
		}
	}
	if !found {
		t.Errorf("expected lib/ folder to be discovered by default, got %+v", m.Folders)
	}
}

func TestLoad_SimpleProject(t *testing.T) {
	reg := compiler.NewDefault()
	root := filepath.Join(testdataDir(), "simple")
	m, err := Load(root, reg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !m.IsSimple {
		t.Errorf("expected IsSimple = true for a root-only source tree")
	}
	if len(m.Folders) != 1 || m.Folders[0].Rule != RuleLib {
		t.Fatalf("expected single synthesized Lib folder, got %+v", m.Folders)
	}
}

func TestLoad_VersionAndShaConflict(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "flymake.toml"), `
[dependencies]
foo = { path = "../foo/", version = "1.2", sha = "abc123" }
`)
	reg := compiler.NewDefault()
	_, err := Load(dir, reg)
	if err == nil {
		t.Fatalf("expected error for version+sha conflict")
	}
}

func TestLoad_MissingPathAndGit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "flymake.toml"), `
[dependencies]
foo = { version = "1.2" }
`)
	reg := compiler.NewDefault()
	_, err := Load(dir, reg)
	if err == nil {
		t.Fatalf("expected error for missing path= and git=")
	}
}

func TestLoad_CompilerOverrideMergesIntoRegistry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "flymake.toml"), `
[compiler]
".c" = { cc = "clang {in} -c {incs}{warn}{debug}-o {out}", ll = "clang {in} {libs}{debug}-o {out}" }
`)
	reg := compiler.NewDefault()
	_, err := Load(dir, reg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	e := reg.FindByExtension(".c")
	if e.CompileTmpl[:5] != "clang" {
		t.Errorf("expected compiler override to apply, got %q", e.CompileTmpl)
	}
}

func TestLoad_DependenciesPreserveDeclarationOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "flymake.toml"), `
[dependencies]
zeta = { path = "../zeta/", version = "*" }
alpha = { path = "../alpha/", version = "*" }
mu = { path = "../mu/", version = "*" }
`)
	reg := compiler.NewDefault()
	m, err := Load(dir, reg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"zeta", "alpha", "mu"}
	if len(m.Dependencies) != len(want) {
		t.Fatalf("Dependencies = %+v, want %d entries", m.Dependencies, len(want))
	}
	for i, name := range want {
		if m.Dependencies[i].Name != name {
			t.Errorf("Dependencies[%d].Name = %q, want %q (declaration order, not alphabetical)", i, m.Dependencies[i].Name, name)
		}
	}
}

func TestLoad_DottedTableDependenciesPreserveDeclarationOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "flymake.toml"), `
[dependencies.zeta]
path = "../zeta/"
version = "*"

[dependencies.alpha]
path = "../alpha/"
version = "*"
`)
	reg := compiler.NewDefault()
	m, err := Load(dir, reg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Dependencies) != 2 || m.Dependencies[0].Name != "zeta" || m.Dependencies[1].Name != "alpha" {
		t.Fatalf("Dependencies = %+v, want [zeta alpha] in declaration order", m.Dependencies)
	}
}

func TestLoad_FoldersPreserveDeclarationOrder(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"zfolder", "afolder"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	writeFile(t, filepath.Join(dir, "flymake.toml"), `
[folders]
zfolder = "--rt"
afolder = "--rl"
`)
	reg := compiler.NewDefault()
	m, err := Load(dir, reg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Folders) < 2 || m.Folders[0].Path != "zfolder" || m.Folders[1].Path != "afolder" {
		t.Fatalf("Folders = %+v, want zfolder before afolder (declaration order, not alphabetical)", m.Folders)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writeFile(%s): %v", path, err)
	}
}

package state

import (
	"path/filepath"
	"runtime"
	"testing"

	"flymake/internal/logx"
)

func testdataDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "testdata")
}

func newLogger() *logx.Logger {
	return logx.New(0, 0, false)
}

func TestNewRoot_FoldersAndAggregates(t *testing.T) {
	root := filepath.Join(testdataDir(), "proj")
	p, err := NewRoot(root, Options{}, newLogger())
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	if p.ProjectName != "proj" {
		t.Errorf("ProjectName = %q, want proj", p.ProjectName)
	}
	if p.FindFolderByRule(RuleSrc) == nil {
		t.Errorf("expected a Src folder, got %+v", p.Folders)
	}
	if p.FindFolderByRule(RuleLib) == nil {
		t.Errorf("expected a Lib folder, got %+v", p.Folders)
	}
	if len(p.AggLibs) != 1 {
		t.Fatalf("AggLibs = %+v, want one entry for the lib/ folder", p.AggLibs)
	}
	wantLib := filepath.Join("lib", "proj") + ".a"
	if p.AggLibs[0] != wantLib {
		t.Errorf("AggLibs[0] = %q, want %q", p.AggLibs[0], wantLib)
	}
	if len(p.AggIncludes) < 2 || p.AggIncludes[0] != "." || p.AggIncludes[1] != "inc/" {
		t.Errorf("AggIncludes = %+v, want [. inc/ ...]", p.AggIncludes)
	}
}

func TestLibPath_DefaultAndNamedFolder(t *testing.T) {
	p := &Project{ProjectName: "widget"}
	if got, want := p.LibPath("lib/"), filepath.Join("lib", "widget")+".a"; got != want {
		t.Errorf("LibPath(lib/) = %q, want %q", got, want)
	}
	if got, want := p.LibPath("extra/"), filepath.Join("extra", "extra")+".a"; got != want {
		t.Errorf("LibPath(extra/) = %q, want %q", got, want)
	}
}

func TestSrcProgPath_DefaultAndNamedFolder(t *testing.T) {
	p := &Project{ProjectName: "widget"}
	if got, want := p.SrcProgPath("src/"), filepath.Join("src", "widget"); got != want {
		t.Errorf("SrcProgPath(src/) = %q, want %q", got, want)
	}
	if got, want := p.SrcProgPath("tools/"), filepath.Join("tools", "tools"); got != want {
		t.Errorf("SrcProgPath(tools/) = %q, want %q", got, want)
	}
}

func TestAddDep_AppendsDepAndLibs(t *testing.T) {
	p := &Project{AggIncludes: []string{"."}}
	p.AddDep(&Dependency{Name: "foo", IncFolder: "deps/foo/inc/", Libs: "deps/foo/lib/foo.a"})
	if len(p.AggLibs) != 1 || p.AggLibs[0] != "deps/foo/lib/foo.a" {
		t.Errorf("AggLibs = %+v", p.AggLibs)
	}
	if len(p.AggIncludes) != 1 {
		t.Errorf("AggIncludes = %+v, want unchanged (include scoping is the caller's job)", p.AggIncludes)
	}
	if p.FindDep("foo") == nil {
		t.Errorf("FindDep(foo) = nil")
	}
}

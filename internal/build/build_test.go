package build

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"flymake/internal/logx"
	"flymake/internal/state"
)

func testdataDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "testdata")
}

// copyFixture copies a testdata project into a fresh temp dir so a test's
// compile/archive/link outputs never leak back into testdata/.
func copyFixture(t *testing.T, name string) string {
	t.Helper()
	src := filepath.Join(testdataDir(), name)
	dst := filepath.Join(t.TempDir(), name)
	if err := copyTree(src, dst); err != nil {
		t.Fatalf("copyTree: %v", err)
	}
	return dst
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.Create(target)
		if err != nil {
			return err
		}
		defer out.Close()
		_, err = io.Copy(out, in)
		return err
	})
}

func newProject(t *testing.T, root string, opts state.Options) *state.Project {
	t.Helper()
	p, err := state.NewRoot(root, opts, logx.New(0, 0, false))
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	return p
}

func TestBuildLib_CompilesAndArchives(t *testing.T) {
	root := copyFixture(t, "libproj")
	p := newProject(t, root, state.Options{})

	if err := BuildLib(p, "lib/"); err != nil {
		t.Fatalf("BuildLib: %v", err)
	}
	libPath := filepath.Join(root, p.LibPath("lib/"))
	if !fileExists(libPath) {
		t.Fatalf("expected archive at %s", libPath)
	}
	if !p.LibCompiled {
		t.Errorf("expected LibCompiled = true")
	}
	if p.Stats.Compiled != 2 {
		t.Errorf("Stats.Compiled = %d, want 2", p.Stats.Compiled)
	}
}

func TestBuildLib_SecondRunIsUpToDate(t *testing.T) {
	root := copyFixture(t, "libproj")
	p := newProject(t, root, state.Options{})
	if err := BuildLib(p, "lib/"); err != nil {
		t.Fatalf("BuildLib: %v", err)
	}

	p2 := newProject(t, root, state.Options{})
	if err := BuildLib(p2, "lib/"); err != nil {
		t.Fatalf("BuildLib (second run): %v", err)
	}
	if p2.Stats.Compiled != 0 {
		t.Errorf("Stats.Compiled on second run = %d, want 0 (up to date)", p2.Stats.Compiled)
	}
	if p2.LibCompiled {
		t.Errorf("LibCompiled should stay false when nothing recompiled and archive already exists")
	}
}

func TestBuildTools_GroupsAndLinksEachTool(t *testing.T) {
	root := copyFixture(t, "toolproj")
	p := newProject(t, root, state.Options{})

	if err := BuildTools(p, "test/", ""); err != nil {
		t.Fatalf("BuildTools: %v", err)
	}
	if !fileExists(filepath.Join(root, "test", "tool")) {
		t.Errorf("expected tool executable at test/tool")
	}
	if !fileExists(filepath.Join(root, "test", "other")) {
		t.Errorf("expected tool executable at test/other")
	}
}

func TestClean_RemovesOutAndArchive(t *testing.T) {
	root := copyFixture(t, "libproj")
	p := newProject(t, root, state.Options{Rebuild: true})
	if err := BuildLib(p, "lib/"); err != nil {
		t.Fatalf("BuildLib: %v", err)
	}

	if err := Clean(p); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if fileExists(filepath.Join(root, p.LibPath("lib/"))) {
		t.Errorf("expected archive removed by Clean with rebuild set")
	}
	if _, err := os.Stat(filepath.Join(root, "lib", "out")); !os.IsNotExist(err) {
		t.Errorf("expected out/ removed by Clean")
	}
}

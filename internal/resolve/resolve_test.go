package resolve

import (
	"path/filepath"
	"runtime"
	"testing"

	"flymake/internal/logx"
	"flymake/internal/manifest"
	"flymake/internal/state"
)

func testdataDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "testdata")
}

func newLogger() *logx.Logger {
	return logx.New(0, 0, false)
}

func TestResolveAll_LocalPathAndPrebuilt(t *testing.T) {
	root, err := state.NewRoot(filepath.Join(testdataDir(), "root"), state.Options{}, newLogger())
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	if err := ResolveAll(root, newLogger()); err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}

	if len(root.Deps) != 2 {
		t.Fatalf("Deps = %+v, want 2 entries", root.Deps)
	}

	local := root.FindDep("localdep")
	if local == nil {
		t.Fatalf("expected localdep entry")
	}
	if local.ActualVersion != "1.0.5" {
		t.Errorf("localdep ActualVersion = %q, want 1.0.5", local.ActualVersion)
	}
	if local.Child == nil {
		t.Errorf("expected localdep to have a child project")
	}

	preb := root.FindDep("preb")
	if preb == nil {
		t.Fatalf("expected preb entry")
	}
	if preb.Child != nil {
		t.Errorf("prebuilt dependency should have no child project")
	}
	if !preb.Built {
		t.Errorf("prebuilt dependency should be marked Built")
	}

	if len(root.AggLibs) != 2 {
		t.Errorf("AggLibs = %+v, want 2 entries", root.AggLibs)
	}
}

func TestResolveAll_VersionConflict(t *testing.T) {
	root, err := state.NewRoot(filepath.Join(testdataDir(), "root"), state.Options{}, newLogger())
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	if err := ResolveAll(root, newLogger()); err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}

	// Simulate a second [dependencies] reference to the same name with an
	// incompatible range, as would occur in a deeper manifest level.
	conflict := manifest.DependencyEntry{Name: "localdep", Path: "../localdep/", Version: "2.0"}
	if err := resolveLevel(root, root, []manifest.DependencyEntry{conflict}, newLogger(), map[string]bool{root.FullPath: true}); err == nil {
		t.Fatalf("expected a version-conflict error")
	}
}

func TestResolveAll_CycleDetected(t *testing.T) {
	root, err := state.NewRoot(filepath.Join(testdataDir(), "cyclea"), state.Options{}, newLogger())
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	err = ResolveAll(root, newLogger())
	if err == nil {
		t.Fatalf("expected a cycle error")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		e    manifest.DependencyEntry
		want depKind
	}{
		{"git wins", manifest.DependencyEntry{Git: "https://example.com/x.git", Path: "ignored/"}, kindGit},
		{"prebuilt needs inc", manifest.DependencyEntry{Path: "lib/x.a", Inc: "inc/"}, kindPrebuilt},
		{"local path folder", manifest.DependencyEntry{Path: "../dep/"}, kindLocalPath},
	}
	for _, tt := range tests {
		if got := classify(tt.e); got != tt.want {
			t.Errorf("%s: classify() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

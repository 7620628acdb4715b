package source

import (
	"path/filepath"
	"runtime"
	"testing"

	"flymake/internal/compiler"
)

func testdataDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "testdata", "simple")
}

func TestNew_SortedAndFiltered(t *testing.T) {
	reg := compiler.NewDefault()
	list, err := New(reg, testdataDir(), 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// util.h is excluded; sub/deep.c is at depth 1
	want := []string{"main.c", "sub/deep.c"}
	if len(list.Files) != len(want) {
		t.Fatalf("Files = %v, want %v", list.Files, want)
	}
	for i, w := range want {
		if list.Files[i] != w {
			t.Errorf("Files[%d] = %q, want %q", i, list.Files[i], w)
		}
	}
}

func TestNew_EmptyFolderNonNil(t *testing.T) {
	reg := compiler.NewDefault()
	dir := t.TempDir()
	list, err := New(reg, dir, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if list == nil || list.Files == nil {
		t.Fatalf("expected non-nil empty list, got %+v", list)
	}
	if len(list.Files) != 0 {
		t.Errorf("expected 0 files, got %d", len(list.Files))
	}
}

func TestNewToolList_Grouping(t *testing.T) {
	reg := compiler.NewDefault()
	tl, err := NewToolList(reg, filepath.Join(testdataDir(), "tools"))
	if err != nil {
		t.Fatalf("NewToolList: %v", err)
	}

	byName := map[string][]string{}
	for _, tool := range tl.Tools {
		byName[tool.Name] = tool.SourceFiles
	}

	if got := byName["mytool"]; len(got) != 2 {
		t.Errorf("tool mytool should group mytool.c + mytoolfoo.c, got %v", got)
	}
	if got := byName["tool"]; len(got) != 2 {
		t.Errorf("tool `tool` should group tool.c + tool_aux.c, got %v", got)
	}
	if got := byName["other"]; len(got) != 1 {
		t.Errorf("tool `other` should be its own tool, got %v", got)
	}
}

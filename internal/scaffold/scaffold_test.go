package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_ProgramLayout(t *testing.T) {
	root := t.TempDir()
	if err := New(root, Options{Name: "widget"}); err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, rel := range []string{
		"LICENSE.txt", "README.md", "flymake.toml",
		filepath.Join("inc", "widget.h"),
		filepath.Join("src", "widget.c"),
		filepath.Join("src", "widget_print.c"),
	} {
		if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
			t.Errorf("expected %s to exist: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "test")); !os.IsNotExist(err) {
		t.Errorf("expected no test/ folder for a plain program")
	}
}

func TestNew_LibAndAllLayout(t *testing.T) {
	root := t.TempDir()
	if err := New(root, Options{Name: "widget", Lib: true, All: true, Cpp: true}); err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, rel := range []string{
		filepath.Join("inc", "widget.hpp"),
		filepath.Join("lib", "widget_print.cpp"),
		filepath.Join("test", "test_widget.cpp"),
		filepath.Join("docs", "api_guide.md"),
	} {
		if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
			t.Errorf("expected %s to exist: %v", rel, err)
		}
	}
	// a library has no entry point
	if _, err := os.Stat(filepath.Join(root, "lib", "widget.cpp")); !os.IsNotExist(err) {
		t.Errorf("expected no lib/widget.cpp for a library target")
	}
}

func TestNew_PrintAndTestTemplatesMatchHelloScenario(t *testing.T) {
	root := t.TempDir()
	if err := New(root, Options{Name: "widget", All: true}); err != nil {
		t.Fatalf("New: %v", err)
	}

	printSrc, err := os.ReadFile(filepath.Join(root, "src", "widget_print.c"))
	if err != nil {
		t.Fatalf("read widget_print.c: %v", err)
	}
	if !strings.Contains(string(printSrc), `"hello %s!\n"`) {
		t.Errorf("widget_print.c should print \"hello <name>!\", got:\n%s", printSrc)
	}

	testSrc, err := os.ReadFile(filepath.Join(root, "test", "test_widget.c"))
	if err != nil {
		t.Fatalf("read test_widget.c: %v", err)
	}
	if !strings.Contains(string(testSrc), `"test passed\n"`) || !strings.Contains(string(testSrc), `"test failed\n"`) {
		t.Errorf("test_widget.c should print test passed/failed, got:\n%s", testSrc)
	}
}

func TestNew_RefusesExistingManifest(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "flymake.toml"), []byte(""), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := New(root, Options{Name: "widget"}); err == nil {
		t.Fatalf("expected error when flymake.toml already exists")
	}
}

// Package scaffold implements the `new` command: it renders flymake's
// standard folder layout (spec §6) into a fresh project directory, in the
// style of ozacod-cpp-repo-creator's generator package — plain
// fmt.Sprintf-built text templates written straight to the filesystem
// (rather than bundled into a zip for HTTP delivery, since flymake is a
// local CLI, not a service).
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"flymake/internal/fmkerr"
)

// Options controls which variant of the standard layout New renders.
type Options struct {
	Name string // project name; also the library/program identifier
	Cpp  bool   // emit .cpp/.hpp instead of .c/.h
	Lib  bool   // scaffold a library (src/ becomes lib/) instead of a program
	All  bool   // also emit test/ and docs/
}

// New renders the standard folder layout (spec §6) into root, which must
// not already contain a manifest.
func New(root string, opts Options) error {
	if opts.Name == "" {
		opts.Name = filepath.Base(root)
	}

	if _, err := os.Stat(filepath.Join(root, "flymake.toml")); err == nil {
		return fmkerr.New(fmkerr.BadPath, root+": flymake.toml already exists")
	}

	srcDir := "src"
	if opts.Lib {
		srcDir = "lib"
	}
	hExt, cExt := ".h", ".c"
	if opts.Cpp {
		hExt, cExt = ".hpp", ".cpp"
	}

	files := map[string]string{
		"LICENSE.txt":  generateLicense(opts.Name),
		"README.md":    generateReadme(opts),
		"flymake.toml": generateManifest(opts),
		filepath.Join("inc", opts.Name+hExt):           generateHeader(opts, hExt),
		filepath.Join(srcDir, opts.Name+"_print"+cExt): generatePrint(opts, hExt),
	}
	// a library has no entry point; only a program gets one
	if !opts.Lib {
		files[filepath.Join(srcDir, opts.Name+cExt)] = generateMain(opts, hExt, cExt)
	}

	if opts.Lib || opts.All {
		files[filepath.Join("test", "test_"+opts.Name+cExt)] = generateTest(opts, hExt)
	}
	if opts.All {
		files[filepath.Join("docs", "api_guide.md")] = generateAPIGuide(opts)
	}

	for rel, content := range files {
		full := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return fmkerr.Wrap(fmkerr.WriteFailed, full, err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			return fmkerr.Wrap(fmkerr.WriteFailed, full, err)
		}
	}
	return nil
}

func generateLicense(name string) string {
	return fmt.Sprintf(`MIT License

Copyright (c) %d %s contributors

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to
deal in the Software without restriction, including without limitation the
rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
sell copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
`, time.Now().Year(), name)
}

func generateReadme(o Options) string {
	kind := "program"
	if o.Lib {
		kind = "library"
	}
	return fmt.Sprintf(`# %s

A flymake %s.

## Building

`+"```\nflymake build\n```"+`

## Layout

- `+"`inc/`"+` — public headers
- `+"`%s/`"+` — sources
`, o.Name, kind, srcDirName(o))
}

func srcDirName(o Options) string {
	if o.Lib {
		return "lib"
	}
	return "src"
}

func generateManifest(o Options) string {
	return fmt.Sprintf(`[package]
name = "%s"
version = "0.1.0"
`, o.Name)
}

// generateHeader emits the project's SZ_PROJ_NAME/SZ_DEBUG defines and the
// <name>_print prototype, following the original's inc/projname.h template
// (_examples/original_source/src/flymakefolders.c).
func generateHeader(o Options, hExt string) string {
	guardSuffix := "_H"
	if o.Cpp {
		guardSuffix = "_HPP"
	}
	guard := upper(o.Name) + guardSuffix

	proto := fmt.Sprintf("char *%s_print(const char *sz);", o.Name)
	if o.Cpp {
		proto = fmt.Sprintf("std::string %s_print(const std::string &sz);", o.Name)
	}

	return fmt.Sprintf(`#ifndef %s
#define %s

#define SZ_PROJ_NAME "%s"

#ifndef DEBUG
#define DEBUG 0
#endif

#if DEBUG
#define SZ_DEBUG "(debug) "
#else
#define SZ_DEBUG ""
#endif

%s

#endif /* %s */
`, guard, guard, o.Name, proto, guard)
}

func generateMain(o Options, hExt, cExt string) string {
	if o.Cpp {
		return fmt.Sprintf(`#include "%s%s"

int main(int argc, char **argv) {
	(void)argc;
	(void)argv;
	%s_print(SZ_PROJ_NAME);
	return 0;
}
`, o.Name, hExt, o.Name)
	}
	return fmt.Sprintf(`#include <stdlib.h>
#include "%s%s"

int main(int argc, char **argv) {
	(void)argc;
	(void)argv;
	char *psz = %s_print(SZ_PROJ_NAME);
	free(psz);
	return 0;
}
`, o.Name, hExt, o.Name)
}

// generatePrint is the hello-world implementation: it prints
// "hello <name>!" (spec.md's end-to-end scenario 1), built from
// SZ_DEBUG + sz exactly as the original's print_hello does.
func generatePrint(o Options, hExt string) string {
	if o.Cpp {
		return fmt.Sprintf(`#include <iostream>
#include <string>
#include "%s%s"

std::string %s_print(const std::string &sz) {
	std::string result = std::string(SZ_DEBUG) + sz;
	std::cout << "hello " << result << "!\n";
	return result;
}
`, o.Name, hExt, o.Name)
	}
	return fmt.Sprintf(`#include <stdio.h>
#include <stdlib.h>
#include <string.h>
#include "%s%s"

char *%s_print(const char *sz) {
	char *psz = malloc(strlen(SZ_DEBUG) + strlen(sz) + 1);
	if (psz) {
		strcpy(psz, SZ_DEBUG);
		strcat(psz, sz);
		printf("hello %%s!\n", psz);
	}
	return psz;
}
`, o.Name, hExt, o.Name)
}

// generateTest compares <name>_print's result against SZ_DEBUG+SZ_PROJ_NAME
// and prints "test passed"/"test failed" (spec.md's end-to-end scenario 3),
// following the original's test/test_projname template.
func generateTest(o Options, hExt string) string {
	if o.Cpp {
		return fmt.Sprintf(`#include <iostream>
#include <string>
#include "%s%s"

int main(int argc, char **argv) {
	(void)argc;
	(void)argv;
	std::string expected = std::string(SZ_DEBUG) + SZ_PROJ_NAME;
	std::string result = %s_print(SZ_PROJ_NAME);
	int retCode = 0;

	if (result != expected) {
		std::cout << "test failed\n";
		retCode = 1;
	} else {
		std::cout << "test passed\n";
	}
	return retCode;
}
`, o.Name, hExt, o.Name)
	}
	return fmt.Sprintf(`#include <stdio.h>
#include <stdlib.h>
#include <string.h>
#include "%s%s"

int main(int argc, char **argv) {
	(void)argc;
	(void)argv;
	char szExpected[] = SZ_DEBUG SZ_PROJ_NAME;
	char *psz = %s_print(SZ_PROJ_NAME);
	int retCode = 0;

	if (psz == NULL || strcmp(psz, szExpected) != 0) {
		printf("test failed\n");
		retCode = 1;
	} else {
		printf("test passed\n");
	}
	free(psz);
	return retCode;
}
`, o.Name, hExt, o.Name)
}

func generateAPIGuide(o Options) string {
	return fmt.Sprintf(`# %s API Guide

## %s_print

Prints the project name to stdout.
`, o.Name, o.Name)
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

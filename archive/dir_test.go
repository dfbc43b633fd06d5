// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestArchive_AddDir(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"com/acme/App.class":       "app",
		"com/acme/App$Inner.class": "inner",
		"application.properties":   "server.port=0",
		"scratch.tmp":              "scratch",
		".git/HEAD":                "ref: refs/heads/main",
		".bootignore":              "*.tmp\n",
	})
	if err := os.Mkdir(filepath.Join(dir, "empty"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("application.properties", filepath.Join(dir, "linked.properties")); err != nil {
		t.Fatal(err)
	}

	a := New("app.jar")
	if err := a.AddDir(dir, "/BOOT-INF/classes"); err != nil {
		t.Fatalf("AddDir failed: %s", err)
	}

	want := []string{
		"/BOOT-INF/classes/application.properties",
		"/BOOT-INF/classes/com/acme/App$Inner.class",
		"/BOOT-INF/classes/com/acme/App.class",
		"/BOOT-INF/classes/linked.properties",
	}
	if diff := cmp.Diff(want, a.Paths()); diff != "" {
		t.Errorf("wrong paths\n%s", diff)
	}
	if !a.IsDir("/BOOT-INF/classes/empty") {
		t.Error("empty directory was not added")
	}
	if a.Contains("/BOOT-INF/classes/.git") {
		t.Error("version control metadata was added")
	}
	if got := mustRead(t, a, "/BOOT-INF/classes/linked.properties"); got != "server.port=0" {
		t.Errorf("symlinked file has wrong content %q", got)
	}
}

func TestArchive_AddDir_errors(t *testing.T) {
	a := New("app.jar")
	if err := a.AddDir(filepath.Join(t.TempDir(), "missing"), "/"); err == nil {
		t.Error("expected error for a missing directory")
	}

	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := a.AddDir(file, "/"); err == nil {
		t.Error("expected error for a regular file")
	}
}

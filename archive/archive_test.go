// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustAdd(t *testing.T, a *Archive, content, p string) {
	t.Helper()
	if err := a.Add(String(content), p); err != nil {
		t.Fatalf("failed to add %s: %s", p, err)
	}
}

func mustRead(t *testing.T, a *Archive, p string) string {
	t.Helper()
	asset, ok := a.Get(p)
	if !ok {
		t.Fatalf("%s not found in %s", p, a.Name())
	}
	got, err := ReadString(asset)
	if err != nil {
		t.Fatalf("failed to read %s: %s", p, err)
	}
	return got
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]struct {
		given   string
		want    string
		wantErr string
	}{
		"empty":              {given: "", want: "/"},
		"root":               {given: "/", want: "/"},
		"dot":                {given: ".", want: "/"},
		"relative":           {given: "BOOT-INF/lib", want: "/BOOT-INF/lib"},
		"absolute":           {given: "/BOOT-INF/lib", want: "/BOOT-INF/lib"},
		"trailing slash":     {given: "/BOOT-INF/lib/", want: "/BOOT-INF/lib"},
		"double slashes":     {given: "//a//b", want: "/a/b"},
		"backslashes":        {given: `a\b\c.txt`, want: "/a/b/c.txt"},
		"inner dot-dot":      {given: "a/b/../c", want: "/a/c"},
		"climbing above":     {given: "../etc/passwd", wantErr: "traverses above the archive root"},
		"climbing after dir": {given: "a/../../b", wantErr: "traverses above the archive root"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := normalizePath(test.given)
			if test.wantErr != "" {
				if err == nil {
					t.Fatalf("unexpected success, got %q", got)
				}
				if !strings.Contains(err.Error(), test.wantErr) {
					t.Fatalf("wrong error\ngot:  %s\nwant substring: %s", err, test.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if got != test.want {
				t.Errorf("wrong result\ngot:  %s\nwant: %s", got, test.want)
			}
		})
	}
}

func TestArchive_tree(t *testing.T) {
	a := New("app.jar")
	mustAdd(t, a, "b", "/a/b.txt")
	mustAdd(t, a, "d", "a/c/d.txt")
	if err := a.AddEmptyDir("/empty"); err != nil {
		t.Fatalf("failed to add directory: %s", err)
	}

	if diff := cmp.Diff([]string{"/a/b.txt", "/a/c/d.txt"}, a.Paths()); diff != "" {
		t.Errorf("wrong paths\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/a", "/a/c", "/empty"}, a.Dirs()); diff != "" {
		t.Errorf("wrong directories\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/a/b.txt", "/a/c"}, a.List("/a")); diff != "" {
		t.Errorf("wrong listing\n%s", diff)
	}
	if got, want := a.Len(), 2; got != want {
		t.Errorf("wrong length %d; want %d", got, want)
	}
	if !a.Contains("/a/c") || !a.IsDir("/a/c") {
		t.Error("implied directory /a/c is missing")
	}
	if a.IsDir("/a/b.txt") {
		t.Error("file reported as directory")
	}

	t.Run("replace", func(t *testing.T) {
		mustAdd(t, a, "B", "/a/b.txt")
		if got := mustRead(t, a, "/a/b.txt"); got != "B" {
			t.Errorf("content was not replaced, got %q", got)
		}
	})

	t.Run("file over directory", func(t *testing.T) {
		if err := a.Add(String("x"), "/a/c"); err == nil {
			t.Fatal("expected error adding a file over a directory")
		}
	})

	t.Run("file beneath file", func(t *testing.T) {
		if err := a.Add(String("x"), "/a/b.txt/nested"); err == nil {
			t.Fatal("expected error adding a file beneath a file")
		}
		if err := a.AddEmptyDir("/a/b.txt"); err == nil {
			t.Fatal("expected error adding a directory over a file")
		}
	})

	t.Run("file at root", func(t *testing.T) {
		if err := a.Add(String("x"), "/"); err == nil {
			t.Fatal("expected error adding a file at the root")
		}
	})

	t.Run("nil asset", func(t *testing.T) {
		if err := a.Add(nil, "/nil.txt"); err == nil {
			t.Fatal("expected error adding a nil asset")
		}
	})

	t.Run("delete", func(t *testing.T) {
		if !a.Delete("/empty") {
			t.Error("explicit empty directory was not deleted")
		}
		if a.Delete("/a") {
			t.Error("non-empty directory must not be deleted by Delete")
		}
		if got := a.DeleteTree("/a/c"); got != 1 {
			t.Errorf("DeleteTree removed %d files; want 1", got)
		}
		if diff := cmp.Diff([]string{"/a/b.txt"}, a.Paths()); diff != "" {
			t.Errorf("wrong paths after delete\n%s", diff)
		}
	})
}

func TestView(t *testing.T) {
	a := New("app.jar")
	v, err := a.View("BOOT-INF/")
	if err != nil {
		t.Fatalf("failed to create view: %s", err)
	}
	if got, want := v.Root(), "/BOOT-INF"; got != want {
		t.Errorf("wrong root %q; want %q", got, want)
	}

	if err := v.Add(String("p"), "classes/application.properties"); err != nil {
		t.Fatalf("failed to add through view: %s", err)
	}
	mustAdd(t, a, "m", "/META-INF/MANIFEST.MF")

	// writes through the view are visible through the archive and through
	// another view of the same archive
	if got := mustRead(t, a, "/BOOT-INF/classes/application.properties"); got != "p" {
		t.Errorf("wrong content %q", got)
	}
	other, _ := a.View("/BOOT-INF/classes")
	if !other.Contains("application.properties") {
		t.Error("second view does not see the file")
	}

	if diff := cmp.Diff([]string{"/BOOT-INF/classes/application.properties"}, v.Paths()); diff != "" {
		t.Errorf("wrong view paths\n%s", diff)
	}

	if _, err := v.Resolve("../META-INF/MANIFEST.MF"); err == nil {
		t.Error("expected error climbing out of the view")
	}
	if err := v.Add(String("x"), "../../escape"); err == nil {
		t.Error("expected error escaping the archive")
	}

	if err := v.Add(String("a"), "classes/com/acme/A.class"); err != nil {
		t.Fatal(err)
	}
	if err := v.Add(String("b"), "classes/com/acme/B.class"); err != nil {
		t.Fatal(err)
	}
	removed := v.DeleteMatching("classes/com", func(p string) bool {
		return strings.HasSuffix(p, "/A.class")
	})
	if diff := cmp.Diff([]string{"/BOOT-INF/classes/com/acme/A.class"}, removed); diff != "" {
		t.Errorf("wrong removed paths\n%s", diff)
	}
}

func TestArchive_Merge(t *testing.T) {
	lib := New("spring-boot-loader.jar")
	mustAdd(t, lib, "manifest", "/META-INF/MANIFEST.MF")
	mustAdd(t, lib, "maven", "/META-INF/maven/pom.xml")
	mustAdd(t, lib, "launcher", "/org/springframework/boot/loader/JarLauncher.class")
	if err := lib.AddEmptyDir("/org/springframework/boot/loader/data"); err != nil {
		t.Fatal(err)
	}

	t.Run("at root", func(t *testing.T) {
		a := New("app.jar")
		if err := a.Merge(lib, ExcludePrefix("/META-INF")); err != nil {
			t.Fatalf("merge failed: %s", err)
		}
		want := []string{"/org/springframework/boot/loader/JarLauncher.class"}
		if diff := cmp.Diff(want, a.Paths()); diff != "" {
			t.Errorf("wrong paths\n%s", diff)
		}
		if !a.IsDir("/org/springframework/boot/loader/data") {
			t.Error("explicit directory was not merged")
		}
	})

	t.Run("at prefix", func(t *testing.T) {
		a := New("app.jar")
		if err := a.MergeAt(lib, "/BOOT-INF/classes", nil); err != nil {
			t.Fatalf("merge failed: %s", err)
		}
		if got, want := a.Len(), 3; got != want {
			t.Errorf("merged %d files; want %d", got, want)
		}
		if !a.Contains("/BOOT-INF/classes/META-INF/maven/pom.xml") {
			t.Error("nil filter must accept everything")
		}
	})

	t.Run("into itself", func(t *testing.T) {
		a := New("self.jar")
		mustAdd(t, a, "x", "/x.txt")
		if err := a.MergeAt(a, "/copy", nil); err != nil {
			t.Fatalf("merge failed: %s", err)
		}
		if diff := cmp.Diff([]string{"/copy/x.txt", "/x.txt"}, a.Paths()); diff != "" {
			t.Errorf("wrong paths\n%s", diff)
		}
	})

	t.Run("nil source", func(t *testing.T) {
		if err := New("app.jar").Merge(nil, nil); err == nil {
			t.Fatal("expected error merging a nil archive")
		}
	})
}

func TestExcludePrefix(t *testing.T) {
	f := ExcludePrefix("META-INF")
	tests := map[string]bool{
		"/META-INF":             false,
		"/META-INF/MANIFEST.MF": false,
		"/META-INFO/notes.txt":  true,
		"/org/App.class":        true,
	}
	for p, want := range tests {
		if got := f(p); got != want {
			t.Errorf("ExcludePrefix(%q) = %t; want %t", p, got, want)
		}
	}
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp/go-bootjar"
	"github.com/hashicorp/go-bootjar/archive"
	"github.com/hashicorp/go-bootjar/version"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// fixture lays out a small project: a class path holding the launcher and
// the application, a compiled classes directory, a library jar and a
// recipe tying them together.
func fixture(t *testing.T, recipe string) string {
	t.Helper()
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "classpath/org/springframework/boot/loader/JarLauncher.class"), "launcher")
	writeFile(t, filepath.Join(dir, "classpath/org/springframework/boot/loader/jar/JarFile.class"), "jarfile")
	writeFile(t, filepath.Join(dir, "classpath/com/acme/App.class"), "app")
	writeFile(t, filepath.Join(dir, "classpath/com/acme/App$Inner.class"), "inner")

	writeFile(t, filepath.Join(dir, "build/classes/com/acme/Service.class"), "service")
	writeFile(t, filepath.Join(dir, "build/classes/application.yml"), "server.port: 8080\n")
	writeFile(t, filepath.Join(dir, "build/classes/debug.log"), "noise")
	writeFile(t, filepath.Join(dir, "build/classes/.bootignore"), "*.log\n")

	writeFile(t, filepath.Join(dir, "static/index.html"), "<html></html>")
	writeFile(t, filepath.Join(dir, "banner.txt"), "ACME")

	lib := archive.New("lib.jar")
	require.NoError(t, lib.Add(archive.String("lib"), "/com/lib/Lib.class"))
	require.NoError(t, lib.WriteZipFile(filepath.Join(dir, "libs/lib.jar")))

	loader := archive.New("loader.jar")
	require.NoError(t, loader.Add(archive.String("Manifest-Version: 1.0\n"), archive.ManifestPath))
	require.NoError(t, loader.Add(archive.String("launcher"), "/org/springframework/boot/loader/Launcher.class"))
	require.NoError(t, loader.WriteZipFile(filepath.Join(dir, "libs/loader.jar")))

	writeFile(t, filepath.Join(dir, "bootjar.yaml"), recipe)
	return dir
}

const jarRecipe = `
layout: "1.4"
start_class: com.acme.App
class_path: classpath
classes:
  - com.acme.App
classes_dirs:
  - build/classes
libraries:
  - libs/lib.jar
launcher_libraries:
  - libs/loader.jar
launcher_packages:
  - org.springframework.boot.loader
boot_inf_resources:
  - source: banner.txt
    target: config/banner.txt
web_resources:
  - source: static/index.html
    target: index.html
`

func TestBuildAndInspect(t *testing.T) {
	dir := fixture(t, jarRecipe)
	output := filepath.Join(dir, "out", "app.jar")

	out, err := runCommand(t, "build", "-f", filepath.Join(dir, "bootjar.yaml"), "-o", output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "h1:"), "unexpected output %q", out)

	built, err := archive.OpenZipFile(output)
	require.NoError(t, err)
	assert.Equal(t, "app.jar", built.Name())

	for _, p := range []string{
		"/META-INF/MANIFEST.MF",
		"/org/springframework/boot/loader/Launcher.class",
		"/org/springframework/boot/loader/JarLauncher.class",
		"/org/springframework/boot/loader/jar/JarFile.class",
		"/BOOT-INF/classes/com/acme/App.class",
		"/BOOT-INF/classes/com/acme/App$Inner.class",
		"/BOOT-INF/classes/com/acme/Service.class",
		"/BOOT-INF/classes/application.yml",
		"/BOOT-INF/classes/static/index.html",
		"/BOOT-INF/lib/lib.jar",
		"/BOOT-INF/config/banner.txt",
	} {
		assert.True(t, built.Contains(p), "missing %s", p)
	}
	assert.False(t, built.Contains("/BOOT-INF/classes/debug.log"), "ignored file was added")
	assert.False(t, built.Contains("/BOOT-INF/classes/.bootignore"), "ignore file was added")

	// The loader's own manifest must not replace the archive's.
	asset, ok := built.Get(archive.ManifestPath)
	require.True(t, ok)
	content, err := archive.ReadString(asset)
	require.NoError(t, err)
	m, err := bootjar.ParseManifest(strings.NewReader(content))
	require.NoError(t, err)
	mainClass, _ := m.Get(bootjar.AttrMainClass)
	assert.Equal(t, bootjar.JarLauncherClass, mainClass)
	startClass, _ := m.Get(bootjar.AttrStartClass)
	assert.Equal(t, "com.acme.App", startClass)

	out, err = runCommand(t, "inspect", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Main-Class: org.springframework.boot.loader.JarLauncher")
	assert.Contains(t, out, "Start-Class: com.acme.App")
	assert.Contains(t, out, "Classes: BOOT-INF/classes/")
	assert.Contains(t, out, "Libraries: BOOT-INF/lib/")
	assert.Contains(t, out, "Nested archives: 1")
	assert.Contains(t, out, "  BOOT-INF/lib/lib.jar")
	assert.NotContains(t, out, "Entries:")

	out, err = runCommand(t, "inspect", "--entries", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Entries:")
	assert.Contains(t, out, "  BOOT-INF/classes/com/acme/App.class")
	// BLAKE3 digest of "app".
	assert.Regexp(t, `(?m)^  [0-9a-f]{64}  BOOT-INF/classes/com/acme/App\.class$`, out)
}

func TestBuildIsReproducible(t *testing.T) {
	dir := fixture(t, jarRecipe)
	first := filepath.Join(dir, "first.jar")
	second := filepath.Join(dir, "second.jar")

	_, err := runCommand(t, "build", "-f", filepath.Join(dir, "bootjar.yaml"), "-o", first)
	require.NoError(t, err)
	_, err = runCommand(t, "build", "-f", filepath.Join(dir, "bootjar.yaml"), "-o", second)
	require.NoError(t, err)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildVersionedWar(t *testing.T) {
	dir := fixture(t, `
name: shop.war
spring_boot_version: 1.5.2.RELEASE
packaging: war
start_class: com.acme.App
class_path: classpath
classes: [com.acme.App]
`)
	output := filepath.Join(dir, "app.war")
	_, err := runCommand(t, "build", "-f", filepath.Join(dir, "bootjar.yaml"), "-o", output)
	require.NoError(t, err)

	built, err := archive.OpenZipFile(output)
	require.NoError(t, err)
	assert.True(t, built.Contains("/WEB-INF/classes/com/acme/App.class"))

	out, err := runCommand(t, "inspect", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Main-Class: org.springframework.boot.loader.WarLauncher")
	assert.Contains(t, out, "Spring-Boot-Version: 1.5.2.RELEASE")
	assert.Contains(t, out, "Libraries: WEB-INF/lib/")
}

func TestBuildErrors(t *testing.T) {
	tests := map[string]struct {
		recipe string
		errMsg string
	}{
		"empty": {
			recipe: "",
			errMsg: "recipe is empty",
		},
		"unknown field": {
			recipe: "start_class: com.acme.App\nmain_class: nope\n",
			errMsg: "field main_class not found",
		},
		"missing start class": {
			recipe: "layout: \"1.4\"\n",
			errMsg: "start_class is required",
		},
		"layout and version": {
			recipe: "start_class: a.B\nlayout: \"1.4\"\nspring_boot_version: 1.5.0\n",
			errMsg: "mutually exclusive",
		},
		"resource without source": {
			recipe: "start_class: a.B\nboot_inf_resources:\n  - target: x\n",
			errMsg: "exactly one of source or url",
		},
		"unknown layout": {
			recipe: "start_class: a.B\nlayout: \"9.9\"\n",
			errMsg: "unknown layout",
		},
		"war before 1.4": {
			recipe: "start_class: a.B\nspring_boot_version: 1.3.8.RELEASE\npackaging: war\n",
			errMsg: "cannot build executable war files",
		},
		"class without class path": {
			recipe: "start_class: a.B\nclasses: [a.B]\n",
			errMsg: "no class path configured",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "bootjar.yaml"), tc.recipe)
			_, err := runCommand(t, "build", "-f", filepath.Join(dir, "bootjar.yaml"), "-o", filepath.Join(dir, "app.jar"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
			assert.NoFileExists(t, filepath.Join(dir, "app.jar"))
		})
	}
}

func TestBuildRequiresOutput(t *testing.T) {
	_, err := runCommand(t, "build", "-f", "bootjar.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "output" not set`)
}

func TestInspectWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	a := archive.New("plain.jar")
	require.NoError(t, a.Add(archive.String("x"), "/lib/dep.jar"))
	path := filepath.Join(dir, "plain.jar")
	require.NoError(t, a.WriteZipFile(path))

	out, err := runCommand(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Manifest: none")
	assert.Contains(t, out, "Classes: BOOT-INF/classes/")
	assert.Contains(t, out, "Nested archives: 0")
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "bootjar v"), "unexpected output %q", out)
}

func TestVersionCommandPrerelease(t *testing.T) {
	defer func(v, pre string) {
		version.Version, version.VersionPrerelease = v, pre
	}(version.Version, version.VersionPrerelease)

	version.Version, version.VersionPrerelease = "1.2.3", "beta1"
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "bootjar v1.2.3-beta1\nThis is a beta1 prerelease build of 1.2.3.\n", out)

	version.VersionPrerelease = ""
	out, err = runCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "bootjar v1.2.3\n", out)
}

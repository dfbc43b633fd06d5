// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// recipe describes an archive to build. Relative paths are resolved from
// the directory holding the recipe file.
type recipe struct {
	Name string `yaml:"name"`

	// Layout is a layout catalogue name. When empty, the layout is chosen
	// from SpringBootVersion and Packaging instead.
	Layout            string `yaml:"layout"`
	SpringBootVersion string `yaml:"spring_boot_version"`
	Packaging         string `yaml:"packaging"`

	StartClass string `yaml:"start_class"`

	ClassPath         string     `yaml:"class_path"`
	ClassesDirs       []string   `yaml:"classes_dirs"`
	Classes           []string   `yaml:"classes"`
	Libraries         []string   `yaml:"libraries"`
	LauncherLibraries []string   `yaml:"launcher_libraries"`
	LauncherPackages  []string   `yaml:"launcher_packages"`
	BootInfResources  []resource `yaml:"boot_inf_resources"`
	WebResources      []resource `yaml:"web_resources"`

	// dir is the directory of the recipe file.
	dir string
}

// resource is content copied from a local file or a URL to a target path.
type resource struct {
	Source string `yaml:"source"`
	URL    string `yaml:"url"`
	Target string `yaml:"target"`
}

func loadRecipe(path string) (*recipe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recipe: %w", err)
	}
	defer f.Close()

	r, err := parseRecipe(f)
	if err != nil {
		return nil, fmt.Errorf("invalid recipe %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	r.dir = filepath.Dir(abs)
	return r, nil
}

func parseRecipe(in io.Reader) (*recipe, error) {
	content, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}

	var r recipe
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("recipe is empty")
		}
		return nil, err
	}

	if r.StartClass == "" {
		return nil, errors.New("start_class is required")
	}
	if r.Layout != "" && r.SpringBootVersion != "" {
		return nil, errors.New("layout and spring_boot_version are mutually exclusive")
	}
	for i, res := range append(append([]resource(nil), r.BootInfResources...), r.WebResources...) {
		if (res.Source == "") == (res.URL == "") {
			return nil, fmt.Errorf("resource %d must have exactly one of source or url", i)
		}
	}
	for i, res := range r.WebResources {
		if res.Source == "" {
			return nil, fmt.Errorf("web resource %d must have a source", i)
		}
	}
	return &r, nil
}

// path resolves a path from the recipe relative to the recipe's directory.
func (r *recipe) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(r.dir, p)
}

// archiveName returns the name of the archive to build: the recipe's name
// or the base name of the output file.
func (r *recipe) archiveName(output string) string {
	if r.Name != "" {
		return r.Name
	}
	return filepath.Base(output)
}

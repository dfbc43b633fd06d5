// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package bootjar

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Manifest attributes read by the Spring Boot launchers.
const (
	AttrMainClass         = "Main-Class"
	AttrStartClass        = "Start-Class"
	AttrSpringBootLib     = "Spring-Boot-Lib"
	AttrSpringBootClasses = "Spring-Boot-Classes"
	AttrSpringBootVersion = "Spring-Boot-Version"
)

// NoVersion is the version placeholder for which no Spring-Boot-Version
// attribute is written.
const NoVersion = "."

// maxLineLength is the longest manifest line, in bytes, not counting the
// line ending.
const maxLineLength = 72

// Attribute is a single name/value pair of a [Manifest].
type Attribute struct {
	Name  string
	Value string
}

// Manifest is the main section of a JAR manifest, with its attributes in
// the order they are written.
type Manifest struct {
	attrs []Attribute
}

// NewManifest returns a manifest holding the given attributes.
func NewManifest(attrs ...Attribute) *Manifest {
	m := &Manifest{}
	for _, a := range attrs {
		m.Set(a.Name, a.Value)
	}
	return m
}

// Set replaces the value of the named attribute, or appends the attribute
// if the manifest does not have it yet.
func (m *Manifest) Set(name, value string) {
	for i := range m.attrs {
		if strings.EqualFold(m.attrs[i].Name, name) {
			m.attrs[i].Value = value
			return
		}
	}
	m.attrs = append(m.attrs, Attribute{Name: name, Value: value})
}

// Get returns the value of the named attribute. Attribute names are case
// insensitive.
func (m *Manifest) Get(name string) (string, bool) {
	for _, a := range m.attrs {
		if strings.EqualFold(a.Name, name) {
			return a.Value, true
		}
	}
	return "", false
}

// Attributes returns a copy of the manifest's attributes, in order.
func (m *Manifest) Attributes() []Attribute {
	return append([]Attribute(nil), m.attrs...)
}

// String returns the manifest as it is written into an archive: one
// "Name: value" line per attribute, each ending with a newline. Lines
// longer than 72 bytes continue on the next line after a single space.
func (m *Manifest) String() string {
	var b strings.Builder
	for _, a := range m.attrs {
		writeManifestLine(&b, a.Name+": "+a.Value)
	}
	return b.String()
}

func writeManifestLine(b *strings.Builder, line string) {
	limit := maxLineLength
	for len(line) > limit {
		cut := limit
		// Never split a multi-byte character.
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\n ")
		line = line[cut:]
		// Continuation lines start with the space.
		limit = maxLineLength - 1
	}
	b.WriteString(line)
	b.WriteString("\n")
}

// ParseManifest reads the main section of a manifest. Continuation lines
// are joined to the attribute they continue, and reading stops at the
// first blank line that follows an attribute.
func ParseManifest(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	sc := bufio.NewScanner(r)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			if len(m.attrs) > 0 {
				break
			}
			continue
		}
		if line[0] == ' ' {
			if len(m.attrs) == 0 {
				return nil, fmt.Errorf("invalid manifest: continuation without an attribute on line %d", lineNum)
			}
			m.attrs[len(m.attrs)-1].Value += line[1:]
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid manifest: line %d is not an attribute: %q", lineNum, line)
		}
		m.attrs = append(m.attrs, Attribute{Name: name, Value: strings.TrimPrefix(value, " ")})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return m, nil
}

// springBootManifest builds the manifest that makes the layout's launcher
// start the given class.
func springBootManifest(layout *Layout, startClass, bootVersion string) *Manifest {
	m := NewManifest(
		Attribute{AttrMainClass, layout.LauncherClassName()},
		Attribute{AttrStartClass, startClass},
		Attribute{AttrSpringBootLib, launcherPath(layout.LibrariesPath())},
		Attribute{AttrSpringBootClasses, launcherPath(layout.ClassesPath())},
	)
	if bootVersion != NoVersion {
		m.Set(AttrSpringBootVersion, bootVersion)
	}
	return m
}

// Where the launcher looks when the manifest does not say.
const (
	DefaultLauncherLib     = "BOOT-INF/lib/"
	DefaultLauncherClasses = "BOOT-INF/classes/"
)

// ClasspathRoots are the two archive locations from which a launcher builds
// the application's class path.
type ClasspathRoots struct {
	// Lib is the directory whose files are nested library jars.
	Lib string

	// Classes is the directory holding the application's classes.
	Classes string
}

// ClasspathRootsFor reads the classpath roots from a manifest the way the
// launcher does. A nil manifest, or one without the attributes, yields the
// BOOT-INF defaults.
func ClasspathRootsFor(m *Manifest) ClasspathRoots {
	ret := ClasspathRoots{Lib: DefaultLauncherLib, Classes: DefaultLauncherClasses}
	if m == nil {
		return ret
	}
	if v, ok := m.Get(AttrSpringBootLib); ok && v != "" {
		ret.Lib = launcherPath(v)
	}
	if v, ok := m.Get(AttrSpringBootClasses); ok && v != "" {
		ret.Classes = launcherPath(v)
	}
	return ret
}

// IsNestedArchive reports whether the archive entry with the given name
// becomes a root of the application's class path: the classes directory
// itself, or any file beneath the library directory.
func (r ClasspathRoots) IsNestedArchive(name string, dir bool) bool {
	if dir {
		return name == r.Classes
	}
	return strings.HasPrefix(name, r.Lib)
}

// launcherPath converts an archive path into the form launchers use for
// entry names: no leading slash, a trailing slash.
func launcherPath(p string) string {
	p = strings.TrimPrefix(p, "/")
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

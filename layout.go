// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package bootjar

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/apparentlymart/go-versions/versions"

	"github.com/hashicorp/go-bootjar/archive"
)

// Launcher classes shipped with the Spring Boot loader.
const (
	JarLauncherClass = "org.springframework.boot.loader.JarLauncher"
	WarLauncherClass = "org.springframework.boot.loader.WarLauncher"
)

// Layout describes where one generation of Spring Boot expects to find the
// parts of an executable archive, and which launcher class boots it.
//
// Layouts are immutable. The boot-info and web-info roots are optional:
// their accessors fail with [ErrUnsupported] for layouts that do not have
// them.
type Layout struct {
	launcherClass string
	bootInf       string
	webInf        string
	libraries     string
	classes       string
}

// NewLayout returns a custom layout. The empty string marks the boot-info
// or web-info root as absent; the launcher class, the libraries root and
// the classes root are required.
func NewLayout(launcherClass, bootInf, webInf, libraries, classes string) (*Layout, error) {
	if launcherClass == "" {
		return nil, invalidArgument("launcher class name must be specified")
	}
	if libraries == "" {
		return nil, invalidArgument("libraries path must be specified")
	}
	if classes == "" {
		return nil, invalidArgument("classes path must be specified")
	}

	ret := &Layout{launcherClass: launcherClass}
	var err error
	for _, root := range []struct {
		dst  *string
		name string
		val  string
	}{
		{&ret.bootInf, "boot-info path", bootInf},
		{&ret.webInf, "web-info path", webInf},
		{&ret.libraries, "libraries path", libraries},
		{&ret.classes, "classes path", classes},
	} {
		if root.val == "" {
			continue
		}
		*root.dst, err = archive.Resolve(archive.RootPath, root.val)
		if err != nil {
			return nil, invalidArgument("invalid %s: %s", root.name, err)
		}
	}
	return ret, nil
}

func mustLayout(launcherClass, bootInf, webInf, libraries, classes string) *Layout {
	l, err := NewLayout(launcherClass, bootInf, webInf, libraries, classes)
	if err != nil {
		panic(err)
	}
	return l
}

// The layouts of the Spring Boot generations, as written by the Spring Boot
// build plugins.
var (
	// SpringBoot10 is the flat layout of Spring Boot 1.0 to 1.3: classes at
	// the root of the archive and libraries in /lib.
	SpringBoot10 = mustLayout(JarLauncherClass, "", "", "/lib", "/")

	// SpringBoot14 moved everything that is not part of the launcher into
	// /BOOT-INF.
	SpringBoot14 = mustLayout(JarLauncherClass, "/BOOT-INF", "", "/BOOT-INF/lib", "/BOOT-INF/classes")

	SpringBoot15Jar = SpringBoot14

	// SpringBoot15War is the layout of an executable web archive.
	SpringBoot15War = mustLayout(WarLauncherClass, "", "/WEB-INF", "/WEB-INF/lib", "/WEB-INF/classes")

	DefaultLayout = SpringBoot10
)

var layoutsByName = map[string]*Layout{
	"1.0":     SpringBoot10,
	"1.4":     SpringBoot14,
	"1.5-jar": SpringBoot15Jar,
	"1.5-war": SpringBoot15War,
	"default": DefaultLayout,
}

// LayoutByName returns the preset layout with the given catalogue name, one
// of those returned by [LayoutNames].
func LayoutByName(name string) (*Layout, error) {
	l, ok := layoutsByName[name]
	if !ok {
		return nil, invalidArgument("unknown layout %q; must be one of %v", name, LayoutNames())
	}
	return l, nil
}

// LayoutNames returns the catalogue names accepted by [LayoutByName].
func LayoutNames() []string {
	ret := make([]string, 0, len(layoutsByName))
	for name := range layoutsByName {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Packaging is the kind of archive being built.
type Packaging int

const (
	PackagingJar Packaging = iota
	PackagingWar
)

func (p Packaging) String() string {
	switch p {
	case PackagingJar:
		return "jar"
	case PackagingWar:
		return "war"
	default:
		return fmt.Sprintf("Packaging(%d)", int(p))
	}
}

// ParsePackaging parses "jar" or "war".
func ParsePackaging(s string) (Packaging, error) {
	switch s {
	case "jar", "":
		return PackagingJar, nil
	case "war":
		return PackagingWar, nil
	}
	return 0, invalidArgument("unknown packaging %q; must be jar or war", s)
}

// bootInfGeneration is the set of Spring Boot versions that use the
// BOOT-INF and WEB-INF layouts.
var bootInfGeneration = func() versions.Set {
	set, err := versions.MeetingConstraintsStringRuby(">= 1.4.0")
	if err != nil {
		panic(err)
	}
	return set
}()

// Spring Boot versions carry a qualifier after the numeric part, as in
// "1.5.2.RELEASE" or "2.0.0.M1", which is not valid semver.
var bootVersionPattern = regexp.MustCompile(`^v?(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:[.-][0-9A-Za-z.-]*)?$`)

// ParseBootVersion parses a Spring Boot version string, ignoring any
// qualifier such as RELEASE, M1 or SNAPSHOT.
func ParseBootVersion(s string) (versions.Version, error) {
	m := bootVersionPattern.FindStringSubmatch(s)
	if m == nil {
		return versions.Unspecified, invalidArgument("invalid Spring Boot version %q", s)
	}
	for i := 2; i <= 3; i++ {
		if m[i] == "" {
			m[i] = "0"
		}
	}
	v, err := versions.ParseVersion(m[1] + "." + m[2] + "." + m[3])
	if err != nil {
		return versions.Unspecified, invalidArgument("invalid Spring Boot version %q: %s", s, err)
	}
	return v, nil
}

// LayoutFor returns the layout that the given Spring Boot version uses for
// the given kind of archive. Executable web archives only exist from 1.4
// onwards.
func LayoutFor(bootVersion string, packaging Packaging) (*Layout, error) {
	v, err := ParseBootVersion(bootVersion)
	if err != nil {
		return nil, err
	}

	if !bootInfGeneration.Has(v) {
		if packaging == PackagingWar {
			return nil, unsupported("Spring Boot %s cannot build executable war files", bootVersion)
		}
		return SpringBoot10, nil
	}
	switch packaging {
	case PackagingJar:
		return SpringBoot15Jar, nil
	case PackagingWar:
		return SpringBoot15War, nil
	}
	return nil, invalidArgument("unknown packaging %s", packaging)
}

// LauncherClassName returns the fully qualified name of the class that the
// manifest names as the archive's main class.
func (l *Layout) LauncherClassName() string {
	return l.launcherClass
}

// BootInfPath returns the directory holding framework-private resources.
func (l *Layout) BootInfPath() (string, error) {
	if l.bootInf == "" {
		return "", unsupported("this layout has no boot-info directory")
	}
	return l.bootInf, nil
}

// WebInfPath returns the directory holding web application metadata.
func (l *Layout) WebInfPath() (string, error) {
	if l.webInf == "" {
		return "", unsupported("this layout has no web-info directory")
	}
	return l.webInf, nil
}

// LibrariesPath returns the directory holding nested library jars.
func (l *Layout) LibrariesPath() string {
	return l.libraries
}

// ClassesPath returns the directory holding the application's classes.
func (l *Layout) ClassesPath() string {
	return l.classes
}

// WebPath returns the directory from which static web content is served.
func (l *Layout) WebPath() string {
	return archive.Join(l.classes, "static")
}

func (l *Layout) String() string {
	return fmt.Sprintf("%s (classes %s, libraries %s)", l.launcherClass, l.classes, l.libraries)
}

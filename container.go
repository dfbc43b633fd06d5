// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package bootjar assembles executable Spring Boot archives.
//
// A [Container] wraps an in-memory [archive.Archive] and places everything
// added to it according to a [Layout]: application classes and libraries
// beneath the layout's classes and libraries roots, framework-private
// resources beneath BOOT-INF, and the launcher at the root of the archive
// where the JVM finds it. The manifest names the layout's launcher as the
// main class and the application's class as the start class.
//
//	c := bootjar.New("app.jar", bootjar.WithLayout(bootjar.SpringBoot15Jar), bootjar.WithClassPath(os.DirFS("build/classes")))
//	if err := c.SetSpringBootManifest("com.acme.App"); err != nil {
//		return err
//	}
//	if err := c.AddLauncherLibrary(loader); err != nil {
//		return err
//	}
//	return c.ExportFile("build/app.jar")
package bootjar

import (
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hashicorp/go-bootjar/archive"
)

// Container builds one executable archive.
//
// A container is meant to be configured by a single goroutine. The
// archive it wraps serializes concurrent changes to its content, but the
// active layout is not guarded.
type Container struct {
	archive *archive.Archive

	// launcher is the bootstrap class path: the root of the archive, as
	// seen by the JVM before the launcher sets up the nested class path.
	// It is a view over archive, not a copy.
	launcher *archive.View

	layout     *Layout
	classPath  fs.FS
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a [Container].
type Option func(*Container)

// WithLayout sets the initial layout. The default is [DefaultLayout].
func WithLayout(l *Layout) Option {
	return func(c *Container) {
		if l != nil {
			c.layout = l
		}
	}
}

// WithClassPath sets the file system from which classes, packages and
// classpath resources are read, with class files laid out by package as
// in a classes directory or an exploded jar.
func WithClassPath(fsys fs.FS) Option {
	return func(c *Container) {
		c.classPath = fsys
	}
}

// WithHTTPClient sets the client used to fetch URL resources when the
// archive is exported.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Container) {
		c.httpClient = client
	}
}

// WithLogger sets the logger that records where content is placed. The
// default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns an empty container for an archive with the given name.
func New(name string, opts ...Option) *Container {
	a := archive.New(name)
	launcher, err := a.View(archive.RootPath)
	if err != nil {
		// The root path is always valid.
		panic(err)
	}

	c := &Container{
		archive:  a,
		launcher: launcher,
		layout:   DefaultLayout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("archive", name))
	return c
}

// Archive returns the archive being built. Changes made to it directly are
// part of the exported result.
func (c *Container) Archive() *archive.Archive {
	return c.archive
}

// Name returns the name of the archive being built.
func (c *Container) Name() string {
	return c.archive.Name()
}

// SetLayout changes the layout used by all subsequent operations. Content
// that was already added stays where it is.
func (c *Container) SetLayout(l *Layout) error {
	if l == nil {
		return invalidArgument("layout must be specified")
	}
	c.layout = l
	c.logger.Debug("layout changed", zap.Stringer("layout", l))
	return nil
}

// Layout returns the active layout.
func (c *Container) Layout() *Layout {
	return c.layout
}

// SetSpringBootManifest writes a manifest that starts the given class
// through the active layout's launcher, replacing any earlier manifest.
func (c *Container) SetSpringBootManifest(startClass string) error {
	return c.SetSpringBootManifestVersion(startClass, NoVersion)
}

// SetSpringBootManifestVersion is like [Container.SetSpringBootManifest]
// but also records the Spring Boot version, unless it is [NoVersion].
func (c *Container) SetSpringBootManifestVersion(startClass, bootVersion string) error {
	if startClass == "" {
		return invalidArgument("start class must be specified")
	}
	if bootVersion == "" {
		return invalidArgument("Spring Boot version must be specified")
	}

	m := springBootManifest(c.layout, startClass, bootVersion)
	if err := c.archive.Add(archive.String(m.String()), archive.ManifestPath); err != nil {
		return err
	}
	c.logger.Debug("manifest written",
		zap.String("start_class", startClass),
		zap.String("launcher", c.layout.LauncherClassName()),
	)
	return nil
}

// Manifest parses the manifest currently held by the archive. It returns
// nil if no manifest was written yet.
func (c *Container) Manifest() (*Manifest, error) {
	asset, ok := c.archive.Get(archive.ManifestPath)
	if !ok {
		return nil, nil
	}
	content, err := archive.ReadString(asset)
	if err != nil {
		return nil, err
	}
	return ParseManifest(strings.NewReader(content))
}

// WriteTo exports the archive as a ZIP file to w.
func (c *Container) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	err := c.archive.WriteZip(cw)
	return cw.n, err
}

// ExportFile exports the archive as a ZIP file at the given path.
func (c *Container) ExportFile(dst string) error {
	if dst == "" {
		return invalidArgument("destination must be specified")
	}
	if err := c.archive.WriteZipFile(dst); err != nil {
		return fmt.Errorf("failed to export %s: %w", c.archive.Name(), err)
	}
	c.logger.Debug("archive exported", zap.String("path", dst), zap.Int("files", c.archive.Len()))
	return nil
}

// Checksum returns a content checksum of the archive that does not depend
// on how it is compressed. See [archive.Archive.ChecksumV1].
func (c *Container) Checksum() (string, error) {
	return c.archive.ChecksumV1()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// place binds asset to the absolute archive path p and logs it.
func (c *Container) place(asset archive.Asset, p, what string) error {
	if err := c.archive.Add(asset, p); err != nil {
		return err
	}
	c.logger.Debug("added "+what, zap.String("path", p))
	return nil
}

// classPathFS returns the configured class path, or an error explaining
// that nothing can be looked up without one.
func (c *Container) classPathFS() (fs.FS, error) {
	if c.classPath == nil {
		return nil, invalidArgument("no class path configured")
	}
	return c.classPath, nil
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"os"
	"strings"

	svchost "github.com/hashicorp/terraform-svchost"

	"github.com/hashicorp/go-bootjar/internal/copyutil"
)

// Asset is the content bound to a single file path in an archive.
//
// Assets are opened lazily, typically only once the archive is exported,
// so an asset backed by a file or a URL reports I/O problems at that point
// rather than when it is added.
type Asset interface {
	Open() (io.ReadCloser, error)
}

// storedAsset is implemented by assets that must be written to a ZIP file
// without compression. Spring Boot requires this for nested jars so that
// they can be read in place.
type storedAsset interface {
	stored() bool
}

type bytesAsset []byte

// Bytes returns an asset holding a private copy of the given content.
func Bytes(content []byte) Asset {
	return bytesAsset(bytes.Clone(content))
}

// String returns an asset holding the given text.
func String(content string) Asset {
	return bytesAsset(content)
}

func (a bytesAsset) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(a)), nil
}

type fileAsset struct {
	path string
}

// File returns an asset backed by a file on the local filesystem.
func File(path string) Asset {
	return fileAsset{path: path}
}

func (a fileAsset) Open() (io.ReadCloser, error) {
	return os.Open(a.path)
}

type fsAsset struct {
	fsys fs.FS
	name string
}

// FS returns an asset backed by the named file in fsys. This is how
// classpath resources are represented.
func FS(fsys fs.FS, name string) Asset {
	return fsAsset{fsys: fsys, name: trimAbs(name)}
}

func (a fsAsset) Open() (io.ReadCloser, error) {
	return a.fsys.Open(a.name)
}

// MaxURLAssetSize is the largest response body a URL asset will accept.
const MaxURLAssetSize = 256 << 20

type urlAsset struct {
	url    *url.URL
	client *http.Client
}

// URL returns an asset whose content is fetched from u when it is opened.
// The "file", "http" and "https" schemes are supported. A nil client means
// [http.DefaultClient].
func URL(u *url.URL, client *http.Client) Asset {
	if client == nil {
		client = http.DefaultClient
	}
	return urlAsset{url: u, client: client}
}

func (a urlAsset) Open() (io.ReadCloser, error) {
	switch a.url.Scheme {
	case "file":
		return os.Open(a.url.Path)
	case "http", "https":
		// fall through to the fetch below
	default:
		return nil, fmt.Errorf("unsupported URL scheme %q in %s", a.url.Scheme, a.url.Redacted())
	}

	u := *a.url
	host, err := normalizeHost(a.url)
	if err != nil {
		return nil, fmt.Errorf("invalid host in %s: %w", a.url.Redacted(), err)
	}
	u.Host = host

	resp, err := a.client.Get(u.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: %s", u.Redacted(), resp.Status)
	}

	var buf bytes.Buffer
	if err := copyutil.CopyWithLimit(&buf, resp.Body, MaxURLAssetSize); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u.Redacted(), err)
	}
	return io.NopCloser(&buf), nil
}

// normalizeHost lowercases and IDNA-encodes the host name of u the same
// way service host names are compared. The port is kept exactly as given,
// since its meaning depends on the scheme, and IP literals are left alone.
func normalizeHost(u *url.URL) (string, error) {
	name, port := u.Hostname(), u.Port()
	if name == "" {
		return "", fmt.Errorf("missing host name")
	}
	if _, err := netip.ParseAddr(name); err != nil {
		host, err := svchost.ForComparison(name)
		if err != nil {
			return "", err
		}
		name = string(host)
	}
	if port == "" {
		if strings.Contains(name, ":") {
			return "[" + name + "]", nil
		}
		return name, nil
	}
	return net.JoinHostPort(name, port), nil
}

type nestedAsset struct {
	archive *Archive
}

// Nested returns an asset whose content is the given archive exported as
// a ZIP file. The nested archive is exported each time the asset is
// opened, so later changes to it remain visible.
//
// Nested assets are always stored without compression.
func Nested(a *Archive) Asset {
	return nestedAsset{archive: a}
}

func (a nestedAsset) Open() (io.ReadCloser, error) {
	var buf bytes.Buffer
	if err := a.archive.WriteZip(&buf); err != nil {
		return nil, fmt.Errorf("failed to export nested archive %s: %w", a.archive.Name(), err)
	}
	return io.NopCloser(&buf), nil
}

func (a nestedAsset) stored() bool { return true }

type storedWrapper struct {
	Asset
}

// Stored wraps an asset so that it is written to ZIP files without
// compression, which is required for jars nested inside an executable
// Spring Boot archive.
func Stored(a Asset) Asset {
	if isStored(a) {
		return a
	}
	return storedWrapper{Asset: a}
}

func (storedWrapper) stored() bool { return true }

func isStored(a Asset) bool {
	s, ok := a.(storedAsset)
	return ok && s.stored()
}

// ReadAll opens the given asset and returns its whole content.
func ReadAll(a Asset) ([]byte, error) {
	rc, err := a.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// ReadString is like [ReadAll] but returns the content as a string.
func ReadString(a Asset) (string, error) {
	b, err := ReadAll(a)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// trimAbs removes the leading slash of an fs.FS name, which fs.FS forbids.
func trimAbs(name string) string {
	return strings.TrimLeft(name, "/")
}

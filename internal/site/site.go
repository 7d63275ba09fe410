// Package site resolves request paths against a served root and returns the
// stored bytes unmodified.
package site

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DocumentPath is the site's entry document, served for "/" as well.
const DocumentPath = "index.php"

var (
	// ErrNotFound is returned when a path is absent, outside the served root
	// or names a directory.
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when a file exists but cannot be read.
	ErrInternal = errors.New("internal error")
)

// Content is one served file.
type Content struct {
	Path        string
	Data        []byte
	ContentType string
	ModTime     time.Time
	ETag        string

	document bool
}

// IsDocument reports whether c is the Site's entry document.
func (c *Content) IsDocument() bool {
	return c.document
}

// Options configures a Site.
type Options struct {
	// Document overrides DocumentPath.
	Document string
	// ModTime is reported for files whose fs.FileInfo has a zero ModTime,
	// which is the case for every file of an embed.FS.
	ModTime time.Time
}

// Site serves files from an immutable fs.FS. It holds no per-request state
// and is safe for concurrent use.
type Site struct {
	fsys     fs.FS
	document string
	modTime  time.Time
}

// New returns a Site serving fsys.
func New(fsys fs.FS, opts Options) *Site {
	doc := opts.Document
	if doc == "" {
		doc = DocumentPath
	}
	return &Site{
		fsys:     fsys,
		document: doc,
		modTime:  opts.ModTime,
	}
}

// FS returns the served root.
func (s *Site) FS() fs.FS {
	return s.fsys
}

// Document returns the path of the entry document.
func (s *Site) Document() string {
	return s.document
}

// Clean maps a request path onto a path relative to the served root. The
// result never climbs above the root: "/../css/a.css" becomes "css/a.css".
// The root itself maps to the entry document.
func (s *Site) Clean(reqPath string) string {
	p := path.Clean("/" + reqPath)
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return s.document
	}
	return p
}

// Serve returns the content stored at reqPath.
func (s *Site) Serve(reqPath string) (*Content, error) {
	name := s.Clean(reqPath)
	if !fs.ValidPath(name) {
		return nil, errors.Wrapf(ErrNotFound, "invalid path %q", reqPath)
	}

	f, err := s.fsys.Open(name)
	if err != nil {
		return nil, classify(err, name)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, classify(err, name)
	}
	if info.IsDir() || !info.Mode().IsRegular() {
		return nil, errors.Wrapf(ErrNotFound, "%s is not a file", name)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(ErrInternal, "read %s: %v", name, err)
	}

	modTime := info.ModTime()
	if modTime.IsZero() {
		modTime = s.modTime
	}

	return &Content{
		Path:        name,
		Data:        data,
		ContentType: ContentType(name),
		ModTime:     modTime,
		ETag:        etag(data),
		document:    name == s.document,
	}, nil
}

// Resolve maps a reference found in the entry document onto a request path.
// External references (absolute URLs, scheme-relative URLs, mailto:,
// javascript:) and pure fragments report false.
func (s *Site) Resolve(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "//") {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", false
	}
	base := &url.URL{Path: "/" + s.document}
	return base.ResolveReference(&url.URL{Path: u.Path}).Path, true
}

func classify(err error, name string) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
		return errors.Wrapf(ErrNotFound, "%s", name)
	}
	return errors.Wrapf(ErrInternal, "open %s: %v", name, err)
}

func etag(data []byte) string {
	sum := sha256.Sum256(data)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

package site

import (
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
)

// DirFS is an on-disk served root. Lookups, symlinks included, cannot leave
// the directory it was opened on.
type DirFS struct {
	root *os.Root
	fsys fs.FS
}

// OpenDir opens dir as a served root.
func OpenDir(dir string) (*DirFS, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "open served root %s", dir)
	}
	return &DirFS{root: root, fsys: root.FS()}, nil
}

// Open implements fs.FS. A path that only fails because a symlink on the way
// points outside the root reports fs.ErrNotExist.
func (d *DirFS) Open(name string) (fs.File, error) {
	f, err := d.fsys.Open(name)
	if err != nil && d.crossesSymlink(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return f, err
}

// Close releases the root directory handle.
func (d *DirFS) Close() error {
	return d.root.Close()
}

func (d *DirFS) crossesSymlink(name string) bool {
	parts := strings.Split(name, "/")
	for i := range parts {
		info, err := d.root.Lstat(path.Join(parts[:i+1]...))
		if err != nil {
			return false
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return true
		}
	}
	return false
}

package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var Static embed.FS

// Root returns the embedded deployment with the static/ prefix removed, so
// paths match the URLs the document references.
func Root() fs.FS {
	sub, err := fs.Sub(Static, "static")
	if err != nil {
		// static/ is compiled in; fs.Sub only fails on an invalid dir name.
		panic(err)
	}
	return sub
}

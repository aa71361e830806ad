// Package static embeds the kiosk page served at the web root.
package static

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed all:dist/*
var distFS embed.FS

// dist is distFS rooted at dist/. fs.Sub only fails for an invalid path.
var dist = func() fs.FS {
	sub, err := fs.Sub(distFS, "dist")
	if err != nil {
		panic(err)
	}
	return sub
}()

// GetFileSystem returns the embedded kiosk files as an http.FileSystem.
func GetFileSystem() http.FileSystem {
	return http.FS(dist)
}

// HasDist reports whether any kiosk files were embedded.
func HasDist() bool {
	entries, err := fs.ReadDir(dist, ".")
	return err == nil && len(entries) > 0
}

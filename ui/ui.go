//go:build ui

// Package ui carries the operations dashboard bundle.
package ui

import (
	"embed"
	"io/fs"
)

//go:embed all:dist
var bundle embed.FS

// DistFS returns the built dashboard with dist/ as its root.
func DistFS() (fs.FS, error) {
	return fs.Sub(bundle, "dist")
}

//go:build !ui

// Package ui carries the operations dashboard bundle.
package ui

import "io/fs"

// DistFS reports no dashboard in builds without the ui tag; the server then
// mounts no catch-all route.
func DistFS() (fs.FS, error) {
	return nil, nil
}

// Package migrations embeds the SQLite migration files applied to the audit
// mirror at startup, so they work regardless of working directory.
package migrations

import "embed"

// FS is the embedded migrations filesystem (e.g. 001_control_log.sql).
//
//go:embed *.sql
var FS embed.FS

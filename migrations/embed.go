// Package migrations holds the versioned SQL schema for each supported
// database, one subdirectory per dialect.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

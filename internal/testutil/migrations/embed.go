// Package migrations contains the embedded SQL that builds fixture catalog
// and item package databases.
package migrations

import "embed"

// Files exposes the compiled-in migration SQL files, one directory per
// database shape.
//
//go:embed catalog/*.sql package/*.sql legacy_catalog/*.sql legacy_package/*.sql
var Files embed.FS

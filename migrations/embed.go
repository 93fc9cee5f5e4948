// Package migrations embeds the versioned SQL schema.
package migrations

import "embed"

// FS holds the NNN_description.sql files applied by db.Migrate.
//
//go:embed *.sql
var FS embed.FS

// Package migrations embeds the SQL schema migrations for the PostgreSQL
// mapping store backend.
package migrations

import "embed"

// FS holds the embedded migration files, consumed by golang-migrate.
//
//go:embed *.sql
var FS embed.FS

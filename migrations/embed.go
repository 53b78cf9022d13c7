// Package migrations embeds the schema migration files so the binary carries
// its own DDL.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

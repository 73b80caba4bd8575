// Package migrations embeds the goose migrations for the replica's
// Postgres tables.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

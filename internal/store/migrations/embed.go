// Package migrations embeds the SQL migrations applied by goose when the
// SQLite store is opened.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

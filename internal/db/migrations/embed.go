// Package migrations embeds the SQL schema of the backlog tracker.
package migrations

import "embed"

// FS contains the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS

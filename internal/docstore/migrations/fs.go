// Package migrations embeds the docstore schema migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

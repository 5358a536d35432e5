// Package migrations holds the ordered SQL files applied at startup.
package migrations

import "embed"

// Files contains every NNN_name.sql migration
//
//go:embed *.sql
var Files embed.FS

// Package migrations embeds the SQL schema files applied at startup
package migrations

import "embed"

// SQLite holds the sqlite migrations under the "sqlite" directory
//
//go:embed sqlite/*.sql
var SQLite embed.FS

// SQLiteDir is the directory of SQLite within the embedded filesystem
const SQLiteDir = "sqlite"

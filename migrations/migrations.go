// Package migrations embeds the goose schema migrations of every storage backend.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed clickhouse/*.sql sqlite/*.sql
var FS embed.FS

// ClickHouseDir is the directory of ClickHouse migrations inside FS
const ClickHouseDir = "clickhouse"

// SQLiteDir is the directory of SQLite migrations inside FS
const SQLiteDir = "sqlite"

// SQLite returns the SQLite migrations rooted at their directory
func SQLite() fs.FS {
	sub, err := fs.Sub(FS, SQLiteDir)
	if err != nil {
		panic(err)
	}
	return sub
}

// ClickHouse returns the ClickHouse migrations rooted at their directory
func ClickHouse() fs.FS {
	sub, err := fs.Sub(FS, ClickHouseDir)
	if err != nil {
		panic(err)
	}
	return sub
}

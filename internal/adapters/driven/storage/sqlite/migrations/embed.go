// Package migrations holds the numbered schema files applied by the SQLite
// store on open. Each NNN_name.up.sql has a matching .down.sql.
package migrations

import "embed"

// FS is read in file name order.
//
//go:embed *.sql
var FS embed.FS

// Package migrations embeds the SQL schema files applied with goose.
//
// local/  - the on-device SQLite database (session snapshot metadata).
// remote/ - the profiles table of a self-hosted PostgreSQL record store.
package migrations

import "embed"

//go:embed local/*.sql remote/*.sql
var Migrations embed.FS

const (
	LocalDir  = "local"
	RemoteDir = "remote"
)

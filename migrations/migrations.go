package migrations

import "embed"

// FS holds the SQL migrations applied by store.NewStore.
//
//go:embed *.sql
var FS embed.FS

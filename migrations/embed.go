// Package migrations embebe los archivos SQL de migración.
package migrations

import "embed"

// PostgresFS contiene las migraciones de postgres.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// PostgresDir es el directorio dentro de PostgresFS con las migraciones.
const PostgresDir = "postgres"

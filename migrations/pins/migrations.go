// Package pins содержит SQL-миграции хранилища записей страниц в Postgres.
package pins

import "embed"

// FS содержит файлы миграций.
//
//go:embed *.sql
var FS embed.FS

// Dir - каталог миграций внутри FS.
const Dir = "."

// Package items embeds the goose migrations for the items table, one
// directory per SQL dialect.
package items

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/ghuser/itemsapi/pkg/database"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// FS returns the migration files for dialect, rooted so goose sees them at ".".
func FS(dialect database.Dialect) (fs.FS, error) {
	switch dialect {
	case database.DialectPostgres:
		return fs.Sub(files, "postgres")
	case database.DialectSQLite:
		return fs.Sub(files, "sqlite")
	default:
		return nil, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}
}

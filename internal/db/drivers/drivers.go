package drivers

import "github.com/uptrace/bun"

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

type Driver interface {
	GetDB() *bun.DB

	// Dialect is the name shown to the model in the prompt, e.g. "postgres".
	Dialect() string

	Close() error
}

// ReadingDB holds readings collected from the EMU.
// It should only be written to by emu_collector but can be read by any service.
package readingdb

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/NotCoffee418/dbmigrator"
	"github.com/rs/zerolog/log"

	_ "modernc.org/sqlite"
)

var (
	db *sql.DB
	mu sync.RWMutex
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// InitializeDatabase opens the database at path and applies migrations.
// It must be called on startup before any other function in this package.
func InitializeDatabase(path string) error {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	// Single writer
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("ping %s: %w", path, err)
	}

	dbmigrator.SetDatabaseType(dbmigrator.SQLite)
	<-dbmigrator.MigrateUpCh(
		conn,
		migrationFS,
		"migrations",
	)

	mu.Lock()
	old := db
	db = conn
	mu.Unlock()
	if old != nil {
		old.Close()
	}
	log.Info().Str("path", path).Msg("Reading database ready")
	return nil
}

// GetDB panics when InitializeDatabase has not been called.
func GetDB() *sql.DB {
	mu.RLock()
	defer mu.RUnlock()
	if db == nil {
		panic("readingdb: InitializeDatabase was not called")
	}
	return db
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if db == nil {
		return nil
	}
	err := db.Close()
	db = nil
	return err
}

package shared

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// NewDatabase opens a connection to a SQLite database at the specified path.
// The path can be ":memory:" for an in-memory database.
func NewDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
//
// The registry assumes a single writer, so one open connection is the usual setting.
// An in-memory database must stay at one connection or each new connection sees an empty schema.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
}

// OpenRegistry opens the artist registry described by cfg and applies pending migrations.
func OpenRegistry(cfg DatabaseConfig) (*sql.DB, error) {
	db, err := NewDatabase(cfg.Path)
	if err != nil {
		return nil, err
	}

	ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if _, err := BackfillNameKeys(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// BackfillNameKeys rewrites every artists.name_key that differs from [NormalizeName] of its name
// and returns how many rows changed.
//
// SQLite's lower() and trim() only fold ASCII and keep inner whitespace, so keys written by the
// migration can miss rows such as "Phoebe  Bridgers" or "ÓLAFUR ARNALDS".
func BackfillNameKeys(db *sql.DB) (int, error) {
	rows, err := db.Query("SELECT id, name, name_key FROM artists")
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read name keys: %v", ErrStorage, err)
	}

	stale := make(map[string]string)
	for rows.Next() {
		var id, name, key string
		if err := rows.Scan(&id, &name, &key); err != nil {
			rows.Close()
			return 0, fmt.Errorf("%w: failed to scan name key: %v", ErrStorage, err)
		}
		if want := NormalizeName(name); want != key {
			stale[id] = want
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("%w: failed to read name keys: %v", ErrStorage, err)
	}
	rows.Close()

	if len(stale) == 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	for id, key := range stale {
		if _, err := tx.Exec("UPDATE artists SET name_key = ? WHERE id = ?", key, id); err != nil {
			return 0, fmt.Errorf("%w: failed to update name key for %s: %v", ErrStorage, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return len(stale), nil
}

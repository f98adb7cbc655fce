// Package database owns the catalog store's connection, migration, and
// full-text search wiring, following the teacher's dual sqlite/postgres
// dialect setup.
package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	ferritelogger "github.com/ferrite-media/ferrite/internal/logger"
)

// Dialect selects which GORM driver backs the catalog store.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Options configures Open.
type Options struct {
	Dialect Dialect
	// DSN is the sqlite file path (e.g. "./ferrite-data/ferrite.db") or the
	// postgres connection string, depending on Dialect.
	DSN string
}

// Open establishes the catalog store connection, runs migrations, and
// ensures the FTS5 virtual table + sync triggers exist.
func Open(opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opts.Dialect {
	case DialectPostgres:
		dialector = postgres.Open(opts.DSN)
	case DialectSQLite, "":
		dialector = sqlite.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unknown database dialect %q", opts.Dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	if opts.Dialect == DialectSQLite || opts.Dialect == "" {
		if err := ensureFTS5(db); err != nil {
			// FTS5 is an enhancement, not a hard dependency of the
			// catalog store's correctness — degrade to no full-text
			// search rather than fail startup.
			ferritelogger.Warn("full-text search unavailable", []ferritelogger.Field{
				ferritelogger.Err("cause", err),
			})
		}
	}

	return db, nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Library{},
		&MediaItem{},
		&MediaStream{},
		&ExternalSubtitle{},
		&Show{},
		&Season{},
		&Episode{},
		&Movie{},
		&PlaybackProgress{},
		&User{},
		&Collection{},
		&Playlist{},
		&Webhook{},
	)
}

// ensureFTS5 creates the media_fts virtual table (requires mattn/go-sqlite3
// built with the fts5 build tag) and the triggers that keep it synchronized
// with MediaItem's SearchText column, using GORM's raw-Exec escape hatch
// the way the teacher does for migration-adjacent DDL.
func ensureFTS5(db *gorm.DB) error {
	stmts := []string{
		`CREATE VIRTUAL TABLE IF NOT EXISTS media_fts USING fts5(
			id UNINDEXED, search_text, content='media_items', content_rowid='rowid'
		)`,
		`CREATE TRIGGER IF NOT EXISTS media_items_ai AFTER INSERT ON media_items BEGIN
			INSERT INTO media_fts(rowid, id, search_text) VALUES (new.rowid, new.id, new.search_text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS media_items_ad AFTER DELETE ON media_items BEGIN
			INSERT INTO media_fts(media_fts, rowid, id, search_text) VALUES('delete', old.rowid, old.id, old.search_text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS media_items_au AFTER UPDATE ON media_items BEGIN
			INSERT INTO media_fts(media_fts, rowid, id, search_text) VALUES('delete', old.rowid, old.id, old.search_text);
			INSERT INTO media_fts(rowid, id, search_text) VALUES (new.rowid, new.id, new.search_text);
		END`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("fts5 setup: %w", err)
		}
	}
	return nil
}

// SearchMedia runs a full-text query against media_fts and returns matching
// MediaItem ids ordered by relevance (bm25).
func SearchMedia(db *gorm.DB, query string) ([]string, error) {
	var ids []string
	rows, err := db.Raw(
		`SELECT id FROM media_fts WHERE media_fts MATCH ? ORDER BY bm25(media_fts) LIMIT 100`,
		query,
	).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

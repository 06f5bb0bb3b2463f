package playbook

import (
	"database/sql"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	errs "github.com/XiaoConstantine/ace-go/pkg/errors"
)

// SQLiteStore persists playbook snapshots to a SQLite database. Use
// ":memory:" as the path for an in-memory database.
type SQLiteStore struct {
	db   *sql.DB
	path string

	mu          sync.Mutex
	initialized sync.Once
}

// NewSQLiteStore opens (or creates) a SQLite-backed snapshot store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errs.WithFields(
			errs.Wrap(err, errs.Unknown, "failed to open SQLite database"),
			errs.Fields{"path": path})
	}

	store := &SQLiteStore{db: db, path: path}
	if err := store.ensureInitialized(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) ensureInitialized() error {
	var initErr error
	s.initialized.Do(func() {
		// WAL improves concurrent reader behavior
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			initErr = errs.Wrap(err, errs.Unknown, "failed to enable WAL mode")
			return
		}

		query := `
        CREATE TABLE IF NOT EXISTS bullets (
            id       TEXT PRIMARY KEY,
            section  TEXT NOT NULL,
            content  TEXT NOT NULL,
            helpful  INTEGER NOT NULL DEFAULT 0,
            harmful  INTEGER NOT NULL DEFAULT 0,
            neutral  INTEGER NOT NULL DEFAULT 0,
            position INTEGER NOT NULL
        );

        CREATE INDEX IF NOT EXISTS idx_bullets_section ON bullets(section);
        `

		if _, err := s.db.Exec(query); err != nil {
			initErr = errs.Wrap(err, errs.Unknown, "failed to initialize database")
		}
	})
	return initErr
}

// Save replaces the stored snapshot with the playbook's current state.
func (s *SQLiteStore) Save(p *Playbook) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return errs.Wrap(err, errs.Unknown, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec("DELETE FROM bullets"); err != nil {
		return errs.Wrap(err, errs.Unknown, "failed to clear snapshot")
	}

	stmt, err := tx.Prepare(`
        INSERT INTO bullets (id, section, content, helpful, harmful, neutral, position)
        VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errs.Wrap(err, errs.Unknown, "failed to prepare insert")
	}
	defer stmt.Close()

	for position, bullet := range p.Bullets() {
		if _, err := stmt.Exec(bullet.ID, bullet.Section, bullet.Content,
			bullet.Helpful, bullet.Harmful, bullet.Neutral, position); err != nil {
			return errs.WithFields(
				errs.Wrap(err, errs.Unknown, "failed to insert bullet"),
				errs.Fields{"bullet_id": bullet.ID})
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(err, errs.Unknown, "failed to commit snapshot")
	}
	return nil
}

// Load reconstructs a playbook from the stored snapshot, preserving
// traversal order and the id sequence.
func (s *SQLiteStore) Load() (*Playbook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
        SELECT id, section, content, helpful, harmful, neutral
        FROM bullets ORDER BY position`)
	if err != nil {
		return nil, errs.Wrap(err, errs.Unknown, "failed to query snapshot")
	}
	defer rows.Close()

	p := New()
	for rows.Next() {
		bullet := &Bullet{}
		if err := rows.Scan(&bullet.ID, &bullet.Section, &bullet.Content,
			&bullet.Helpful, &bullet.Harmful, &bullet.Neutral); err != nil {
			return nil, errs.Wrap(err, errs.ParseFailed, "failed to scan bullet row")
		}
		p.bullets[bullet.ID] = bullet
		p.order = append(p.order, bullet.ID)
		if n := idSequence(bullet.ID); n > p.seq {
			p.seq = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, errs.Unknown, "failed to read snapshot rows")
	}
	return p, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

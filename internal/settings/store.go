// internal/settings/store.go
package settings

import (
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Store persists settings across sessions in a small sqlite database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the settings database at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening settings store")
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		name  TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating settings table")
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (st *Store) Close() error {
	return st.db.Close()
}

// Load reads the persisted settings into s. Missing rows leave the
// defaults untouched.
func (st *Store) Load(s *Settings) error {
	var blob string
	err := st.db.QueryRow(`SELECT value FROM settings WHERE name = 'kernel'`).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "loading settings")
	}
	if err := json.Unmarshal([]byte(blob), s); err != nil {
		return errors.Wrap(err, "decoding settings")
	}
	return nil
}

// Save writes the current settings.
func (st *Store) Save(s *Settings) error {
	blob, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encoding settings")
	}
	_, err = st.db.Exec(
		`INSERT INTO settings(name, value) VALUES('kernel', ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		string(blob))
	return errors.Wrap(err, "saving settings")
}

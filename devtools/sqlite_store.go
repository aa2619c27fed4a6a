package devtools

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

func marshalFields(fields map[string]interface{}) ([]byte, error) {
	return json.Marshal(fields)
}

func unmarshalFields(data []byte) (map[string]interface{}, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// SQLiteStore persists a historical log of recorded events to a SQLite
// database file. This is a log of what already happened, not a snapshot of
// live component state: reopening a loop against the same database does
// not restore any component's current properties, which remain outside
// this system's persistence model entirely.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if necessary) a SQLite database at path
// and ensures its schema exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("devtools: opening sqlite store: %w", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("devtools: creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY,
	component TEXT NOT NULL,
	type TEXT NOT NULL,
	fields TEXT,
	recorded_at DATETIME NOT NULL
);
`

// Append persists one batch of event records. It is the caller's
// responsibility to decide when to flush a Recorder's buffer here, e.g. on
// a periodic timer or at process shutdown.
func (s *SQLiteStore) Append(events []EventRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO events (id, component, type, fields, recorded_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		var fieldsJSON []byte
		if len(e.Fields) > 0 {
			var err error
			fieldsJSON, err = marshalFields(e.Fields)
			if err != nil {
				tx.Rollback()
				return err
			}
		}
		if _, err := stmt.Exec(e.ID, e.Component, e.Type, string(fieldsJSON), e.Timestamp); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Query returns every persisted event whose component or type contains
// substr, ordered by id.
func (s *SQLiteStore) Query(substr string) ([]EventRecord, error) {
	like := "%" + substr + "%"
	rows, err := s.db.Query(
		`SELECT id, component, type, fields, recorded_at FROM events WHERE component LIKE ? OR type LIKE ? ORDER BY id`,
		like, like,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var e EventRecord
		var fieldsJSON sql.NullString
		if err := rows.Scan(&e.ID, &e.Component, &e.Type, &fieldsJSON, &e.Timestamp); err != nil {
			return nil, err
		}
		if fieldsJSON.Valid && fieldsJSON.String != "" {
			fields, err := unmarshalFields([]byte(fieldsJSON.String))
			if err != nil {
				return nil, err
			}
			e.Fields = fields
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

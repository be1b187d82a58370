package journal

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the persistent journal variant, enabled by journal.db_path.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) Record(e Entry) error {
	_, err := j.db.Exec(`
		INSERT INTO outcomes
		(id, time, action, symbol, lot_size, success, message, confirmed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Time.UTC().Format(time.RFC3339Nano), e.Action, e.Symbol,
		e.LotSize, e.Success, e.Message, e.Confirmed,
	)
	return err
}

func (j *SQLite) Recent(n int) ([]Entry, error) {
	if n <= 0 {
		n = DefaultRingSize
	}

	rows, err := j.db.Query(`
		SELECT id, time, action, symbol, lot_size, success, message, confirmed
		FROM outcomes ORDER BY time DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.Action, &e.Symbol,
			&e.LotSize, &e.Success, &e.Message, &e.Confirmed); err != nil {
			return nil, err
		}
		if t, perr := time.Parse(time.RFC3339Nano, ts); perr == nil {
			e.Time = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

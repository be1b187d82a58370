package journal

// Schema creates the outcomes table. Times are stored as RFC3339 strings so
// the database stays greppable with the sqlite3 shell.
const Schema = `
CREATE TABLE IF NOT EXISTS outcomes (
	id         TEXT PRIMARY KEY,
	time       TEXT NOT NULL,
	action     TEXT NOT NULL,
	symbol     TEXT NOT NULL,
	lot_size   REAL NOT NULL,
	success    INTEGER NOT NULL,
	message    TEXT NOT NULL,
	confirmed  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_outcomes_time ON outcomes(time);
`

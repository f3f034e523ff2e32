// Package journal keeps a local sqlite record of every order this client
// submitted, for post-hoc reconciliation against chain state.
package journal

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id          TEXT PRIMARY KEY,
	created_at  TIMESTAMP NOT NULL,
	market      TEXT NOT NULL,
	direction   TEXT NOT NULL,
	kind        TEXT NOT NULL,
	tick        INTEGER NOT NULL,
	fill_volume TEXT NOT NULL,
	tx_hash     TEXT NOT NULL,
	got         TEXT NOT NULL,
	gave        TEXT NOT NULL,
	fee         TEXT NOT NULL,
	bounty      TEXT NOT NULL,
	offer_id    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);
`

// Entry is one settled order.
type Entry struct {
	ID         string
	CreatedAt  time.Time
	Market     string
	Direction  string
	Kind       string
	Tick       int64
	FillVolume string
	TxHash     string
	Got        string
	Gave       string
	Fee        string
	Bounty     string
	OfferID    string
}

// Journal is safe for use from a single engine; sqlite serializes writers.
type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open journal db")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "apply journal schema")
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record inserts one entry. Duplicate ids are rejected by the primary key.
func (j *Journal) Record(e Entry) error {
	_, err := j.db.Exec(`
		INSERT INTO orders
			(id, created_at, market, direction, kind, tick, fill_volume, tx_hash, got, gave, fee, bounty, offer_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt, e.Market, e.Direction, e.Kind, e.Tick,
		e.FillVolume, e.TxHash, e.Got, e.Gave, e.Fee, e.Bounty, e.OfferID)
	return errors.Wrap(err, "insert journal entry")
}

// Recent returns the latest n entries, newest first.
func (j *Journal) Recent(n int) ([]Entry, error) {
	rows, err := j.db.Query(`
		SELECT id, created_at, market, direction, kind, tick, fill_volume, tx_hash, got, gave, fee, bounty, offer_id
		FROM orders ORDER BY created_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, errors.Wrap(err, "query journal")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Market, &e.Direction, &e.Kind, &e.Tick,
			&e.FillVolume, &e.TxHash, &e.Got, &e.Gave, &e.Fee, &e.Bounty, &e.OfferID); err != nil {
			return nil, errors.Wrap(err, "scan journal entry")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

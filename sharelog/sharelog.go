// Package sharelog is an optional audit sink: every accepted share is
// appended to a local sqlite database, and a summary can be exported as
// JSON for external tooling.
package sharelog

import (
	"database/sql"
	"encoding/hex"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sugawarayuuta/sonnet"

	"github.com/rieforge/gorie/control"
	"github.com/rieforge/gorie/debug"
)

// Sink persists accepted shares to a sqlite database. It implements
// verify.ShareSink; handle is treated as fully opaque per spec.md §6 (it is
// never interpreted here), so the height recorded alongside each offset is
// read from the monotone control.Height() watch at the time of the call. A
// share from a verify job still in flight when the height changes is
// therefore recorded under the new height.
type Sink struct {
	db *sql.DB
}

// Open creates (or reuses) a sqlite database at path with the shares
// table present, ready to accept submissions.
func Open(path string) (*Sink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sharelog: open %s: %w", path, err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS shares (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		height INTEGER NOT NULL,
		offset_hex TEXT NOT NULL,
		k_primes INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sharelog: create schema: %w", err)
	}

	return &Sink{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Sink) Close() error {
	return s.db.Close()
}

// SubmitShare implements verify.ShareSink. handle is accepted only to
// satisfy the interface and is otherwise ignored.
func (s *Sink) SubmitShare(handle any, offsetLE [32]byte, kPrimes int) {
	height := control.Height()

	_, err := s.db.Exec(
		`INSERT INTO shares (height, offset_hex, k_primes) VALUES (?, ?, ?)`,
		height, hex.EncodeToString(offsetLE[:]), kPrimes,
	)
	if err != nil {
		// Auditing must never take down the mining loop; a failed insert
		// is logged via debug.DropError and otherwise ignored.
		debug.DropError("sharelog: insert", err)
	}
}

// Summary is a JSON-exportable rollup of accepted shares by height.
type Summary struct {
	Height uint64 `json:"height"`
	Count  int    `json:"count"`
	MaxK   int    `json:"max_k"`
}

// ExportSummaryJSON queries the shares table and marshals a per-height
// rollup using sonnet, the fast drop-in encoding/json replacement the rest
// of this codebase's stack already carries for hot JSON paths.
func (s *Sink) ExportSummaryJSON() ([]byte, error) {
	rows, err := s.db.Query(`SELECT height, COUNT(*), MAX(k_primes) FROM shares GROUP BY height ORDER BY height`)
	if err != nil {
		return nil, fmt.Errorf("sharelog: query summary: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.Height, &sm.Count, &sm.MaxK); err != nil {
			return nil, fmt.Errorf("sharelog: scan summary row: %w", err)
		}
		summaries = append(summaries, sm)
	}

	return sonnet.Marshal(summaries)
}

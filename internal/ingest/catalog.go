package ingest

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Catalog records ingested datasets in a SQLite database so a build can be
// audited later without reopening any filter blob.
type Catalog struct {
	db       *sql.DB
	stmtUp   *sql.Stmt
	closedOK bool
}

// OpenCatalog opens (creating if needed) a catalog database at path.
func OpenCatalog(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS datasets (
		name TEXT PRIMARY KEY,
		source TEXT,
		sequences INTEGER NOT NULL,
		kmers_inserted INTEGER NOT NULL,
		distinct_kmers INTEGER NOT NULL,
		fill_ratio REAL NOT NULL,
		fp_estimate REAL NOT NULL,
		ingested_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init catalog schema: %w", err)
	}

	up, err := db.Prepare(`
	INSERT INTO datasets
		(name, source, sequences, kmers_inserted, distinct_kmers, fill_ratio, fp_estimate, ingested_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		source = excluded.source,
		sequences = excluded.sequences,
		kmers_inserted = excluded.kmers_inserted,
		distinct_kmers = excluded.distinct_kmers,
		fill_ratio = excluded.fill_ratio,
		fp_estimate = excluded.fp_estimate,
		ingested_at = excluded.ingested_at`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare catalog statement: %w", err)
	}

	return &Catalog{db: db, stmtUp: up}, nil
}

// Record upserts one dataset's ingest summary.
func (c *Catalog) Record(name, source string, st LeafStats) error {
	_, err := c.stmtUp.Exec(
		name, source,
		st.Sequences, st.KmersInserted, st.DistinctKmers,
		st.FillRatio, st.FalsePositiveRate,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record dataset %q: %w", name, err)
	}
	return nil
}

// Entry is one catalog row.
type Entry struct {
	Name       string
	Source     string
	Stats      LeafStats
	IngestedAt time.Time
}

// Datasets returns every recorded dataset ordered by name.
func (c *Catalog) Datasets() ([]Entry, error) {
	rows, err := c.db.Query(`
	SELECT name, source, sequences, kmers_inserted, distinct_kmers, fill_ratio, fp_estimate, ingested_at
	FROM datasets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			ts int64
		)
		if err := rows.Scan(
			&e.Name, &e.Source,
			&e.Stats.Sequences, &e.Stats.KmersInserted, &e.Stats.DistinctKmers,
			&e.Stats.FillRatio, &e.Stats.FalsePositiveRate, &ts,
		); err != nil {
			return nil, err
		}
		e.IngestedAt = time.Unix(ts, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the prepared statement and the database handle.
func (c *Catalog) Close() error {
	if c.closedOK {
		return nil
	}
	c.closedOK = true
	_ = c.stmtUp.Close()
	return c.db.Close()
}

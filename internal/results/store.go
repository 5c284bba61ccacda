// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package results

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/apollo/internal/pipeline"
	"github.com/pdiddy/apollo/internal/refine"
	"github.com/pdiddy/apollo/pkg/types"
)

const (
	dbFile            = "apollo.db"
	defaultMaxResults = 50

	// runTimeLayout has fixed width so stored timestamps sort as text.
	runTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store indexes result documents and refinement runs in SQLite.
type Store struct {
	db         *sql.DB
	indexDir   string
	maxResults int
}

// NewStore opens or creates the database at cfg.IndexDir/apollo.db and
// creates the schema if it does not exist.
func NewStore(cfg types.ResultsConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(cfg.IndexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, indexDir: cfg.IndexDir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS results (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			conclusion TEXT,
			bayes_kind INTEGER NOT NULL,
			bayes_factor REAL,
			bayes_err REAL,
			literature_kind INTEGER NOT NULL,
			literature REAL,
			literature_err REAL
		)`,
		`CREATE TABLE IF NOT EXISTS background (
			result_id TEXT NOT NULL REFERENCES results(id) ON DELETE CASCADE,
			key TEXT NOT NULL,
			kind INTEGER NOT NULL,
			nominal REAL,
			uncertainty REAL,
			PRIMARY KEY (result_id, key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_conclusion ON results(conclusion)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			path TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS refinements (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			output TEXT NOT NULL,
			input_len INTEGER,
			output_len INTEGER,
			removed INTEGER,
			gaps INTEGER,
			synthesized INTEGER,
			cadence REAL,
			time_offset REAL,
			flux_offset REAL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refinements_source ON refinements(source)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of documents processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest walks dir for result documents and upserts them. Files whose
// modification time is unchanged since the last run are skipped.
func (s *Store) Ingest(ctx context.Context, dir string, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			return nil
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var stored string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE path = ?`, path,
		).Scan(&stored)
		if err == nil && stored == modTime {
			fmt.Fprintf(w, "skipped %s\n", path)
			summary.Skipped++
			return nil
		}
		isUpdate := err == nil

		res, err := ParseFile(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			return nil
		}
		if err := s.ingestResult(ctx, res, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			return nil
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%s)\n", res.ID, res.Conclusion)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s (%s)\n", res.ID, res.Conclusion)
			summary.Indexed++
		}
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("walking %s: %w", dir, err)
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

func (s *Store) ingestResult(ctx context.Context, res Result, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	bf, bfErr := nullable(res.BayesFactor)
	lit, litErr := nullable(res.LiteratureValue)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO results (id, path, conclusion, bayes_kind, bayes_factor, bayes_err,
			literature_kind, literature, literature_err)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			path=excluded.path, conclusion=excluded.conclusion,
			bayes_kind=excluded.bayes_kind, bayes_factor=excluded.bayes_factor, bayes_err=excluded.bayes_err,
			literature_kind=excluded.literature_kind, literature=excluded.literature,
			literature_err=excluded.literature_err`,
		res.ID, res.Path, res.Conclusion,
		int(res.BayesFactor.Kind), bf, bfErr,
		int(res.LiteratureValue.Kind), lit, litErr,
	)
	if err != nil {
		return fmt.Errorf("upserting result: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM background WHERE result_id = ?`, res.ID); err != nil {
		return fmt.Errorf("deleting old background: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO background (result_id, key, kind, nominal, uncertainty) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()
	for key, v := range res.Background {
		nom, unc := nullable(v)
		if _, err := stmt.ExecContext(ctx, res.ID, key, int(v.Kind), nom, unc); err != nil {
			return fmt.Errorf("inserting background %s: %w", key, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (path, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		res.Path, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}

// ListOptions filters List.
type ListOptions struct {
	// Conclusion keeps only results with this conclusion (case-insensitive).
	Conclusion string

	// MaxResults limits the row count. Zero uses the store default.
	MaxResults int
}

// List returns indexed results ordered by Bayes factor, highest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Result, error) {
	limit := opts.MaxResults
	if limit <= 0 {
		limit = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT id, path, conclusion, bayes_kind, bayes_factor, bayes_err,
		literature_kind, literature, literature_err FROM results`)
	if opts.Conclusion != "" {
		qb.WriteString(` WHERE lower(conclusion) = lower(?)`)
		args = append(args, opts.Conclusion)
	}
	qb.WriteString(` ORDER BY bayes_factor IS NULL, bayes_factor DESC, id LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var (
			r                  Result
			conclusion         sql.NullString
			bKind, lKind       int
			bf, bfErr, lit, lE sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.Path, &conclusion, &bKind, &bf, &bfErr, &lKind, &lit, &lE); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		r.Conclusion = conclusion.String
		r.BayesFactor = fromColumns(bKind, bf, bfErr)
		r.LiteratureValue = fromColumns(lKind, lit, lE)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		bg, err := s.background(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Background = bg
	}
	return out, nil
}

func (s *Store) background(ctx context.Context, id string) (map[string]Value, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, kind, nominal, uncertainty FROM background WHERE result_id = ? ORDER BY key`, id)
	if err != nil {
		return nil, fmt.Errorf("querying background for %s: %w", id, err)
	}
	defer rows.Close()

	bg := map[string]Value{}
	for rows.Next() {
		var (
			key      string
			kind     int
			nom, unc sql.NullFloat64
		)
		if err := rows.Scan(&key, &kind, &nom, &unc); err != nil {
			return nil, fmt.Errorf("scanning background: %w", err)
		}
		bg[key] = fromColumns(kind, nom, unc)
	}
	return bg, rows.Err()
}

// Record stores a refinement run. It satisfies pipeline.Recorder.
func (s *Store) Record(ctx context.Context, run pipeline.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refinements (id, source, output, input_len, output_len, removed, gaps, synthesized, cadence,
			time_offset, flux_offset, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Output,
		run.Stats.InputLen, run.Stats.OutputLen, run.Stats.Removed,
		run.Stats.Gaps, run.Stats.Synthesized, run.Stats.Cadence,
		run.Stats.TimeOffset, run.Stats.FluxOffset,
		run.CreatedAt.UTC().Format(runTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting refinement %s: %w", run.ID, err)
	}
	return nil
}

// Runs returns the most recent refinement runs, newest first. A non-empty
// source keeps only runs of that file.
func (s *Store) Runs(ctx context.Context, source string, limit int) ([]pipeline.Run, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	query := `SELECT id, source, output, input_len, output_len, removed, gaps, synthesized, cadence,
		time_offset, flux_offset, created_at
		FROM refinements`
	var args []any
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying refinements: %w", err)
	}
	defer rows.Close()

	var runs []pipeline.Run
	for rows.Next() {
		var (
			run     pipeline.Run
			st      refine.Stats
			created string
		)
		if err := rows.Scan(&run.ID, &run.Source, &run.Output,
			&st.InputLen, &st.OutputLen, &st.Removed, &st.Gaps, &st.Synthesized, &st.Cadence,
			&st.TimeOffset, &st.FluxOffset, &created); err != nil {
			return nil, fmt.Errorf("scanning refinement: %w", err)
		}
		run.Stats = st
		run.CreatedAt, err = time.Parse(runTimeLayout, created)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at of %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// nullable splits v into SQL column values; a missing value becomes NULL.
func nullable(v Value) (nominal, uncertainty any) {
	if v.IsZero() {
		return nil, nil
	}
	return v.Nominal, v.Uncertainty
}

func fromColumns(kind int, nominal, uncertainty sql.NullFloat64) Value {
	if ValueKind(kind) == ValueNone || !nominal.Valid {
		return Value{}
	}
	return Value{
		Kind:        ValueKind(kind),
		Nominal:     nominal.Float64,
		Uncertainty: uncertainty.Float64,
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Store keeps recorded papers in a local SQLite database. It satisfies
// Base for runs that do not write to Notion.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the database at cfg.SQLitePath and creates
// the schema if it does not exist.
func NewStore(cfg types.KnowledgeBaseConfig) (*Store, error) {
	if cfg.SQLitePath == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.SQLitePath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
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
		`CREATE TABLE IF NOT EXISTS papers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			title_key TEXT NOT NULL UNIQUE,
			source TEXT,
			source_id TEXT,
			author TEXT,
			abstract TEXT,
			url TEXT,
			date TEXT,
			relatedness TEXT NOT NULL,
			model TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sections (
			paper_id INTEGER NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			content TEXT NOT NULL,
			PRIMARY KEY (paper_id, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_relatedness ON papers(relatedness)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// ExistingTitles returns every stored title.
func (s *Store) ExistingTitles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title FROM papers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return titles, fmt.Errorf("scanning title: %w", err)
		}
		titles = append(titles, t)
	}
	if err := rows.Err(); err != nil {
		return titles, fmt.Errorf("iterating titles: %w", err)
	}
	return titles, nil
}

// CreateRecord inserts the paper and its sections in one transaction. A
// paper whose normalized title is already stored is rejected.
func (s *Store) CreateRecord(ctx context.Context, p types.Paper) error {
	if p.Analysis == nil {
		return fmt.Errorf("paper %q has no analysis", p.Title)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO papers (title, title_key, source, source_id, author, abstract, url, date, relatedness, model, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		types.CollapseSpace(p.Title), p.Key(), p.Source, p.SourceID, p.PrimaryAuthor,
		p.Abstract, p.CanonicalLink, p.PublishedAt.UTC().Format(time.DateOnly),
		string(p.Analysis.Relevance), p.Analysis.Model, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting paper: %w", err)
	}
	paperID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading paper id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sections (paper_id, name, content) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, sec := range types.Sections {
		if _, err := stmt.ExecContext(ctx, paperID, string(sec), p.Analysis.Section(sec)); err != nil {
			return fmt.Errorf("inserting section %s: %w", sec, err)
		}
	}

	return tx.Commit()
}

// Record is a stored paper as read back from the database.
type Record struct {
	Title       string
	Relatedness types.Relevance
	Model       string
	Sections    map[types.Section]string
}

// Get returns the stored record whose normalized title matches title.
// It returns sql.ErrNoRows when there is none.
func (s *Store) Get(ctx context.Context, title string) (Record, error) {
	var (
		rec Record
		id  int64
		rel string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, relatedness, model FROM papers WHERE title_key = ?`,
		types.NormalizeTitle(title),
	).Scan(&id, &rec.Title, &rel, &rec.Model)
	if err != nil {
		return Record{}, err
	}
	rec.Relatedness = types.Relevance(rel)

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, content FROM sections WHERE paper_id = ?`, id)
	if err != nil {
		return Record{}, fmt.Errorf("querying sections: %w", err)
	}
	defer rows.Close()

	rec.Sections = make(map[types.Section]string, len(types.Sections))
	for rows.Next() {
		var name, content string
		if err := rows.Scan(&name, &content); err != nil {
			return Record{}, fmt.Errorf("scanning section: %w", err)
		}
		rec.Sections[types.Section(name)] = content
	}
	return rec, rows.Err()
}

// Package thinking implements persistent storage for sequential thinking
// traces: numbered thoughts recorded while reasoning through a problem,
// with optional revisions and branches.
//
// Backed by SQLite so traces survive server restarts and can be reviewed
// across sessions.
package thinking

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/planward/planward/internal/config"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Types ───────────────────────────────────────────────────────────────────

// Thought is one recorded step of a thinking trace.
type Thought struct {
	ID            int64  `json:"id"`
	SessionID     string `json:"session_id"`
	ThoughtNumber int    `json:"thought_number"`
	TotalThoughts int    `json:"total_thoughts"`
	Content       string `json:"content"`
	BranchID      string `json:"branch_id,omitempty"`
	BranchFrom    int    `json:"branch_from,omitempty"`
	Revises       int    `json:"revises,omitempty"`
	NeedsMore     bool   `json:"needs_more"`
	CreatedAt     string `json:"created_at"`
}

// AddThoughtParams holds the input for recording a thought.
type AddThoughtParams struct {
	SessionID     string `json:"session_id"`
	ThoughtNumber int    `json:"thought_number"`
	TotalThoughts int    `json:"total_thoughts"`
	Content       string `json:"content"`
	BranchID      string `json:"branch_id,omitempty"`
	BranchFrom    int    `json:"branch_from,omitempty"`
	Revises       int    `json:"revises,omitempty"`
	NeedsMore     bool   `json:"needs_more,omitempty"`
}

// Config holds thinking store configuration.
type Config struct {
	DataDir          string
	MaxThoughtLength int
}

// DefaultConfig returns the default configuration for the thinking store.
func DefaultConfig() Config {
	return Config{
		DataDir:          config.GlobalDir(),
		MaxThoughtLength: 4000,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store persists thinking traces in SQLite.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New creates a new Store with the given configuration. It creates the
// data directory if needed, opens SQLite with WAL mode, and runs
// migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("thinking: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "thinking.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("thinking: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("thinking: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("thinking: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS thoughts (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id     TEXT    NOT NULL,
			thought_number INTEGER NOT NULL,
			total_thoughts INTEGER NOT NULL,
			content        TEXT    NOT NULL,
			branch_id      TEXT    NOT NULL DEFAULT '',
			branch_from    INTEGER NOT NULL DEFAULT 0,
			revises        INTEGER NOT NULL DEFAULT 0,
			needs_more     INTEGER NOT NULL DEFAULT 0,
			created_at     TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_thoughts_session ON thoughts(session_id, branch_id, thought_number);
		CREATE INDEX IF NOT EXISTS idx_thoughts_created ON thoughts(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Thoughts ────────────────────────────────────────────────────────────────

// AddThought records a thought and returns its row id.
func (s *Store) AddThought(p AddThoughtParams) (int64, error) {
	if p.SessionID == "" {
		return 0, fmt.Errorf("thinking: session_id is required")
	}
	if p.ThoughtNumber < 1 {
		return 0, fmt.Errorf("thinking: thought_number must be >= 1, got %d", p.ThoughtNumber)
	}
	if p.Content == "" {
		return 0, fmt.Errorf("thinking: content is required")
	}

	content := p.Content
	if s.cfg.MaxThoughtLength > 0 && len(content) > s.cfg.MaxThoughtLength {
		content = content[:s.cfg.MaxThoughtLength] + "... [truncated]"
	}
	total := p.TotalThoughts
	if total < p.ThoughtNumber {
		total = p.ThoughtNumber
	}

	res, err := s.db.Exec(
		`INSERT INTO thoughts (session_id, thought_number, total_thoughts, content, branch_id, branch_from, revises, needs_more)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.SessionID, p.ThoughtNumber, total, content,
		p.BranchID, p.BranchFrom, p.Revises, boolToInt(p.NeedsMore),
	)
	if err != nil {
		return 0, fmt.Errorf("thinking: insert thought: %w", err)
	}
	return res.LastInsertId()
}

// History returns a session's thoughts in recorded order. A non-empty
// branchID restricts the trace to that branch; empty returns the trunk.
func (s *Store) History(sessionID, branchID string) ([]Thought, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, thought_number, total_thoughts, content,
		        branch_id, branch_from, revises, needs_more, created_at
		 FROM thoughts
		 WHERE session_id = ? AND branch_id = ?
		 ORDER BY id ASC`,
		sessionID, branchID,
	)
	if err != nil {
		return nil, fmt.Errorf("thinking: query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Thought
	for rows.Next() {
		var t Thought
		var needsMore int
		if err := rows.Scan(
			&t.ID, &t.SessionID, &t.ThoughtNumber, &t.TotalThoughts, &t.Content,
			&t.BranchID, &t.BranchFrom, &t.Revises, &needsMore, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		t.NeedsMore = needsMore != 0
		results = append(results, t)
	}
	return results, rows.Err()
}

// Branches returns the distinct non-trunk branch ids of a session.
func (s *Store) Branches(sessionID string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT branch_id FROM thoughts
		 WHERE session_id = ? AND branch_id != ''
		 ORDER BY branch_id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("thinking: query branches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var branches []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

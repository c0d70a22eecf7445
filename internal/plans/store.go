// Package plans is the durable storage layer for planning sessions.
//
// Layout inside the plans directory:
//
//	{sessionId}.jsonl          append-only event log, one snapshot per line
//	{YYYYMMDD}-{sessionId}.md  finalized plan document
//	plan-index.json            directory-wide index, JSON map by session id
//
// Persistence is best-effort by design: a failed write or an unreadable
// file never fails the logical planning operation that triggered it.
// Failures are logged with a recognizable prefix and the operation
// returns a safe default (no-op for writes, empty/not-found for reads).
// The one exception is LoadSession, whose not-found error is part of the
// session resumption contract.
package plans

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/planward/planward/internal/config"
	"github.com/planward/planward/internal/planning"
)

const (
	// IndexFilename is the directory-wide index file.
	IndexFilename = "plan-index.json"

	// logPrefix marks persistence failures in the server log.
	logPrefix = "WARNING: plans store:"
)

// logf is a package-level variable for testability.
var logf = log.Printf

// maxEventLine bounds a single JSONL line when scanning event logs.
const maxEventLine = 4 * 1024 * 1024

// ─── Types ───────────────────────────────────────────────────────────────────

// Event is one line of a session's event log: a timestamped full snapshot.
type Event struct {
	Timestamp string            `json:"timestamp"`
	Phase     planning.Phase    `json:"phase"`
	Session   *planning.Session `json:"session"`
}

// FilePaths locates a session's durable artifacts, as filenames relative
// to the plans directory.
type FilePaths struct {
	JSONL    string `json:"jsonl"`
	Markdown string `json:"markdown,omitempty"`
}

// IndexEntry is the denormalized per-session summary stored in the index.
type IndexEntry struct {
	Problem        string         `json:"problem"`
	CreatedAt      string         `json:"created_at"`
	FinalizedAt    string         `json:"finalized_at,omitempty"`
	SelectedBranch string         `json:"selected_branch,omitempty"`
	Phase          planning.Phase `json:"phase"`
	FilePaths      FilePaths      `json:"file_paths"`
}

// ListedPlan is an index entry annotated with its session id.
type ListedPlan struct {
	SessionID string `json:"session_id"`
	IndexEntry
}

// ListOptions filters List output.
type ListOptions struct {
	// Status: "complete" keeps finalized plans, "active" keeps the rest,
	// anything else keeps everything.
	Status string
	// Keyword is a case-insensitive substring match on the problem text.
	Keyword string
}

// PlanContent is the outcome of a single-plan retrieval. Found is false
// for a missing index entry or an unreadable file — never an error.
type PlanContent struct {
	Found   bool   `json:"found"`
	Format  string `json:"format,omitempty"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store persists planning sessions under a single plans directory,
// resolved once at construction (see config.ResolvePlansDir).
type Store struct {
	dir string
}

// NewStore creates a Store. An empty override resolves the directory
// through the settings chain.
func NewStore(override string) *Store {
	return &Store{dir: config.ResolvePlansDir(override)}
}

// Dir returns the resolved plans directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) jsonlName(sessionID string) string {
	return sessionID + ".jsonl"
}

// markdownName builds the dated markdown filename. The date prefix comes
// from the session's creation date so filenames sort chronologically.
func markdownName(createdAt, sessionID string) string {
	date := createdAt
	if len(date) >= 10 {
		date = date[:10]
	}
	date = strings.ReplaceAll(date, "-", "")
	return fmt.Sprintf("%s-%s.md", date, sessionID)
}

// ensureDir lazily creates the plans directory on first write.
func (s *Store) ensureDir() error {
	return os.MkdirAll(s.dir, 0o755)
}

// ─── Event log ───────────────────────────────────────────────────────────────

// AppendEvent appends a timestamped snapshot of the session to its event
// log. Failures are logged and swallowed.
func (s *Store) AppendEvent(session *planning.Session) {
	if session == nil {
		return
	}
	if err := s.ensureDir(); err != nil {
		logf("%s create plans dir: %v", logPrefix, err)
		return
	}

	event := Event{
		Timestamp: timeNow().UTC().Format(time.RFC3339),
		Phase:     session.Phase,
		Session:   session,
	}
	line, err := json.Marshal(event)
	if err != nil {
		logf("%s marshal event for %s: %v", logPrefix, session.ID, err)
		return
	}

	path := filepath.Join(s.dir, s.jsonlName(session.ID))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logf("%s open event log for %s: %v", logPrefix, session.ID, err)
		return
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(line, '\n')); err != nil {
		logf("%s append event for %s: %v", logPrefix, session.ID, err)
	}
}

// LoadSession reconstructs a session by replaying its event log and
// keeping the last valid snapshot. Unlike the other read paths this one
// returns an error: a missing session is a validation failure the caller
// reports, not a degraded read.
func (s *Store) LoadSession(sessionID string) (*planning.Session, error) {
	path := filepath.Join(s.dir, s.jsonlName(sessionID))
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("session %q not found in %s", sessionID, s.dir)
		}
		return nil, fmt.Errorf("session %q not found: %w", sessionID, err)
	}
	defer func() { _ = f.Close() }()

	last, _, err := replayEvents(f)
	if err != nil {
		return nil, fmt.Errorf("session %q not found: %w", sessionID, err)
	}
	if last == nil || last.Session == nil {
		return nil, fmt.Errorf("session %q not found: event log is empty or corrupt", sessionID)
	}
	return last.Session, nil
}

// replayEvents scans a JSONL stream and returns the first and last
// successfully parsed events. Corrupt lines are skipped.
func replayEvents(f *os.File) (last, first *Event, err error) {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxEventLine)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		if first == nil {
			e := ev
			first = &e
		}
		e := ev
		last = &e
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return last, first, nil
}

// ─── Markdown ────────────────────────────────────────────────────────────────

// WriteMarkdown writes the rendered plan document next to the event log
// and returns the filename, or "" when the write failed (logged).
func (s *Store) WriteMarkdown(session *planning.Session, doc string) string {
	if session == nil {
		return ""
	}
	if err := s.ensureDir(); err != nil {
		logf("%s create plans dir: %v", logPrefix, err)
		return ""
	}
	name := markdownName(session.CreatedAt, session.ID)
	if err := os.WriteFile(filepath.Join(s.dir, name), []byte(doc), 0o644); err != nil {
		logf("%s write markdown for %s: %v", logPrefix, session.ID, err)
		return ""
	}
	return name
}

// ─── Index ───────────────────────────────────────────────────────────────────

// ReadIndex reads the directory-wide index. A missing or corrupt index
// degrades to an empty map.
func (s *Store) ReadIndex() map[string]IndexEntry {
	data, err := os.ReadFile(filepath.Join(s.dir, IndexFilename))
	if err != nil {
		if !os.IsNotExist(err) {
			logf("%s read index: %v", logPrefix, err)
		}
		return map[string]IndexEntry{}
	}
	var idx map[string]IndexEntry
	if err := json.Unmarshal(data, &idx); err != nil {
		logf("%s corrupt index, treating as empty: %v", logPrefix, err)
		return map[string]IndexEntry{}
	}
	if idx == nil {
		idx = map[string]IndexEntry{}
	}
	return idx
}

// WriteIndex atomically replaces the index: serialize to a temp file in
// the same directory, then rename over the real path, so concurrent
// readers never observe a partial write.
func (s *Store) WriteIndex(idx map[string]IndexEntry) {
	if err := s.ensureDir(); err != nil {
		logf("%s create plans dir: %v", logPrefix, err)
		return
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		logf("%s marshal index: %v", logPrefix, err)
		return
	}

	tmp, err := os.CreateTemp(s.dir, IndexFilename+".*.tmp")
	if err != nil {
		logf("%s create temp index: %v", logPrefix, err)
		return
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		logf("%s write temp index: %v", logPrefix, err)
		return
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		logf("%s close temp index: %v", logPrefix, err)
		return
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, IndexFilename)); err != nil {
		_ = os.Remove(tmpName)
		logf("%s rename index: %v", logPrefix, err)
	}
}

// UpsertIndexEntry refreshes the session's index row. markdownFile may be
// empty; an existing markdown path is preserved.
func (s *Store) UpsertIndexEntry(session *planning.Session, markdownFile string) {
	if session == nil {
		return
	}
	idx := s.ReadIndex()

	entry := IndexEntry{
		Problem:   session.Problem,
		CreatedAt: session.CreatedAt,
		Phase:     session.Phase,
		FilePaths: FilePaths{JSONL: s.jsonlName(session.ID)},
	}
	if prev, ok := idx[session.ID]; ok && prev.FilePaths.Markdown != "" {
		entry.FilePaths.Markdown = prev.FilePaths.Markdown
	}
	if markdownFile != "" {
		entry.FilePaths.Markdown = markdownFile
	}
	if session.Phase == planning.PhaseDone {
		entry.FinalizedAt = session.UpdatedAt
		entry.SelectedBranch = session.SelectedApproach
	}

	idx[session.ID] = entry
	s.WriteIndex(idx)
}

// ─── Listing & retrieval ─────────────────────────────────────────────────────

// List returns index entries matching the filters, newest first.
func (s *Store) List(opts ListOptions) []ListedPlan {
	idx := s.ReadIndex()

	var out []ListedPlan
	for id, entry := range idx {
		switch opts.Status {
		case "complete":
			if entry.Phase != planning.PhaseDone {
				continue
			}
		case "active":
			if entry.Phase == planning.PhaseDone {
				continue
			}
		}
		if opts.Keyword != "" &&
			!strings.Contains(strings.ToLower(entry.Problem), strings.ToLower(opts.Keyword)) {
			continue
		}
		out = append(out, ListedPlan{SessionID: id, IndexEntry: entry})
	}

	// RFC3339 timestamps sort lexicographically.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].SessionID < out[j].SessionID
	})
	return out
}

// Get retrieves a single plan's content. Requesting markdown for a
// session that was never finalized falls back to the event log, with the
// format reported as "jsonl".
func (s *Store) Get(sessionID, format string) PlanContent {
	idx := s.ReadIndex()
	entry, ok := idx[sessionID]
	if !ok {
		return PlanContent{Message: fmt.Sprintf("no plan found for session %q", sessionID)}
	}

	if format == "" {
		format = "markdown"
	}
	name := entry.FilePaths.JSONL
	if format == "markdown" {
		if entry.FilePaths.Markdown != "" {
			name = entry.FilePaths.Markdown
		} else {
			format = "jsonl"
		}
	} else {
		format = "jsonl"
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		logf("%s read plan %s: %v", logPrefix, sessionID, err)
		return PlanContent{Message: fmt.Sprintf("plan file %q is not readable", name)}
	}
	return PlanContent{Found: true, Format: format, Content: string(data)}
}

// ─── Rebuild ─────────────────────────────────────────────────────────────────

// RebuildIndex rebuilds the full index from a directory scan of the
// event logs: first line for creation metadata, last line for current
// state, plus a check for the dated markdown file. Corrupt logs are
// skipped without aborting the rest. The rebuilt index is persisted.
// Returns the index and the number of skipped files.
func (s *Store) RebuildIndex() (map[string]IndexEntry, int) {
	idx := map[string]IndexEntry{}
	skipped := 0

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logf("%s scan plans dir: %v", logPrefix, err)
		}
		return idx, 0
	}

	for _, de := range entries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		sessionID := strings.TrimSuffix(name, ".jsonl")

		entry, ok := s.rebuildEntry(name, sessionID)
		if !ok {
			skipped++
			continue
		}
		idx[sessionID] = entry
	}

	s.WriteIndex(idx)
	return idx, skipped
}

// rebuildEntry reconstructs one index entry from a session's event log.
func (s *Store) rebuildEntry(filename, sessionID string) (IndexEntry, bool) {
	f, err := os.Open(filepath.Join(s.dir, filename))
	if err != nil {
		logf("%s rebuild: open %s: %v", logPrefix, filename, err)
		return IndexEntry{}, false
	}
	defer func() { _ = f.Close() }()

	last, first, err := replayEvents(f)
	if err != nil {
		logf("%s rebuild: scan %s: %v", logPrefix, filename, err)
		return IndexEntry{}, false
	}
	if first == nil || first.Session == nil || last == nil || last.Session == nil {
		logf("%s rebuild: skipping corrupt event log %s", logPrefix, filename)
		return IndexEntry{}, false
	}

	entry := IndexEntry{
		Problem:   first.Session.Problem,
		CreatedAt: first.Session.CreatedAt,
		Phase:     last.Session.Phase,
		FilePaths: FilePaths{JSONL: filename},
	}
	if last.Session.Phase == planning.PhaseDone {
		entry.FinalizedAt = last.Timestamp
		entry.SelectedBranch = last.Session.SelectedApproach
	}

	mdName := markdownName(first.Session.CreatedAt, sessionID)
	if _, err := os.Stat(filepath.Join(s.dir, mdName)); err == nil {
		entry.FilePaths.Markdown = mdName
	}
	return entry, true
}

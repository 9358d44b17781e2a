// Package forge reads the journal, decision and dead-end files kept by
// session-forge and returns the entries related to a query. It never writes
// to that directory, and unreadable data degrades to empty results.
package forge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/keywords"
)

// MaxPerKind caps the entries returned for each file.
const MaxPerKind = 10

// File names inside the forge directory.
const (
	JournalFile   = "journal.json"
	DecisionsFile = "decisions.json"
	DeadEndsFile  = "dead-ends.json"
)

type JournalEntry struct {
	Timestamp          string   `json:"timestamp"`
	SessionSummary     string   `json:"session_summary"`
	KeyMoments         []string `json:"key_moments"`
	EmotionalContext   *string  `json:"emotional_context"`
	Breakthroughs      []string `json:"breakthroughs"`
	Frustrations       []string `json:"frustrations"`
	CollaborationNotes *string  `json:"collaboration_notes"`
}

type DecisionEntry struct {
	Timestamp    string   `json:"timestamp"`
	Choice       string   `json:"choice"`
	Alternatives []string `json:"alternatives"`
	Reasoning    string   `json:"reasoning"`
	Outcome      *string  `json:"outcome"`
	Project      *string  `json:"project"`
	Tags         []string `json:"tags"`
}

type DeadEndEntry struct {
	Timestamp     string   `json:"timestamp"`
	Attempted     string   `json:"attempted"`
	WhyFailed     string   `json:"why_failed"`
	Lesson        string   `json:"lesson"`
	Project       *string  `json:"project"`
	FilesInvolved []string `json:"files_involved"`
	Tags          []string `json:"tags"`
}

// Context is the related external context for one query.
type Context struct {
	Journals  []JournalEntry  `json:"journals"`
	Decisions []DecisionEntry `json:"decisions"`
	DeadEnds  []DeadEndEntry  `json:"dead_ends"`
}

func emptyContext() Context {
	return Context{
		Journals:  []JournalEntry{},
		Decisions: []DecisionEntry{},
		DeadEnds:  []DeadEndEntry{},
	}
}

// Aggregator searches one forge directory.
type Aggregator struct {
	dir    string
	logger *zap.Logger
}

// New returns an Aggregator over dir. An empty dir is never available.
func New(dir string, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{dir: dir, logger: logger}
}

// Dir returns the directory searched.
func (a *Aggregator) Dir() string {
	return a.dir
}

// Available reports whether the forge directory exists.
func (a *Aggregator) Available() bool {
	if a.dir == "" {
		return false
	}
	info, err := os.Stat(a.dir)
	return err == nil && info.IsDir()
}

// Search returns, per file, the entries sharing at least one keyword with
// query, newest first and at most MaxPerKind of each. Files are assumed to be
// in chronological order.
func (a *Aggregator) Search(query string) Context {
	out := emptyContext()
	if !a.Available() {
		return out
	}
	querySet := keywords.Set(keywords.Extract(query))
	if len(querySet) == 0 {
		return out
	}

	var journal struct {
		Sessions []JournalEntry `json:"sessions"`
	}
	if a.read(JournalFile, &journal) {
		out.Journals = related(journal.Sessions, querySet, func(e JournalEntry) []string {
			return entryKeywords(e.SessionSummary, e.KeyMoments, e.Breakthroughs, e.Frustrations)
		})
	}

	var decisions struct {
		Decisions []DecisionEntry `json:"decisions"`
	}
	if a.read(DecisionsFile, &decisions) {
		out.Decisions = related(decisions.Decisions, querySet, func(e DecisionEntry) []string {
			return entryKeywords(e.Choice+" "+e.Reasoning, e.Alternatives, e.Tags)
		})
	}

	var deadEnds struct {
		DeadEnds []DeadEndEntry `json:"dead_ends"`
	}
	if a.read(DeadEndsFile, &deadEnds) {
		out.DeadEnds = related(deadEnds.DeadEnds, querySet, func(e DeadEndEntry) []string {
			return entryKeywords(e.Attempted+" "+e.WhyFailed+" "+e.Lesson, e.Tags)
		})
	}

	return out
}

// read decodes the named file into dst and reports success. Missing and
// malformed files are logged at debug level.
func (a *Aggregator) read(name string, dst any) bool {
	path := filepath.Join(a.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		a.logger.Debug("forge file unavailable", zap.String("path", path), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		a.logger.Debug("forge file unreadable", zap.String("path", path), zap.Error(err))
		return false
	}
	return true
}

func related[E any](entries []E, querySet map[string]struct{}, text func(E) []string) []E {
	matches := make([]E, 0)
	for _, e := range entries {
		if keywords.SharedWith(querySet, text(e)) >= 1 {
			matches = append(matches, e)
		}
	}
	slices.Reverse(matches)
	if len(matches) > MaxPerKind {
		matches = matches[:MaxPerKind]
	}
	return matches
}

// entryKeywords extracts the keywords of head followed by those of every list item.
func entryKeywords(head string, lists ...[]string) []string {
	parts := []string{head}
	for _, l := range lists {
		parts = append(parts, strings.Join(l, " "))
	}
	return keywords.Extract(strings.Join(parts, " "))
}

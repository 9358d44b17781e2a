package storage

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/models"
)

// setupStore opens a fresh store in a temp directory.
func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var clock = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func thought(id, content, category string, importance float64, p models.Position) models.Thought {
	clock = clock.Add(time.Second)
	ts := models.FormatTime(clock)
	return models.Thought{
		ID:             id,
		Content:        content,
		Category:       category,
		Importance:     importance,
		PositionX:      p.X,
		PositionY:      p.Y,
		PositionZ:      p.Z,
		CreatedAt:      ts,
		LastReferenced: ts,
	}
}

func connection(id, from, to string) models.Connection {
	return models.Connection{
		ID:          id,
		FromThought: from,
		ToThought:   to,
		Strength:    0.5,
		Reason:      "test",
		CreatedAt:   models.Now(),
	}
}

func mustUpsert(t *testing.T, s *Store, ts ...models.Thought) {
	t.Helper()
	for _, th := range ts {
		if err := s.UpsertThought(th); err != nil {
			t.Fatalf("UpsertThought(%s): %v", th.ID, err)
		}
	}
}

func TestOpenCreatesDatabaseFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := OpenDir(dir)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, DBFileName)); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
	if s.Path() != filepath.Join(dir, DBFileName) {
		t.Errorf("Path = %q", s.Path())
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenDir(dir)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	mustUpsert(t, s, thought("t1", "persisted", "work", 0.5, models.Position{}))
	s.Close()

	s2, err := OpenDir(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	n, err := s2.ThoughtCount()
	if err != nil {
		t.Fatalf("ThoughtCount: %v", err)
	}
	if n != 1 {
		t.Errorf("count after reopen = %d, want 1", n)
	}
}

func TestUpsertThoughtIsIdempotent(t *testing.T) {
	s := setupStore(t)

	th := thought("t1", "first version", "work", 0.5, models.Position{X: 1})
	mustUpsert(t, s, th)
	th.Content = "second version"
	mustUpsert(t, s, th)
	mustUpsert(t, s, th)

	all, err := s.ListThoughts()
	if err != nil {
		t.Fatalf("ListThoughts: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 thought, got %d", len(all))
	}
	if all[0].Content != "second version" {
		t.Errorf("Content = %q, want %q", all[0].Content, "second version")
	}
}

func TestThoughtRoleRoundTrip(t *testing.T) {
	s := setupStore(t)

	role := "assistant"
	withRole := thought("a", "has role", "work", 0.5, models.Position{})
	withRole.Role = &role
	mustUpsert(t, s, withRole, thought("b", "no role", "work", 0.5, models.Position{}))

	all, err := s.ListThoughts()
	if err != nil {
		t.Fatalf("ListThoughts: %v", err)
	}
	for _, th := range all {
		switch th.ID {
		case "a":
			if th.Role == nil || *th.Role != "assistant" {
				t.Errorf("role for a = %v, want assistant", th.Role)
			}
		case "b":
			if th.Role != nil {
				t.Errorf("role for b = %q, want nil", *th.Role)
			}
		}
	}
}

func TestSearchEmptyStore(t *testing.T) {
	s := setupStore(t)

	got, err := s.Search("anything")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestSearchOrdering(t *testing.T) {
	s := setupStore(t)

	mustUpsert(t, s,
		thought("low", "Rust borrow checker", "technical", 0.2, models.Position{}),
		thought("high", "rust ownership model", "technical", 0.9, models.Position{}),
		thought("mid-old", "RUST lifetimes", "technical", 0.5, models.Position{}),
		thought("mid-new", "rust traits", "technical", 0.5, models.Position{}),
		thought("other", "go channels", "technical", 1.0, models.Position{}),
	)

	got, err := s.Search("rust")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []string{"high", "mid-new", "mid-old", "low"}
	if len(got) != len(want) {
		t.Fatalf("got %d results, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("result[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	s := setupStore(t)

	mustUpsert(t, s,
		thought("pct", "100% done", "work", 0.5, models.Position{}),
		thought("plain", "1000 done", "work", 0.5, models.Position{}),
		thought("under", "snake_case names", "work", 0.5, models.Position{}),
		thought("space", "snake case names", "work", 0.5, models.Position{}),
	)

	tests := []struct {
		query string
		want  string
	}{
		{"0%", "pct"},
		{"e_c", "under"},
	}
	for _, tt := range tests {
		got, err := s.Search(tt.query)
		if err != nil {
			t.Fatalf("Search(%q): %v", tt.query, err)
		}
		if len(got) != 1 || got[0].ID != tt.want {
			t.Errorf("Search(%q) = %v, want only %s", tt.query, ids(got), tt.want)
		}
	}
}

func TestSearchLimit(t *testing.T) {
	s := setupStore(t)
	for i := 0; i < SearchLimit+5; i++ {
		mustUpsert(t, s, thought(fmt.Sprintf("t%02d", i), "repeated note", "other", 0.5, models.Position{}))
	}

	got, err := s.Search("note")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != SearchLimit {
		t.Errorf("got %d results, want %d", len(got), SearchLimit)
	}
}

func TestNearest(t *testing.T) {
	s := setupStore(t)

	mustUpsert(t, s,
		thought("far", "far", "work", 0.5, models.Position{X: 10}),
		thought("b", "b", "work", 0.5, models.Position{X: 3}),
		thought("a", "a", "work", 0.5, models.Position{X: 1}),
		thought("edge", "edge", "work", 0.5, models.Position{Y: 5}),
	)

	got, err := s.Nearest(models.Position{}, 5, 10)
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	want := []string{"a", "b", "edge"}
	if len(got) != len(want) {
		t.Fatalf("Nearest = %v, want %v", ids(got), want)
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("result[%d] = %s, want %s", i, got[i].ID, id)
		}
	}

	got, err = s.Nearest(models.Position{}, 5, 1)
	if err != nil {
		t.Fatalf("Nearest limit 1: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("Nearest limit 1 = %v, want [a]", ids(got))
	}
}

func TestNearestDegenerateArgs(t *testing.T) {
	s := setupStore(t)
	mustUpsert(t, s, thought("a", "a", "work", 0.5, models.Position{}))

	for _, tc := range []struct {
		name   string
		radius float64
		limit  int
	}{
		{"zero limit", 5, 0},
		{"negative limit", 5, -1},
		{"negative radius", -1, 10},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Nearest(models.Position{}, tc.radius, tc.limit)
			if err != nil {
				t.Fatalf("Nearest: %v", err)
			}
			if len(got) != 0 {
				t.Errorf("expected no results, got %v", ids(got))
			}
		})
	}
}

func TestConnectionsAmong(t *testing.T) {
	s := setupStore(t)

	for _, c := range []models.Connection{
		connection("ab", "A", "B"),
		connection("ac", "A", "C"),
		connection("ba", "B", "A"),
	} {
		if err := s.UpsertConnection(c); err != nil {
			t.Fatalf("UpsertConnection: %v", err)
		}
	}

	got, err := s.ConnectionsAmong([]string{"A", "B"})
	if err != nil {
		t.Fatalf("ConnectionsAmong: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 connections, got %d", len(got))
	}
	for _, c := range got {
		if c.ID == "ac" {
			t.Error("A->C should be excluded")
		}
	}

	empty, err := s.ConnectionsAmong(nil)
	if err != nil {
		t.Fatalf("ConnectionsAmong(nil): %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty result for empty id set, got %d", len(empty))
	}
}

func TestConnectionsAllowDanglingAndParallel(t *testing.T) {
	s := setupStore(t)

	if err := s.UpsertConnection(connection("c1", "ghost", "other-ghost")); err != nil {
		t.Fatalf("dangling connection rejected: %v", err)
	}
	if err := s.UpsertConnection(connection("c2", "ghost", "other-ghost")); err != nil {
		t.Fatalf("parallel connection rejected: %v", err)
	}

	all, err := s.ListConnections()
	if err != nil {
		t.Fatalf("ListConnections: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 connections, got %d", len(all))
	}
}

func TestSessions(t *testing.T) {
	s := setupStore(t)

	summary := "Discussed the roadmap"
	older := models.Session{ID: "s1", Title: "Older", Summary: &summary, StartedAt: "2025-01-01T00:00:00.000000000Z"}
	newer := models.Session{ID: "s2", Title: "Newer", StartedAt: "2025-02-01T00:00:00.000000000Z"}
	ended := newer.StartedAt
	newer.EndedAt = &ended

	for _, sess := range []models.Session{older, newer} {
		if err := s.UpsertSession(sess); err != nil {
			t.Fatalf("UpsertSession: %v", err)
		}
	}

	got, err := s.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(got))
	}
	if got[0].ID != "s2" {
		t.Errorf("first session = %s, want s2", got[0].ID)
	}
	if got[0].EndedAt == nil || *got[0].EndedAt != ended {
		t.Errorf("EndedAt = %v, want %s", got[0].EndedAt, ended)
	}
	if got[1].Summary == nil || *got[1].Summary != summary {
		t.Errorf("Summary = %v, want %q", got[1].Summary, summary)
	}
}

// byCategoryCentroid is a minimal compute function for the recompute tests.
func byCategoryCentroid(thoughts []models.Thought) []models.Cluster {
	groups := map[string][]models.Thought{}
	for _, th := range thoughts {
		groups[th.Category] = append(groups[th.Category], th)
	}
	var out []models.Cluster
	for cat, members := range groups {
		if len(members) < 2 {
			continue
		}
		var c models.Cluster
		for _, m := range members {
			c.CenterX += m.PositionX
			c.CenterY += m.PositionY
			c.CenterZ += m.PositionZ
		}
		n := float64(len(members))
		c.ID = "cluster-" + cat
		c.Name = cat + " cluster"
		c.Category = cat
		c.CenterX /= n
		c.CenterY /= n
		c.CenterZ /= n
		c.ThoughtCount = int64(len(members))
		c.CreatedAt = models.Now()
		out = append(out, c)
	}
	return out
}

func TestRecomputeClusters(t *testing.T) {
	s := setupStore(t)

	mustUpsert(t, s,
		thought("w1", "w1", "work", 0.5, models.Position{X: 0}),
		thought("w2", "w2", "work", 0.5, models.Position{X: 2}),
		thought("w3", "w3", "work", 0.5, models.Position{X: 4}),
		thought("p1", "p1", "personal", 0.5, models.Position{X: 100}),
	)

	got, err := s.RecomputeClusters(byCategoryCentroid)
	if err != nil {
		t.Fatalf("RecomputeClusters: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(got))
	}

	stored, err := s.ListClusters()
	if err != nil {
		t.Fatalf("ListClusters: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored cluster, got %d", len(stored))
	}
	c := stored[0]
	if c.Category != "work" || c.ThoughtCount != 3 {
		t.Errorf("cluster = %+v, want work with 3 thoughts", c)
	}
	if c.CenterX != 2 || c.CenterY != 0 || c.CenterZ != 0 {
		t.Errorf("center = (%v, %v, %v), want (2, 0, 0)", c.CenterX, c.CenterY, c.CenterZ)
	}
}

func TestRecomputeClustersReplacesPreviousSet(t *testing.T) {
	s := setupStore(t)

	mustUpsert(t, s,
		thought("w1", "w1", "work", 0.5, models.Position{}),
		thought("w2", "w2", "work", 0.5, models.Position{}),
	)
	if _, err := s.RecomputeClusters(byCategoryCentroid); err != nil {
		t.Fatalf("first recompute: %v", err)
	}

	got, err := s.RecomputeClusters(func([]models.Thought) []models.Cluster { return nil })
	if err != nil {
		t.Fatalf("second recompute: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %v", got)
	}

	stored, err := s.ListClusters()
	if err != nil {
		t.Fatalf("ListClusters: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("expected clusters to be cleared, got %d", len(stored))
	}
}

func TestVersionCountersGrow(t *testing.T) {
	s := setupStore(t)

	v0, err := s.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if v0.ThoughtMaxID != 0 || v0.ConnectionMaxID != 0 {
		t.Errorf("empty store version = %+v, want zeros", v0)
	}

	th := thought("t1", "one", "work", 0.5, models.Position{})
	mustUpsert(t, s, th)
	v1, _ := s.MaxThoughtVersion()
	if v1 <= v0.ThoughtMaxID {
		t.Errorf("thought version did not grow: %d -> %d", v0.ThoughtMaxID, v1)
	}

	th.Content = "one, edited"
	mustUpsert(t, s, th)
	v2, _ := s.MaxThoughtVersion()
	if v2 <= v1 {
		t.Errorf("thought version did not grow on replace: %d -> %d", v1, v2)
	}

	if err := s.UpsertConnection(connection("c1", "t1", "t1")); err != nil {
		t.Fatalf("UpsertConnection: %v", err)
	}
	c1, err := s.MaxConnectionVersion()
	if err != nil {
		t.Fatalf("MaxConnectionVersion: %v", err)
	}
	if c1 <= v0.ConnectionMaxID {
		t.Errorf("connection version did not grow: %d -> %d", v0.ConnectionMaxID, c1)
	}
}

func TestClosedStoreReturnsStorageError(t *testing.T) {
	s, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	s.Close()

	_, err = s.ListThoughts()
	if err == nil {
		t.Fatal("expected error from closed store")
	}
	if !errors.Is(err, ErrStorage) {
		t.Errorf("error %v does not match ErrStorage", err)
	}
}

func TestPositionStaysInShell(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 1000; i++ {
		p := PositionFrom(rng.Float64)
		r := math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
		if r < MinRadius-1e-9 || r > MaxRadius+1e-9 {
			t.Fatalf("radius %v outside [%v, %v]", r, MinRadius, MaxRadius)
		}
	}

	p := GeneratePosition()
	if r := math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z); r < MinRadius-1e-9 || r > MaxRadius+1e-9 {
		t.Errorf("GeneratePosition radius %v outside shell", r)
	}
}

func TestPositionFromFixedSource(t *testing.T) {
	// r = 10, theta = 0, phi = 0 puts the point on the +Z pole.
	p := PositionFrom(func() float64 { return 0 })
	if math.Abs(p.X) > 1e-9 || math.Abs(p.Y) > 1e-9 || math.Abs(p.Z-10) > 1e-9 {
		t.Errorf("PositionFrom(0) = %+v, want (0, 0, 10)", p)
	}
}

func ids(ts []models.Thought) []string {
	out := make([]string, len(ts))
	for i, th := range ts {
		out[i] = th.ID
	}
	return out
}

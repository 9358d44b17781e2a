// Package linker connects a newly logged thought to existing thoughts that
// share enough keywords with it.
package linker

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/keywords"
	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/metrics"
	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/models"
)

const (
	// MinShared is the keyword overlap needed before a link is made.
	MinShared = 2
	// StrengthPerKeyword is the strength contributed by each shared keyword.
	StrengthPerKeyword = 0.15
)

// Store is the subset of the persistent store the linker needs.
type Store interface {
	ListThoughts() ([]models.Thought, error)
	UpsertConnection(c models.Connection) error
}

// Link is a connection the linker created, with the thought it points to.
type Link struct {
	Connection models.Connection
	Target     models.Thought
}

// Linker creates keyword-overlap connections.
type Linker struct {
	store  Store
	logger *zap.Logger
	newID  func() string
}

// New returns a Linker backed by store.
func New(store Store, logger *zap.Logger) *Linker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Linker{
		store:  store,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// Strength returns the connection strength for shared keywords, capped at 1.
func Strength(shared int) float64 {
	return math.Min(1, StrengthPerKeyword*float64(shared))
}

// Link compares t against every other stored thought and stores a connection
// from t to each one sharing at least MinShared keywords. It scans the whole
// table on every call. Failures never propagate: a listing error yields no
// links and a failed insert is skipped.
func (l *Linker) Link(t models.Thought) []Link {
	existing, err := l.store.ListThoughts()
	if err != nil {
		l.logger.Warn("auto-link: list thoughts failed", zap.String("thought_id", t.ID), zap.Error(err))
		return nil
	}

	newSet := keywords.Set(keywords.Extract(t.Content))
	if len(newSet) < MinShared {
		return nil
	}

	var links []Link
	for _, other := range existing {
		if other.ID == t.ID {
			continue
		}
		shared := keywords.SharedWith(newSet, keywords.Extract(other.Content))
		if shared < MinShared {
			continue
		}

		conn := models.Connection{
			ID:          l.newID(),
			FromThought: t.ID,
			ToThought:   other.ID,
			Strength:    Strength(shared),
			Reason:      fmt.Sprintf("Auto-connected: %d shared keywords", shared),
			CreatedAt:   models.Now(),
		}
		if err := l.store.UpsertConnection(conn); err != nil {
			l.logger.Debug("auto-link: insert skipped",
				zap.String("from", t.ID), zap.String("to", other.ID), zap.Error(err))
			continue
		}
		metrics.AutoLinks.Inc()
		links = append(links, Link{Connection: conn, Target: other})
	}

	l.logger.Debug("auto-link complete", zap.String("thought_id", t.ID), zap.Int("links", len(links)))
	return links
}

// Package cluster derives category clusters from the thought set.
package cluster

import (
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/metrics"
	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/models"
	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/storage"
)

// MinMembers is the smallest category group that forms a cluster.
const MinMembers = 2

// Compute groups thoughts by exact category and returns one cluster per group
// of at least MinMembers, centred on the mean position of its members. Output
// is sorted by category. Each cluster gets a fresh id.
func Compute(thoughts []models.Thought, now string) []models.Cluster {
	groups := make(map[string][]models.Thought)
	for _, t := range thoughts {
		groups[t.Category] = append(groups[t.Category], t)
	}

	clusters := make([]models.Cluster, 0, len(groups))
	for category, members := range groups {
		if len(members) < MinMembers {
			continue
		}
		var sx, sy, sz float64
		for _, m := range members {
			sx += m.PositionX
			sy += m.PositionY
			sz += m.PositionZ
		}
		n := float64(len(members))
		clusters = append(clusters, models.Cluster{
			ID:           uuid.NewString(),
			Name:         category + " cluster",
			Category:     category,
			CenterX:      sx / n,
			CenterY:      sy / n,
			CenterZ:      sz / n,
			ThoughtCount: int64(len(members)),
			CreatedAt:    now,
		})
	}

	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Category < clusters[j].Category
	})
	return clusters
}

// Store is the subset of the persistent store the engine needs.
type Store interface {
	RecomputeClusters(compute storage.ComputeFunc) ([]models.Cluster, error)
}

// Engine rebuilds the stored cluster set.
type Engine struct {
	store  Store
	logger *zap.Logger
}

// NewEngine returns an Engine backed by store.
func NewEngine(store Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, logger: logger}
}

// Recompute replaces the stored clusters with a fresh Compute over every
// stored thought and returns the new set.
func (e *Engine) Recompute() ([]models.Cluster, error) {
	now := models.Now()
	clusters, err := e.store.RecomputeClusters(func(thoughts []models.Thought) []models.Cluster {
		return Compute(thoughts, now)
	})
	metrics.ClusterRecomputes.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		e.logger.Warn("cluster recompute failed", zap.Error(err))
		return nil, err
	}
	e.logger.Debug("clusters recomputed", zap.Int("clusters", len(clusters)))
	return clusters, nil
}

package storage

import (
	"github.com/m-mizutani/goerr/v2"

	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/models"
)

// ComputeFunc derives a complete cluster set from a thought snapshot.
type ComputeFunc func(thoughts []models.Thought) []models.Cluster

// RecomputeClusters replaces the whole cluster collection with compute's
// output. The read, delete and reinsert run in one transaction under the store
// lock, so no reader ever sees an empty or partial set.
func (s *Store) RecomputeClusters(compute ComputeFunc) ([]models.Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, goerr.Wrap(storageErr(err), "begin cluster recompute")
	}
	defer tx.Rollback()

	thoughts, err := queryThoughts(tx, `SELECT `+thoughtColumns+` FROM thoughts`)
	if err != nil {
		return nil, err
	}

	clusters := compute(thoughts)

	if _, err := tx.Exec(`DELETE FROM clusters`); err != nil {
		return nil, goerr.Wrap(storageErr(err), "clear clusters")
	}
	for _, c := range clusters {
		_, err := tx.Exec(
			`INSERT INTO clusters (id, name, category, center_x, center_y, center_z, thought_count, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Category, c.CenterX, c.CenterY, c.CenterZ, c.ThoughtCount, c.CreatedAt,
		)
		if err != nil {
			return nil, goerr.Wrap(storageErr(err), "insert cluster", goerr.V("category", c.Category))
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, goerr.Wrap(storageErr(err), "commit cluster recompute")
	}
	if clusters == nil {
		clusters = []models.Cluster{}
	}
	return clusters, nil
}

// ListClusters returns the current cluster set ordered by category.
func (s *Store) ListClusters() ([]models.Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, name, category, center_x, center_y, center_z, thought_count, created_at
		 FROM clusters ORDER BY category`,
	)
	if err != nil {
		return nil, goerr.Wrap(storageErr(err), "query clusters")
	}
	defer rows.Close()

	clusters := []models.Cluster{}
	for rows.Next() {
		var c models.Cluster
		if err := rows.Scan(&c.ID, &c.Name, &c.Category, &c.CenterX, &c.CenterY, &c.CenterZ, &c.ThoughtCount, &c.CreatedAt); err != nil {
			return nil, goerr.Wrap(storageErr(err), "scan cluster")
		}
		clusters = append(clusters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(storageErr(err), "iterate clusters")
	}
	return clusters, nil
}

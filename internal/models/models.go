package models

import "time"

// TimeLayout is the fixed-width UTC layout used for every stored timestamp.
// Fixed width keeps lexical order equal to chronological order in SQL ORDER BY.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Categories recognised by the tool catalog.
var Categories = []string{"work", "personal", "technical", "creative", "other"}

// FormatTime renders t in TimeLayout (UTC).
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Now returns the current time in TimeLayout.
func Now() string {
	return FormatTime(time.Now())
}

// Position is a point in the 3D visualization space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Thought is a recorded idea, note or decision.
type Thought struct {
	ID             string  `json:"id" validate:"required"`
	Content        string  `json:"content" validate:"required"`
	Role           *string `json:"role"`
	Category       string  `json:"category"`
	Importance     float64 `json:"importance" validate:"min=0,max=1"`
	PositionX      float64 `json:"position_x"`
	PositionY      float64 `json:"position_y"`
	PositionZ      float64 `json:"position_z"`
	CreatedAt      string  `json:"created_at" validate:"required"`
	LastReferenced string  `json:"last_referenced" validate:"required"`
}

// Position returns the thought's coordinates.
func (t Thought) Position() Position {
	return Position{X: t.PositionX, Y: t.PositionY, Z: t.PositionZ}
}

// Connection is a directed, weighted edge between two thoughts.
type Connection struct {
	ID          string  `json:"id" validate:"required"`
	FromThought string  `json:"from_thought" validate:"required"`
	ToThought   string  `json:"to_thought" validate:"required"`
	Strength    float64 `json:"strength" validate:"min=0,max=1"`
	Reason      string  `json:"reason"`
	CreatedAt   string  `json:"created_at" validate:"required"`
}

// Session is an externally authored conversation digest.
type Session struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Summary   *string `json:"summary"`
	StartedAt string  `json:"started_at"`
	EndedAt   *string `json:"ended_at"`
}

// Cluster is a derived grouping of thoughts sharing a category.
// Its ID is regenerated on every recompute.
type Cluster struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	CenterX      float64 `json:"center_x"`
	CenterY      float64 `json:"center_y"`
	CenterZ      float64 `json:"center_z"`
	ThoughtCount int64   `json:"thought_count"`
	CreatedAt    string  `json:"created_at"`
}

// Version carries the change counters polled by clients.
type Version struct {
	ThoughtMaxID    int64 `json:"thought_max_id"`
	ConnectionMaxID int64 `json:"connection_max_id"`
}

package storage

import (
	"math"
	"math/rand/v2"

	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/models"
)

// Spherical shell that new thoughts are placed in.
const (
	MinRadius = 10.0
	MaxRadius = 40.0
)

// GeneratePosition returns a random point in the shell between MinRadius and
// MaxRadius around the origin.
func GeneratePosition() models.Position {
	return PositionFrom(rand.Float64)
}

// PositionFrom draws a position using next, which must return values in [0, 1).
// The radius, azimuth and polar angle are drawn uniformly and independently,
// which biases points toward the poles. Layout relies on that distribution.
func PositionFrom(next func() float64) models.Position {
	r := MinRadius + next()*(MaxRadius-MinRadius)
	theta := next() * 2 * math.Pi
	phi := next() * math.Pi

	return models.Position{
		X: r * math.Sin(phi) * math.Cos(theta),
		Y: r * math.Sin(phi) * math.Sin(theta),
		Z: r * math.Cos(phi),
	}
}

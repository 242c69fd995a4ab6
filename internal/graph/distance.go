package graph

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrMissingTopics = errors.New("node has no topic vector")
	ErrNegativeCost  = errors.New("negative edge cost")
	ErrDimension     = errors.New("topic vectors differ in length")
)

// DistanceFunc maps two topic vectors to a non-negative cost. It need not be a
// metric but must be deterministic.
type DistanceFunc func(a, b []float64) (float64, error)

// CosineDistance returns 1 - cosine similarity. Zero-norm vectors are at
// distance 1 from everything.
func CosineDistance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimension, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1, nil
	}
	d := 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
	// rounding can leave tiny negatives for identical vectors
	if d < 0 {
		d = 0
	}
	return d, nil
}

func EuclideanDistance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimension, len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// HellingerDistance treats both vectors as discrete distributions. Negative
// components are clamped to zero.
func HellingerDistance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimension, len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := math.Sqrt(math.Max(a[i], 0)) - math.Sqrt(math.Max(b[i], 0))
		sum += d * d
	}
	return math.Sqrt(sum) / math.Sqrt2, nil
}

// DistanceByName resolves "cosine", "euclidean" or "hellinger".
func DistanceByName(name string) (DistanceFunc, error) {
	switch name {
	case "cosine", "":
		return CosineDistance, nil
	case "euclidean":
		return EuclideanDistance, nil
	case "hellinger":
		return HellingerDistance, nil
	default:
		return nil, fmt.Errorf("unknown distance %q", name)
	}
}

// AssignEdgeCosts prices every edge that has no cost yet and returns how many
// edges it priced. Already priced edges are left alone, so re-running is safe.
func AssignEdgeCosts(g *Graph, dist DistanceFunc) (int, error) {
	priced := 0
	for _, e := range g.Edges() {
		if e.Priced {
			continue
		}
		src, dst := g.nodes[e.Source], g.nodes[e.Target]
		if src.Topics == nil {
			return priced, fmt.Errorf("%w: %s", ErrMissingTopics, src.ID)
		}
		if dst.Topics == nil {
			return priced, fmt.Errorf("%w: %s", ErrMissingTopics, dst.ID)
		}
		c, err := dist(src.Topics, dst.Topics)
		if err != nil {
			return priced, fmt.Errorf("pricing %s -> %s: %w", e.Source, e.Target, err)
		}
		if c < 0 || math.IsNaN(c) {
			return priced, fmt.Errorf("%w: %s -> %s = %v", ErrNegativeCost, e.Source, e.Target, c)
		}
		e.Cost = c
		e.Priced = true
		priced++
	}
	return priced, nil
}

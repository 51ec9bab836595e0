package ann

import (
	"fmt"
	"math"
	"strings"
)

// Metric defines how distances between vectors are computed.
type Metric int

const (
	// Angular compares directions: distance is 1 - cosine similarity.
	Angular Metric = iota
	// Euclidean computes standard L2 distance.
	Euclidean
)

func (m Metric) String() string {
	switch m {
	case Angular:
		return "angular"
	case Euclidean:
		return "euclidean"
	default:
		return "unknown"
	}
}

// ParseMetric maps a config name onto a Metric. "cosine" is accepted as an
// alias of angular.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "angular", "cosine":
		return Angular, nil
	case "euclidean", "l2":
		return Euclidean, nil
	default:
		return 0, fmt.Errorf("unknown metric %q", name)
	}
}

// Distance computes the distance between a and b under m.
// Under Angular a zero vector is treated as orthogonal to everything.
func (m Metric) Distance(a, b []float32) float64 {
	switch m {
	case Angular:
		var ab, aa, bb float64
		for i := range a {
			x, y := float64(a[i]), float64(b[i])
			ab += x * y
			aa += x * x
			bb += y * y
		}
		if aa == 0 || bb == 0 {
			return 1
		}
		cos := ab / (math.Sqrt(aa) * math.Sqrt(bb))
		// Clamp to avoid precision issues.
		if cos > 1 {
			cos = 1
		} else if cos < -1 {
			cos = -1
		}
		return 1 - cos
	case Euclidean:
		var sum float64
		for i := range a {
			diff := float64(a[i]) - float64(b[i])
			sum += diff * diff
		}
		return math.Sqrt(sum)
	default:
		panic("unsupported metric")
	}
}

// project returns the vector the hyperplane geometry works on: the unit
// vector for Angular, vec itself otherwise. The result may alias vec.
func (m Metric) project(vec []float32) []float32 {
	if m != Angular {
		return vec
	}
	n := norm(vec)
	if n == 0 || n == 1 {
		return vec
	}
	out := make([]float32, len(vec))
	inv := 1 / n
	for i, v := range vec {
		out[i] = float32(float64(v) * inv)
	}
	return out
}

// scale is the factor applied to a raw dot product so that it matches the
// dot product with the projected vector.
func (m Metric) scale(vec []float32) float64 {
	if m != Angular {
		return 1
	}
	n := norm(vec)
	if n == 0 {
		return 0
	}
	return 1 / n
}

func norm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

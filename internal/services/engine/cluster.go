package engine

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"AfriPulse/internal/domain/models"
)

// Clusterer groups countries by demographic profile for one year using
// k-means over standardized features, with k selected by mean silhouette.
// Everything is seeded and iteration order is fixed, so the same snapshot
// always yields the same partition.
type Clusterer struct {
	policy ClusterPolicy
}

func NewClusterer(policy ClusterPolicy) *Clusterer {
	return &Clusterer{policy: policy}
}

// Cluster partitions the records for the given year. Countries missing any
// feature are reported unassigned, never silently dropped. Candidate k
// values that fail to converge within the iteration cap are skipped; if
// every candidate fails the whole run fails with NonConvergenceError.
func (c *Clusterer) Cluster(ctx context.Context, year int, records []models.IndicatorRecord) (*models.ClusterResult, error) {
	result := &models.ClusterResult{
		Year:     year,
		Features: append([]string(nil), c.policy.Features...),
	}

	var points [][]float64
	var clustered []string
	for _, rec := range records {
		if rec.Year != year {
			continue
		}
		vec, ok := featureVector(rec, c.policy.Features)
		if !ok {
			result.Assignments = append(result.Assignments, models.ClusterAssignment{
				Country: rec.Country, Cluster: -1,
			})
			continue
		}
		points = append(points, vec)
		clustered = append(clustered, rec.Country)
	}
	sort.Slice(result.Assignments, func(i, j int) bool {
		return result.Assignments[i].Country < result.Assignments[j].Country
	})

	if len(points) < c.policy.KMin {
		// Not enough complete countries to form even the smallest partition.
		return result, nil
	}

	standardized := standardize(points)

	kMax := c.policy.KMax
	if kMax > len(points) {
		kMax = len(points)
	}

	bestK := 0
	bestScore := math.Inf(-1)
	var bestLabels []int
	var bestCentroids [][]float64

	for k := c.policy.KMin; k <= kMax; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rng := rand.New(rand.NewSource(c.policy.Seed + int64(k)))
		labels, centroids, converged := lloyd(standardized, k, c.policy.MaxIter, rng)
		if !converged {
			continue
		}
		score := meanSilhouette(standardized, labels, k)
		if score > bestScore {
			bestScore = score
			bestK = k
			bestLabels = labels
			bestCentroids = centroids
		}
	}

	if bestK == 0 {
		return nil, &NonConvergenceError{
			KMin: c.policy.KMin, KMax: kMax, MaxIter: c.policy.MaxIter,
		}
	}

	result.K = bestK
	result.Silhouette = bestScore
	result.Centroids = bestCentroids
	for i, country := range clustered {
		result.Assignments = append(result.Assignments, models.ClusterAssignment{
			Country:  country,
			Cluster:  bestLabels[i],
			Assigned: true,
		})
	}
	sort.Slice(result.Assignments, func(i, j int) bool {
		return result.Assignments[i].Country < result.Assignments[j].Country
	})
	return result, nil
}

func featureVector(rec models.IndicatorRecord, features []string) ([]float64, bool) {
	vec := make([]float64, len(features))
	for i, f := range features {
		var v models.Float
		switch f {
		case FeatureMedianAge:
			v = rec.MedianAge
		case FeatureFertilityRate:
			v = rec.FertilityRate
		case FeatureGrowthRate:
			v = rec.GrowthRate
		case FeatureTotalDependency:
			v = rec.TotalDependency
		default:
			return nil, false
		}
		if !v.Valid {
			return nil, false
		}
		vec[i] = v.Value
	}
	return vec, true
}

// standardize z-scores each feature column. A zero-variance column maps to
// zeros so it neither dominates nor divides by zero.
func standardize(points [][]float64) [][]float64 {
	n := len(points)
	dim := len(points[0])
	mean := make([]float64, dim)
	for _, p := range points {
		for j, v := range p {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(n)
	}
	std := make([]float64, dim)
	for _, p := range points {
		for j, v := range p {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / float64(n))
	}

	out := make([][]float64, n)
	for i, p := range points {
		row := make([]float64, dim)
		for j, v := range p {
			if std[j] > 0 {
				row[j] = (v - mean[j]) / std[j]
			}
		}
		out[i] = row
	}
	return out
}

// lloyd runs k-means++ seeding followed by Lloyd iterations. Converged
// means the assignment vector reached a fixed point within maxIter.
func lloyd(points [][]float64, k, maxIter int, rng *rand.Rand) (labels []int, centroids [][]float64, converged bool) {
	centroids = seedPlusPlus(points, k, rng)
	labels = make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			best := 0
			bestDist := sqDist(p, centroids[0])
			for j := 1; j < k; j++ {
				if d := sqDist(p, centroids[j]); d < bestDist {
					best = j
					bestDist = d
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			return labels, centroids, true
		}

		dim := len(points[0])
		sums := make([][]float64, k)
		counts := make([]int, k)
		for j := range sums {
			sums[j] = make([]float64, dim)
		}
		for i, p := range points {
			c := labels[i]
			counts[c]++
			for j, v := range p {
				sums[c][j] += v
			}
		}
		for j := 0; j < k; j++ {
			if counts[j] == 0 {
				// Re-seed an emptied centroid on the farthest point.
				centroids[j] = append([]float64(nil), farthestPoint(points, centroids)...)
				continue
			}
			for d := 0; d < dim; d++ {
				centroids[j][d] = sums[j][d] / float64(counts[j])
			}
		}
	}
	return labels, centroids, false
}

// seedPlusPlus picks initial centroids with squared-distance weighting.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := rng.Intn(len(points))
	centroids = append(centroids, append([]float64(nil), points[first]...))

	dists := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			d := math.Inf(1)
			for _, c := range centroids {
				if sd := sqDist(p, c); sd < d {
					d = sd
				}
			}
			dists[i] = d
			total += d
		}
		var next int
		if total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			for i, d := range dists {
				acc += d
				if acc >= target {
					next = i
					break
				}
			}
		} else {
			next = rng.Intn(len(points))
		}
		centroids = append(centroids, append([]float64(nil), points[next]...))
	}
	return centroids
}

func farthestPoint(points [][]float64, centroids [][]float64) []float64 {
	bestIdx := 0
	bestDist := -1.0
	for i, p := range points {
		d := math.Inf(1)
		for _, c := range centroids {
			if sd := sqDist(p, c); sd < d {
				d = sd
			}
		}
		if d > bestDist {
			bestDist = d
			bestIdx = i
		}
	}
	return points[bestIdx]
}

// meanSilhouette averages the silhouette coefficient over all points.
// A point alone in its cluster contributes zero.
func meanSilhouette(points [][]float64, labels []int, k int) float64 {
	n := len(points)
	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}

	total := 0.0
	for i, p := range points {
		own := labels[i]
		if counts[own] <= 1 {
			continue
		}
		sums := make([]float64, k)
		for j, q := range points {
			if j == i {
				continue
			}
			sums[labels[j]] += math.Sqrt(sqDist(p, q))
		}
		a := sums[own] / float64(counts[own]-1)
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own || counts[c] == 0 {
				continue
			}
			if m := sums[c] / float64(counts[c]); m < b {
				b = m
			}
		}
		if math.IsInf(b, 1) {
			continue
		}
		if max := math.Max(a, b); max > 0 {
			total += (b - a) / max
		}
	}
	return total / float64(n)
}

func sqDist(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}

package analysis

import (
	"errors"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"personal-insights/pkg/types"
)

const (
	// clusterMinPoints is the minimum category size for clustering
	clusterMinPoints = 5
	// clusterIterationCap bounds the K-means loop
	clusterIterationCap = 100
	// clusterConvergence is the centroid-movement stopping threshold
	clusterConvergence = 0.001
)

// ErrSeedRequired is returned when a cluster detector is constructed
// without an explicit RNG seed. Reproducible centroid initialization is
// part of the engine's contract, so there is no silent default.
var ErrSeedRequired = errors.New("cluster detector requires an explicit non-zero seed")

// ClusterDetector groups a category's events into behavioral clusters
// using K-means over normalized feature vectors, scored with the mean
// silhouette coefficient.
type ClusterDetector struct {
	k    int
	seed int64
}

// NewClusterDetector creates a cluster detector with k groups and a
// deterministic RNG seed.
func NewClusterDetector(k int, seed int64) (*ClusterDetector, error) {
	if seed == 0 {
		return nil, ErrSeedRequired
	}
	if k < 2 {
		k = 3
	}
	return &ClusterDetector{k: k, seed: seed}, nil
}

// Detect clusters one category's events. Returns nil when the category
// has fewer than five usable events. Degenerate inputs (duplicate
// points, empty clusters) never fail; the best centroids found within
// the iteration cap are returned.
func (cd *ClusterDetector) Detect(dataType types.DataType, events []*types.Event, vectors []*types.FeatureVector) *types.ClusterSet {
	points, kept := buildPoints(events, vectors)
	if len(points) < clusterMinPoints {
		return nil
	}

	k := cd.k
	if k > len(points) {
		k = len(points)
	}

	assignments := cd.kmeans(points, k)
	silhouette := silhouetteScore(points, assignments, k)

	set := &types.ClusterSet{
		DataType:   dataType,
		Clusters:   make([]types.Cluster, 0, k),
		Silhouette: silhouette,
	}

	for c := 0; c < k; c++ {
		cluster := summarizeCluster(c, assignments, kept, events, vectors)
		set.Clusters = append(set.Clusters, cluster)
	}

	return set
}

// buildPoints assembles one normalized vector per event: the event's
// normalized numeric features over the union of field names, plus
// hour-of-day/24 and day-of-week/7. Returns the points and the indices
// of the events they came from.
func buildPoints(events []*types.Event, vectors []*types.FeatureVector) ([][]float64, []int) {
	nameSet := make(map[string]struct{})
	for _, vec := range vectors {
		for _, nf := range vec.Numerical {
			nameSet[nf.Name] = struct{}{}
		}
	}
	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)

	points := make([][]float64, 0, len(events))
	kept := make([]int, 0, len(events))
	for i, vec := range vectors {
		if len(vec.Numerical) == 0 {
			continue
		}
		byName := make(map[string]float64, len(vec.Numerical))
		for _, nf := range vec.Numerical {
			byName[nf.Name] = nf.Normalized
		}
		point := make([]float64, 0, len(names)+2)
		for _, name := range names {
			point = append(point, byName[name])
		}
		point = append(point,
			float64(vec.Temporal.HourOfDay)/24.0,
			float64(vec.Temporal.DayOfWeek)/7.0,
		)
		points = append(points, point)
		kept = append(kept, i)
	}
	return points, kept
}

// kmeans runs Lloyd's algorithm with seeded initialization. Empty
// clusters keep their previous centroid rather than failing.
func (cd *ClusterDetector) kmeans(points [][]float64, k int) []int {
	rng := rand.New(rand.NewSource(cd.seed))
	dims := len(points[0])

	centroids := make([][]float64, k)
	for i, idx := range rng.Perm(len(points))[:k] {
		centroids[i] = append([]float64(nil), points[idx]...)
	}

	assignments := make([]int, len(points))
	for iter := 0; iter < clusterIterationCap; iter++ {
		for p, point := range points {
			assignments[p] = nearestCentroid(point, centroids)
		}

		movement := 0.0
		for c := 0; c < k; c++ {
			sum := make([]float64, dims)
			count := 0
			for p, a := range assignments {
				if a != c {
					continue
				}
				for d := 0; d < dims; d++ {
					sum[d] += points[p][d]
				}
				count++
			}
			if count == 0 {
				continue
			}
			next := make([]float64, dims)
			for d := 0; d < dims; d++ {
				next[d] = sum[d] / float64(count)
			}
			if shift := euclidean(centroids[c], next); shift > movement {
				movement = shift
			}
			centroids[c] = next
		}

		if movement < clusterConvergence {
			break
		}
	}
	return assignments
}

func nearestCentroid(point []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if d := euclidean(point, centroid); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// silhouetteScore is the mean of per-point (b-a)/max(a,b); singleton
// clusters and other NaN contributions count as 0.
func silhouetteScore(points [][]float64, assignments []int, k int) float64 {
	if len(points) == 0 || k < 2 {
		return 0
	}

	total := 0.0
	for p, point := range points {
		intraSum := 0.0
		intraCount := 0
		interMeans := make([]float64, 0, k-1)

		for c := 0; c < k; c++ {
			sum := 0.0
			count := 0
			for q, a := range assignments {
				if a != c || q == p {
					continue
				}
				sum += euclidean(point, points[q])
				count++
			}
			if c == assignments[p] {
				intraSum, intraCount = sum, count
			} else if count > 0 {
				interMeans = append(interMeans, sum/float64(count))
			}
		}

		if intraCount == 0 || len(interMeans) == 0 {
			continue // NaN contribution treated as 0
		}

		a := intraSum / float64(intraCount)
		b := math.Inf(1)
		for _, m := range interMeans {
			if m < b {
				b = m
			}
		}
		denom := math.Max(a, b)
		if denom == 0 {
			continue
		}
		total += (b - a) / denom
	}
	return total / float64(len(points))
}

func summarizeCluster(id int, assignments []int, kept []int, events []*types.Event, vectors []*types.FeatureVector) types.Cluster {
	memberIDs := []string{}
	values := []float64{}
	hourCounts := make(map[int]int)
	dowCounts := make(map[int]int)
	todCounts := make(map[types.TimeOfDay]int)
	sourceCounts := make(map[string]int)

	for p, a := range assignments {
		if a != id {
			continue
		}
		idx := kept[p]
		event := events[idx]
		vec := vectors[idx]

		memberIDs = append(memberIDs, event.ID)
		if v, ok := eventValue(event); ok {
			values = append(values, v)
		}
		hourCounts[vec.Temporal.HourOfDay]++
		dowCounts[vec.Temporal.DayOfWeek]++
		todCounts[vec.Temporal.TimeOfDay]++
		sourceCounts[event.Source]++
	}

	cluster := types.Cluster{
		ID:        id,
		Size:      len(memberIDs),
		MemberIDs: memberIDs,
	}

	if len(values) > 0 {
		mean, stdDev := stat.MeanStdDev(values, nil)
		if math.IsNaN(stdDev) {
			stdDev = 0
		}
		minV, maxV := values[0], values[0]
		for _, v := range values[1:] {
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}
		cluster.Center = types.ClusterCenter{Mean: mean, Min: minV, Max: maxV, StdDev: stdDev}
	}

	cluster.Characteristics = types.ClusterCharacteristics{
		DominantHourOfDay: dominantInt(hourCounts),
		DominantDayOfWeek: dominantInt(dowCounts),
		DominantTimeOfDay: string(dominantTimeOfDay(todCounts)),
		DominantSource:    dominantString(sourceCounts),
	}
	return cluster
}

// dominantInt picks the most frequent key, breaking ties on the lower
// key so summaries are deterministic.
func dominantInt(counts map[int]int) int {
	best, bestCount := 0, -1
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

func dominantString(counts map[string]int) string {
	best, bestCount := "", -1
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

func dominantTimeOfDay(counts map[types.TimeOfDay]int) types.TimeOfDay {
	asStrings := make(map[string]int, len(counts))
	for k, v := range counts {
		asStrings[string(k)] = v
	}
	return types.TimeOfDay(dominantString(asStrings))
}

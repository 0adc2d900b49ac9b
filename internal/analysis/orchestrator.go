package analysis

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"personal-insights/internal/logging"
	"personal-insights/pkg/types"
)

const (
	// trendEmitConfidence gates which trends appear in the result
	trendEmitConfidence = 0.7
	// recencyWindow is the lookback used for the data-quality score
	recencyWindow = 30 * 24 * time.Hour
	// volumeSaturation is the event count at which volume score hits 1
	volumeSaturation = 50
	// patternStrengthConstant is the fixed third component of the
	// overall confidence score
	patternStrengthConstant = 0.6
)

// Options configures an Orchestrator
type Options struct {
	// ClusterSeed must be non-zero; clustering has no implicit seed
	ClusterSeed int64
	// ClusterK defaults to 3
	ClusterK int
	// PredictionHorizon defaults to 7 one-day steps
	PredictionHorizon int
	// Workers > 1 enables per-category parallel fan-out
	Workers int
	// Logger defaults to a structured logger for the analysis component
	Logger logging.Logger
}

// Orchestrator composes the detectors into one batch analysis call.
// It holds no mutable state between calls; every invocation is a pure
// function of the supplied events and prior profile summary.
type Orchestrator struct {
	features     *FeatureExtractor
	trends       *TrendDetector
	cycles       *CycleDetector
	correlations *CorrelationDetector
	anomalies    *AnomalyDetector
	clusters     *ClusterDetector
	predictions  *PredictionEngine
	workers      int
	logger       logging.Logger
	now          func() time.Time
}

// NewOrchestrator wires the detectors together. It fails when the
// clustering seed is missing so non-reproducible runs cannot happen by
// accident.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	k := opts.ClusterK
	if k == 0 {
		k = 3
	}
	clusters, err := NewClusterDetector(k, opts.ClusterSeed)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger(logging.INFO).WithComponent("analysis")
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	return &Orchestrator{
		features:     NewFeatureExtractor(),
		trends:       NewTrendDetector(),
		cycles:       NewCycleDetector(),
		correlations: NewCorrelationDetector(),
		anomalies:    NewAnomalyDetector(),
		clusters:     clusters,
		predictions:  NewPredictionEngine(opts.PredictionHorizon),
		workers:      workers,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// categoryFindings collects one category's detector outputs before the
// deterministic merge. Each worker writes only its own entry.
type categoryFindings struct {
	trend      *types.Trend
	cycles     []types.Cycle
	anomalies  []types.Anomaly
	clusterSet *types.ClusterSet
	prediction *types.Prediction
}

// Analyze runs the full pipeline over one user's event batch. A nil
// batch is a structural caller error; an empty batch is valid and
// yields an empty result. Insufficient data inside any category
// degrades to "no finding" for that category, never to an error.
func (o *Orchestrator) Analyze(ctx context.Context, events []*types.Event, profile *types.ProfileSummary) (*types.AnalysisResult, error) {
	if events == nil {
		return nil, &types.InvalidBatchError{Reason: "nil event batch"}
	}

	result := types.NewAnalysisResult()
	result.EventCount = len(events)
	result.GeneratedAt = o.now().UTC()
	result.Profile = profile

	if len(events) == 0 {
		return result, nil
	}

	for _, event := range events {
		if !event.DataType.Valid() {
			return nil, &types.UnknownDataTypeError{DataType: event.DataType}
		}
	}

	grouped, vectors, err := o.prepare(events)
	if err != nil {
		return nil, err
	}

	categories := make([]types.DataType, 0, len(grouped))
	for dt := range grouped {
		categories = append(categories, dt)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	findings, err := o.fanOut(ctx, categories, grouped, vectors)
	if err != nil {
		return nil, err
	}

	for _, dt := range categories {
		f := findings[dt]
		if f.trend != nil && f.trend.Confidence > trendEmitConfidence {
			result.Trends = append(result.Trends, *f.trend)
		}
		result.Cycles = append(result.Cycles, f.cycles...)
		result.Anomalies = append(result.Anomalies, f.anomalies...)
		if f.clusterSet != nil {
			result.Clusters = append(result.Clusters, *f.clusterSet)
		}
		if f.prediction != nil {
			result.Predictions = append(result.Predictions, *f.prediction)
		}
	}

	result.Correlations = o.correlations.Detect(grouped)
	result.Confidence = o.overallConfidence(events, grouped)

	o.logger.DebugContext(ctx, "analysis complete",
		"events", len(events),
		"categories", len(categories),
		"trends", len(result.Trends),
		"anomalies", len(result.Anomalies),
		"confidence", result.Confidence,
	)

	return result, nil
}

// prepare extracts features for every event and groups events and
// vectors by category, each group sorted by timestamp.
func (o *Orchestrator) prepare(events []*types.Event) (map[types.DataType][]*types.Event, map[types.DataType][]*types.FeatureVector, error) {
	grouped := make(map[types.DataType][]*types.Event)
	vectors := make(map[types.DataType][]*types.FeatureVector)

	for _, event := range events {
		vec, err := o.features.Extract(event)
		if err != nil {
			return nil, nil, err
		}
		grouped[event.DataType] = append(grouped[event.DataType], event)
		vectors[event.DataType] = append(vectors[event.DataType], vec)
	}

	for dt := range grouped {
		evs, vecs := grouped[dt], vectors[dt]
		order := make([]int, len(evs))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return evs[order[a]].Timestamp < evs[order[b]].Timestamp })

		sortedEvents := make([]*types.Event, len(evs))
		sortedVectors := make([]*types.FeatureVector, len(evs))
		for i, idx := range order {
			sortedEvents[i] = evs[idx]
			sortedVectors[i] = vecs[idx]
		}
		grouped[dt], vectors[dt] = sortedEvents, sortedVectors
	}

	return grouped, vectors, nil
}

// fanOut runs the per-category detectors, in parallel when configured.
// Categories are independent: each worker reads only its own category's
// events and writes only its own findings entry.
func (o *Orchestrator) fanOut(ctx context.Context, categories []types.DataType, grouped map[types.DataType][]*types.Event, vectors map[types.DataType][]*types.FeatureVector) (map[types.DataType]*categoryFindings, error) {
	findings := make(map[types.DataType]*categoryFindings, len(categories))
	for _, dt := range categories {
		findings[dt] = &categoryFindings{}
	}

	if o.workers <= 1 || len(categories) <= 1 {
		for _, dt := range categories {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			o.analyzeCategory(dt, grouped[dt], vectors[dt], findings[dt])
		}
		return findings, nil
	}

	work := make(chan types.DataType)
	var wg sync.WaitGroup
	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for dt := range work {
				o.analyzeCategory(dt, grouped[dt], vectors[dt], findings[dt])
			}
		}()
	}

	var ctxErr error
	for _, dt := range categories {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}
		work <- dt
	}
	close(work)
	wg.Wait()

	if ctxErr != nil {
		return nil, ctxErr
	}
	return findings, nil
}

func (o *Orchestrator) analyzeCategory(dt types.DataType, events []*types.Event, vectors []*types.FeatureVector, out *categoryFindings) {
	out.trend = o.trends.Detect(dt, events)
	out.cycles = o.cycles.Detect(dt, events, vectors)
	out.anomalies = o.anomalies.Detect(dt, events, vectors)
	out.clusterSet = o.clusters.Detect(dt, events, vectors)

	if out.trend != nil {
		lastValue, lastTs := lastObservation(events)
		out.prediction = o.predictions.Predict(out.trend, lastValue, lastTs)
	}
}

func lastObservation(events []*types.Event) (float64, int64) {
	for i := len(events) - 1; i >= 0; i-- {
		if v, ok := eventValue(events[i]); ok {
			return v, events[i].Timestamp
		}
	}
	return 0, 0
}

// overallConfidence is the unweighted mean of a data-quality score, a
// data-volume score, and a fixed pattern-strength constant.
func (o *Orchestrator) overallConfidence(events []*types.Event, grouped map[types.DataType][]*types.Event) float64 {
	quality := o.dataQuality(events, grouped)
	volume := clamp01(float64(len(events)) / volumeSaturation)
	return clamp01((quality + volume + patternStrengthConstant) / 3)
}

// dataQuality blends recency, category variety, and value consistency
func (o *Orchestrator) dataQuality(events []*types.Event, grouped map[types.DataType][]*types.Event) float64 {
	cutoff := o.now().Add(-recencyWindow).UnixMilli()
	recent := 0
	for _, event := range events {
		if event.Timestamp >= cutoff {
			recent++
		}
	}
	recency := float64(recent) / float64(len(events))

	variety := float64(len(grouped)) / float64(len(types.AllDataTypes))

	consistencySum := 0.0
	consistencyCount := 0
	for _, categoryEvents := range grouped {
		values := make([]float64, 0, len(categoryEvents))
		for _, event := range categoryEvents {
			if v, ok := eventValue(event); ok {
				values = append(values, v)
			}
		}
		if len(values) < 2 {
			continue
		}
		mean, stdDev := stat.MeanStdDev(values, nil)
		if mean == 0 || math.IsNaN(stdDev) {
			continue
		}
		cv := math.Abs(stdDev / mean)
		consistencySum += math.Max(0, 1-cv)
		consistencyCount++
	}
	consistency := 0.0
	if consistencyCount > 0 {
		consistency = consistencySum / float64(consistencyCount)
	}

	return clamp01((recency + variety + consistency) / 3)
}

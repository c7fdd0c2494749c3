package fusion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/athapong/diagram-mcp/pkg/fusion/metrics"
)

// PromptMode selects which extraction the OCR service performs.
type PromptMode string

const (
	// ModeCoordinates asks for grounding output: text with bounding boxes.
	ModeCoordinates PromptMode = "coordinates"
	// ModeNarrative asks for a free-text description of the diagram.
	ModeNarrative PromptMode = "narrative"
)

// Extractor is the OCR/vision service boundary. The response is opaque
// raw text; the pipeline never inspects service internals.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mode PromptMode) (string, error)
}

// Stage identifies a pipeline state, also named by run failures.
type Stage string

const (
	StageIdle                  Stage = "idle"
	StageRequestingCoordinates Stage = "requesting_coordinates"
	StageRequestingLabels      Stage = "requesting_labels"
	StageMatching              Stage = "matching"
	StageClassifying           Stage = "classifying"
	StageConnectingEdges       Stage = "connecting_edges"
	StageAssemblingResult      Stage = "assembling_result"
	StageDone                  Stage = "done"
	StageFailed                Stage = "failed"
)

// RunError is a run-level failure with the failing stage identified.
// Only upstream service failures abort a run; malformed payload units
// degrade to warnings instead.
type RunError struct {
	Stage Stage
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("extraction failed at stage %s: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

const extractionMethod = "hybrid_grounding_narrative_fusion"

// Pipeline orchestrates one extraction run: two concurrent OCR requests,
// a join, then the synchronous fusion stages. Stateless between runs;
// concurrent runs over distinct images share nothing mutable.
type Pipeline struct {
	extractor Extractor
	matcher   *Matcher
	logger    *logrus.Logger
	timeout   time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTimeout bounds each OCR request with a deadline. On expiry the
// branch fails explicitly and the run transitions to Failed.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.timeout = d
	}
}

// WithLogger replaces the default JSON logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates a pipeline around the given OCR extractor.
func NewPipeline(extractor Extractor, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		matcher:   NewMatcher(),
		logger:    newLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one extraction against the image and returns the fused
// intermediate representation. Both upstream requests must succeed; a
// failure in either aborts the run with the failing stage identified.
func (p *Pipeline) Run(ctx context.Context, sourceImage string, image []byte) (*ExtractionResult, error) {
	runID := uuid.New().String()
	log := p.logger.WithFields(logrus.Fields{
		"run_id": runID,
		"image":  sourceImage,
	})
	log.Info("Starting extraction run")

	coordText, narrText, err := p.fetchBoth(ctx, image)
	if err != nil {
		log.WithError(err).Error("Extraction run failed")
		metrics.ExtractionRuns.WithLabelValues(string(StageFailed)).Inc()
		return nil, err
	}

	// Matching stage: parse both payloads, then fuse.
	timer := prometheus.NewTimer(metrics.StageDuration.WithLabelValues(string(StageMatching)))
	tokens, warnings := ParseCoordinates(coordText)
	labels := ExtractLabels(narrText)
	elements := p.matcher.Match(tokens, labels)
	timer.ObserveDuration()

	for _, w := range warnings {
		metrics.ParseWarnings.Inc()
		log.WithFields(logrus.Fields{
			"unit":   w.Unit,
			"reason": w.Reason,
		}).Warn("Skipped malformed grounding unit")
	}

	// Classifying stage.
	timer = prometheus.NewTimer(metrics.StageDuration.WithLabelValues(string(StageClassifying)))
	for i := range elements {
		elements[i].Type = InferType(&elements[i])
	}
	timer.ObserveDuration()

	// Ids exist before any connection can reference them.
	for i := range elements {
		elements[i].ID = fmt.Sprintf("element_%d", i+1)
		metrics.ElementsFused.WithLabelValues(string(elements[i].Method)).Inc()
	}

	// Connecting stage.
	timer = prometheus.NewTimer(metrics.StageDuration.WithLabelValues(string(StageConnectingEdges)))
	connections := ExtractConnections(narrText, elements)
	timer.ObserveDuration()

	for i := range connections {
		connections[i].ID = fmt.Sprintf("flow_%d", i+1)
		kind := "explicit"
		if connections[i].Inferred {
			kind = "inferred"
		}
		metrics.ConnectionsExtracted.WithLabelValues(kind).Inc()
	}

	result := &ExtractionResult{
		Elements:    elements,
		Connections: connections,
		Metadata: Metadata{
			SourceImage:      sourceImage,
			ExtractionMethod: extractionMethod,
			RunID:            runID,
			Timestamp:        time.Now().UTC(),
			StageCounts: StageCounts{
				Tokens:        len(tokens),
				Labels:        len(labels),
				Elements:      len(elements),
				Connections:   len(connections),
				ParseWarnings: len(warnings),
			},
			AverageConfidence: averageConfidence(elements),
		},
	}

	metrics.ExtractionRuns.WithLabelValues(string(StageDone)).Inc()
	log.WithFields(logrus.Fields{
		"elements":    len(elements),
		"connections": len(connections),
		"avg_conf":    result.Metadata.AverageConfidence,
	}).Info("Extraction run completed")

	return result, nil
}

// fetchBoth issues the coordinate-mode and narrative-mode requests
// concurrently and joins on both. The requests are independent and
// read-only; a single failure fails the join.
func (p *Pipeline) fetchBoth(ctx context.Context, image []byte) (string, string, error) {
	var coordText, narrText string

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		timer := prometheus.NewTimer(metrics.StageDuration.WithLabelValues(string(StageRequestingCoordinates)))
		defer timer.ObserveDuration()

		text, err := p.extract(gctx, image, ModeCoordinates)
		if err != nil {
			metrics.ServiceRequestErrors.WithLabelValues(string(ModeCoordinates)).Inc()
			return &RunError{Stage: StageRequestingCoordinates, Err: err}
		}
		coordText = text
		return nil
	})

	g.Go(func() error {
		timer := prometheus.NewTimer(metrics.StageDuration.WithLabelValues(string(StageRequestingLabels)))
		defer timer.ObserveDuration()

		text, err := p.extract(gctx, image, ModeNarrative)
		if err != nil {
			metrics.ServiceRequestErrors.WithLabelValues(string(ModeNarrative)).Inc()
			return &RunError{Stage: StageRequestingLabels, Err: err}
		}
		narrText = text
		return nil
	})

	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return coordText, narrText, nil
}

func (p *Pipeline) extract(ctx context.Context, image []byte, mode PromptMode) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.extractor.Extract(ctx, image, mode)
}

func averageConfidence(elements []FusedElement) float64 {
	if len(elements) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, e := range elements {
		sum += e.Confidence
	}
	return sum / float64(len(elements))
}

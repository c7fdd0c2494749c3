package fusion

import (
	"time"
)

// BBox is a pixel-space bounding box. Coordinates are non-negative and
// X1 > X0, Y1 > Y0 for every box that survives parsing.
type BBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the vertical extent of the box.
func (b BBox) Height() float64 {
	return b.Y1 - b.Y0
}

// Valid reports whether the box satisfies the coordinate invariants.
func (b BBox) Valid() bool {
	return b.X0 >= 0 && b.Y0 >= 0 && b.X1 > b.X0 && b.Y1 > b.Y0
}

// RawToken is a text fragment paired with its bounding box, produced by
// the coordinate-mode extraction. Immutable once parsed.
type RawToken struct {
	Text string `json:"text"`
	BBox BBox   `json:"bbox"`
}

// ShapeHint is a shape noun picked up near a label in the narrative
// description. Empty when the description gave no shape context.
type ShapeHint string

const (
	ShapeBox     ShapeHint = "box"
	ShapeCircle  ShapeHint = "circle"
	ShapeDiamond ShapeHint = "diamond"
)

// ExtractedLabel is a clean element name from the narrative description,
// enriched with optional shape and color evidence.
type ExtractedLabel struct {
	Text    string    `json:"text"`
	Shape   ShapeHint `json:"shape,omitempty"`
	Color   string    `json:"color,omitempty"`
	Context string    `json:"context,omitempty"`
}

// ElementType is the diagram element category a fused element resolves to.
type ElementType string

const (
	TypeTask    ElementType = "task"
	TypeEvent   ElementType = "event"
	TypeGateway ElementType = "gateway"
)

// MatchMethod records how a token was paired with its label.
type MatchMethod string

const (
	MatchDirect     MatchMethod = "direct"
	MatchPositional MatchMethod = "positional"
	MatchUnmatched  MatchMethod = "unmatched"
)

// FusedElement is one diagram element: a coordinate token fused with a
// narrative label. Every input token yields exactly one FusedElement,
// unmatched tokens included.
type FusedElement struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	BBox         BBox        `json:"bbox"`
	Type         ElementType `json:"type"`
	Color        string      `json:"color,omitempty"`
	Confidence   float64     `json:"confidence"`
	Method       MatchMethod `json:"matching_method"`
	OriginalText string      `json:"original_text"`
	ShapeHint    ShapeHint   `json:"shape_hint,omitempty"`
	Warning      bool        `json:"warning,omitempty"`
}

// Connection is a directed sequence flow between two fused elements.
// Source and target reference element ids within the same result.
type Connection struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	SourceID   string  `json:"source_id"`
	TargetID   string  `json:"target_id"`
	Confidence float64 `json:"confidence"`
	Inferred   bool    `json:"inferred"`
}

// ConnectionTypeFlow is the only connection type emitted today.
const ConnectionTypeFlow = "flow"

// StageCounts records per-stage item counts for traceability.
type StageCounts struct {
	Tokens        int `json:"tokens"`
	Labels        int `json:"labels"`
	Elements      int `json:"elements"`
	Connections   int `json:"connections"`
	ParseWarnings int `json:"parse_warnings"`
}

// Metadata describes one extraction run.
type Metadata struct {
	SourceImage       string      `json:"source_image"`
	ExtractionMethod  string      `json:"extraction_method"`
	RunID             string      `json:"run_id"`
	Timestamp         time.Time   `json:"timestamp"`
	StageCounts       StageCounts `json:"stage_counts"`
	AverageConfidence float64     `json:"average_confidence"`
}

// ExtractionResult is the terminal artifact of a run, consumed downstream
// by the diagram serializer. Immutable once returned.
type ExtractionResult struct {
	Elements    []FusedElement `json:"elements"`
	Connections []Connection   `json:"connections"`
	Metadata    Metadata       `json:"metadata"`
}

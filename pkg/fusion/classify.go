package fusion

import "strings"

const (
	// Near-square aspect ratio band for the geometric heuristic.
	squareRatioMin = 0.8
	squareRatioMax = 1.2
	// Near-square boxes narrower than this are taken for gateways.
	gatewayMaxWidth = 60.0
)

// typeRule is one independent predicate in the inference chain. Rules
// run in order and the chain stops at the first that fires, so new
// heuristics slot in without restructuring the existing ones.
type typeRule struct {
	name  string
	apply func(e *FusedElement) (ElementType, bool)
}

var typeRules = []typeRule{
	{"shape-hint", typeFromShapeHint},
	{"keyword", typeFromKeyword},
	{"geometry", typeFromGeometry},
}

var shapeTypes = map[ShapeHint]ElementType{
	ShapeBox:     TypeTask,
	ShapeCircle:  TypeEvent,
	ShapeDiamond: TypeGateway,
}

// typeKeywords are checked in order; the first vocabulary hit decides.
var typeKeywords = []struct {
	word string
	typ  ElementType
}{
	{"шлюз", TypeGateway},
	{"условие", TypeGateway},
	{"решение", TypeGateway},
	{"выбор", TypeGateway},
	{"gateway", TypeGateway},
	{"decision", TypeGateway},
	{"событие", TypeEvent},
	{"начало", TypeEvent},
	{"старт", TypeEvent},
	{"конец", TypeEvent},
	{"завершение", TypeEvent},
	{"event", TypeEvent},
	{"start", TypeEvent},
	{"end", TypeEvent},
	{"процесс", TypeTask},
	{"операция", TypeTask},
	{"задача", TypeTask},
	{"действие", TypeTask},
	{"process", TypeTask},
	{"task", TypeTask},
}

// InferType classifies an element through the rule chain: explicit shape
// hint, then name vocabulary, then bounding-box geometry, defaulting to
// Task.
func InferType(e *FusedElement) ElementType {
	for _, rule := range typeRules {
		if t, ok := rule.apply(e); ok {
			return t
		}
	}
	return TypeTask
}

func typeFromShapeHint(e *FusedElement) (ElementType, bool) {
	if t, ok := shapeTypes[e.ShapeHint]; ok {
		return t, true
	}
	return "", false
}

func typeFromKeyword(e *FusedElement) (ElementType, bool) {
	name := strings.ToLower(e.Name)
	for _, kw := range typeKeywords {
		if strings.Contains(name, kw.word) {
			return kw.typ, true
		}
	}
	return "", false
}

func typeFromGeometry(e *FusedElement) (ElementType, bool) {
	w, h := e.BBox.Width(), e.BBox.Height()
	if h <= 0 {
		return "", false
	}
	ratio := w / h
	if ratio < squareRatioMin || ratio > squareRatioMax {
		return "", false
	}
	if w < gatewayMaxWidth {
		return TypeGateway, true
	}
	return TypeEvent, true
}

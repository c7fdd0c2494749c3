package fusion

import (
	"regexp"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/jdkato/prose/v2"
	"github.com/sirupsen/logrus"
)

const (
	// ExplicitConnectionConfidence scores a "from X to Y" relation.
	ExplicitConnectionConfidence = 0.9
	// InferredConnectionConfidence scores a geometric-order fallback.
	InferredConnectionConfidence = 0.6
)

var (
	explicitRelationRe = regexp.MustCompile(`(?i)from\s+["«“]([^"«»“”]+)["»”]\s+to\s+["«“]([^"«»“”]+)["»”]`)
	bareRelationRe     = regexp.MustCompile(`(?i)from\s+([\p{L}\d_-]+)\s+to\s+([\p{L}\d_-]+)`)
)

// flowVocabulary marks a description as narrating a sequence even when
// no explicit relation phrase is present.
var flowVocabulary = mapset.NewSet[string](
	"then", "next", "after", "followed", "sequence", "sequential",
	"flow", "flows", "arrow", "arrows", "connects", "connected",
	"leads", "proceeds", "continues",
)

// ExtractConnections infers directed flows between fused elements from
// the narrative description. Explicit "from X to Y" phrases win; when
// none exist but the description uses sequence vocabulary, elements are
// chained left to right. Otherwise the result is empty; inference is
// never forced. Returned connections carry resolved element ids but no
// flow ids; those are assigned by the pipeline in emission order.
func ExtractConnections(description string, elements []FusedElement) []Connection {
	connections := make([]Connection, 0)
	if len(elements) == 0 {
		return connections
	}

	for _, sentence := range sentences(description) {
		for _, re := range []*regexp.Regexp{explicitRelationRe, bareRelationRe} {
			for _, m := range re.FindAllStringSubmatch(sentence, -1) {
				src, srcOK := elementByName(elements, m[1])
				dst, dstOK := elementByName(elements, m[2])
				if !srcOK || !dstOK || src.ID == dst.ID {
					continue
				}
				connections = append(connections, Connection{
					Type:       ConnectionTypeFlow,
					SourceID:   src.ID,
					TargetID:   dst.ID,
					Confidence: ExplicitConnectionConfidence,
					Inferred:   false,
				})
			}
		}
	}

	if len(connections) > 0 {
		return dedupe(connections)
	}

	if hasFlowVocabulary(description) && len(elements) >= 2 {
		ordered := make([]FusedElement, len(elements))
		copy(ordered, elements)
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].BBox.X0 < ordered[j].BBox.X0
		})

		for i := 0; i+1 < len(ordered); i++ {
			connections = append(connections, Connection{
				Type:       ConnectionTypeFlow,
				SourceID:   ordered[i].ID,
				TargetID:   ordered[i+1].ID,
				Confidence: InferredConnectionConfidence,
				Inferred:   true,
			})
		}

		newLogger().WithFields(logrus.Fields{
			"connections": len(connections),
		}).Debug("Connections inferred from geometric order")
	}

	return connections
}

// sentences segments the description so relation phrases are scanned
// one sentence at a time. Falls back to the whole description when
// segmentation fails.
func sentences(description string) []string {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil
	}

	doc, err := prose.NewDocument(description,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return []string{description}
	}

	segmented := doc.Sentences()
	if len(segmented) == 0 {
		return []string{description}
	}

	out := make([]string, 0, len(segmented))
	for _, s := range segmented {
		out = append(out, s.Text)
	}
	return out
}

func elementByName(elements []FusedElement, name string) (FusedElement, bool) {
	name = strings.TrimSpace(name)

	for _, e := range elements {
		if e.Name == name {
			return e, true
		}
	}
	for _, e := range elements {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return FusedElement{}, false
}

func hasFlowVocabulary(description string) bool {
	for _, word := range strings.Fields(strings.ToLower(description)) {
		word = strings.Trim(word, ".,;:!?()\"'")
		if flowVocabulary.Contains(word) {
			return true
		}
	}
	return false
}

func dedupe(connections []Connection) []Connection {
	seen := make(map[string]bool, len(connections))
	out := connections[:0]
	for _, c := range connections {
		key := c.SourceID + "->" + c.TargetID
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

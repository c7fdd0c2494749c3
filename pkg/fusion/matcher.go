package fusion

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/sirupsen/logrus"
)

const (
	// DirectMatchThreshold is the minimum similarity for a Pass A match.
	DirectMatchThreshold = 0.7
	// PositionalConfidence is fixed below any accepted direct match.
	PositionalConfidence = 0.5
	// UnmatchedConfidence marks residual tokens no label could explain.
	UnmatchedConfidence = 0.1
)

// Matcher aligns coordinate tokens with narrative labels. Stateless
// between calls; construct one per run or share freely.
type Matcher struct {
	threshold float64
	logger    *logrus.Logger
}

// NewMatcher returns a matcher with the default acceptance threshold.
func NewMatcher() *Matcher {
	return &Matcher{
		threshold: DirectMatchThreshold,
		logger:    newLogger(),
	}
}

// Match fuses tokens with labels in three passes: direct similarity
// matching, positional fallback when the leftover counts line up, and a
// residual pass that tags whatever remains as unmatched. Every input
// token yields exactly one element; no token is ever dropped. Output is
// deterministic: tokens are processed in input order and similarity ties
// go to the earliest still-unconsumed label.
func (m *Matcher) Match(tokens []RawToken, labels []ExtractedLabel) []FusedElement {
	elements := make([]FusedElement, 0, len(tokens))
	consumed := make([]bool, len(labels))
	var deferred []RawToken

	// Pass A: direct matching against normalization candidates.
	for _, tok := range tokens {
		variants := Normalize(tok.Text)

		bestScore := 0.0
		bestLabel := -1
		for li, label := range labels {
			if consumed[li] {
				continue
			}
			for _, v := range variants {
				// Strictly-greater keeps the earliest label on ties.
				if score := similarity(v, label.Text); score > bestScore {
					bestScore = score
					bestLabel = li
				}
			}
		}

		if bestLabel >= 0 && bestScore > m.threshold {
			consumed[bestLabel] = true
			label := labels[bestLabel]
			elements = append(elements, FusedElement{
				Name:         label.Text,
				BBox:         tok.BBox,
				Color:        label.Color,
				Confidence:   bestScore,
				Method:       MatchDirect,
				OriginalText: tok.Text,
				ShapeHint:    label.Shape,
			})
			continue
		}
		deferred = append(deferred, tok)
	}

	// Pass B: positional fallback. Equal leftover counts are a strong
	// signal that every deferred token has exactly one remaining label.
	var remaining []int
	for li := range labels {
		if !consumed[li] {
			remaining = append(remaining, li)
		}
	}

	if len(deferred) > 0 && len(deferred) == len(remaining) {
		sort.SliceStable(deferred, func(i, j int) bool {
			return deferred[i].BBox.Y0 < deferred[j].BBox.Y0
		})
		sort.SliceStable(remaining, func(i, j int) bool {
			return readingOrderKey(labels[remaining[i]].Text) < readingOrderKey(labels[remaining[j]].Text)
		})

		for i, tok := range deferred {
			label := labels[remaining[i]]
			elements = append(elements, FusedElement{
				Name:         label.Text,
				BBox:         tok.BBox,
				Color:        label.Color,
				Confidence:   PositionalConfidence,
				Method:       MatchPositional,
				OriginalText: tok.Text,
				ShapeHint:    label.Shape,
			})
		}
		deferred = nil
	}

	// Pass C: residual. Unmatched is a valid low-confidence outcome,
	// never an error.
	for _, tok := range deferred {
		elements = append(elements, FusedElement{
			Name:         "UNKNOWN_" + tok.Text,
			BBox:         tok.BBox,
			Confidence:   UnmatchedConfidence,
			Method:       MatchUnmatched,
			OriginalText: tok.Text,
			Warning:      true,
		})
	}

	m.logger.WithFields(logrus.Fields{
		"tokens":   len(tokens),
		"labels":   len(labels),
		"elements": len(elements),
	}).Debug("Element matching completed")

	return elements
}

// similarity scores two strings in [0,1]: 0 disjoint, 1 identical,
// case-insensitive. Twice the shared character count over the combined
// length, with the shared runs found by diff-match-patch.
func similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)

	common := 0
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			common += utf8.RuneCountInString(d.Text)
		}
	}
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	return 2 * float64(common) / float64(total)
}

var labelSuffixRe = regexp.MustCompile(`(\d+)\s*$`)

// readingOrderKey infers a label's reading order from its numeric
// suffix. Labels without one sort first, keeping their pool order.
func readingOrderKey(text string) int {
	if m := labelSuffixRe.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return 0
}

package fusion

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// Byte distance within which a shape noun or color adjective is tied to
// a quoted name.
const hintWindow = 80

var (
	quotedNameRe = regexp.MustCompile(`["«“]([^"«»“”]+)["»”]`)
	bilingualRe  = regexp.MustCompile(`["«“]([^"«»“”]+)["»”]\s*\(([^)]+)\)`)
	shapeNounRe  = regexp.MustCompile(`(?i)\b(box(?:es)?|rectangles?|squares?|circles?|ovals?|ellipses?|diamonds?|rhombus(?:es)?)\b`)
	colorRe      = regexp.MustCompile(`(?i)\b(yellow|green|red|blue|orange|purple|pink|brown|gray|grey|black|white)\b`)
)

var shapeNounHints = map[string]ShapeHint{
	"box": ShapeBox, "rectangle": ShapeBox, "square": ShapeBox,
	"circle": ShapeCircle, "oval": ShapeCircle, "ellipse": ShapeCircle,
	"diamond": ShapeDiamond, "rhombus": ShapeDiamond,
}

// ExtractLabels scans a narrative diagram description for quoted element
// names and their nearby shape and color evidence. Evidence is merged
// per distinct name in first-seen order. A description without quoted
// names yields an empty list; labels are never fabricated.
func ExtractLabels(description string) []ExtractedLabel {
	if strings.TrimSpace(description) == "" {
		return nil
	}

	quotes := quotedNameRe.FindAllStringSubmatchIndex(description, -1)
	if len(quotes) == 0 {
		return nil
	}

	shapes := findHints(description, shapeNounRe)
	colors := findHints(description, colorRe)
	translations := findTranslations(description)

	labels := make([]ExtractedLabel, 0, len(quotes))
	indexByText := make(map[string]int)

	for _, q := range quotes {
		text := strings.TrimSpace(description[q[2]:q[3]])
		if text == "" {
			continue
		}

		label := ExtractedLabel{Text: text}
		if hint, ok := nearestHint(shapes, q[0], q[1]); ok {
			label.Shape = shapeNounHints[singularShape(hint.word)]
		}
		if hint, ok := nearestHint(colors, q[0], q[1]); ok {
			label.Color = strings.ToLower(hint.word)
		}
		if ctx, ok := translations[text]; ok {
			label.Context = ctx
		}

		if idx, ok := indexByText[text]; ok {
			merge(&labels[idx], label)
			continue
		}
		indexByText[text] = len(labels)
		labels = append(labels, label)
	}

	newLogger().WithFields(logrus.Fields{
		"quotes": len(quotes),
		"labels": len(labels),
	}).Debug("Label extraction completed")

	return labels
}

type textHint struct {
	word  string
	start int
	end   int
}

func findHints(text string, re *regexp.Regexp) []textHint {
	hints := make([]textHint, 0)
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		hints = append(hints, textHint{
			word:  text[m[2]:m[3]],
			start: m[0],
			end:   m[1],
		})
	}
	return hints
}

// nearestHint picks the hint tied to a quoted span. A preceding hint
// wins over a following one ("a circle labeled \"Start\"" names the
// shape before the label), both bounded by the hint window.
func nearestHint(hints []textHint, start, end int) (textHint, bool) {
	best := textHint{}
	bestDist := hintWindow + 1
	found := false

	for _, h := range hints {
		if h.end > start {
			continue
		}
		if dist := start - h.end; dist < bestDist {
			bestDist = dist
			best = h
			found = true
		}
	}
	if found {
		return best, true
	}

	for _, h := range hints {
		if h.start < end {
			continue
		}
		if dist := h.start - end; dist < bestDist {
			bestDist = dist
			best = h
			found = true
		}
	}
	return best, found
}

func findTranslations(text string) map[string]string {
	translations := make(map[string]string)
	for _, m := range bilingualRe.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if _, exists := translations[name]; !exists {
			translations[name] = strings.TrimSpace(m[2])
		}
	}
	return translations
}

func merge(dst *ExtractedLabel, src ExtractedLabel) {
	if dst.Shape == "" {
		dst.Shape = src.Shape
	}
	if dst.Color == "" {
		dst.Color = src.Color
	}
	if dst.Context == "" {
		dst.Context = src.Context
	}
}

func singularShape(noun string) string {
	noun = strings.ToLower(noun)
	if _, ok := shapeNounHints[noun]; ok {
		return noun
	}
	switch noun {
	case "boxes":
		return "box"
	case "ellipses":
		return "ellipse"
	case "rhombuses":
		return "rhombus"
	}
	return strings.TrimSuffix(noun, "s")
}

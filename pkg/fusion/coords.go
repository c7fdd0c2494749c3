package fusion

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// ParseWarning records one malformed grounding unit that was skipped.
// A warning never aborts the pass; partial extraction always wins.
type ParseWarning struct {
	Unit   string `json:"unit"`
	Reason string `json:"reason"`
}

var (
	groundingUnitRe = regexp.MustCompile(`<\|ref\|>(.*?)<\|/ref\|><\|det\|>(.*?)<\|/det\|>`)
	numberRe        = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// ParseCoordinates scans a raw grounding-mode OCR blob for units of the
// form <|ref|>text<|/ref|><|det|>[[x0, y0, x1, y1]]<|/det|> and returns
// the tokens in document order. The detection span may carry the bracket
// form or the legacy (x0,y0),(x1,y1) form; any span with exactly four
// non-negative numbers is accepted. Malformed units are skipped and
// reported as warnings.
func ParseCoordinates(raw string) ([]RawToken, []ParseWarning) {
	tokens := make([]RawToken, 0)
	warnings := make([]ParseWarning, 0)
	logger := newLogger()

	for _, line := range strings.Split(raw, "\n") {
		if !strings.Contains(line, "<|ref|>") {
			continue
		}

		units := groundingUnitRe.FindAllStringSubmatch(line, -1)
		if len(units) == 0 {
			warnings = append(warnings, ParseWarning{
				Unit:   truncate(line, 120),
				Reason: "unbalanced grounding tags",
			})
			continue
		}

		for _, unit := range units {
			text := strings.TrimSpace(unit[1])
			det := unit[2]

			nums := numberRe.FindAllString(det, -1)
			if len(nums) != 4 {
				warnings = append(warnings, ParseWarning{
					Unit:   truncate(unit[0], 120),
					Reason: "expected 4 coordinates, got " + strconv.Itoa(len(nums)),
				})
				continue
			}

			coords := make([]float64, 4)
			ok := true
			for i, n := range nums {
				v, err := strconv.ParseFloat(n, 64)
				if err != nil {
					ok = false
					break
				}
				coords[i] = v
			}
			if !ok {
				warnings = append(warnings, ParseWarning{
					Unit:   truncate(unit[0], 120),
					Reason: "non-numeric coordinate",
				})
				continue
			}

			bbox := BBox{X0: coords[0], Y0: coords[1], X1: coords[2], Y1: coords[3]}
			if !bbox.Valid() {
				warnings = append(warnings, ParseWarning{
					Unit:   truncate(unit[0], 120),
					Reason: "degenerate bounding box",
				})
				continue
			}

			tokens = append(tokens, RawToken{Text: text, BBox: bbox})
		}
	}

	if len(warnings) > 0 {
		logger.WithFields(logrus.Fields{
			"tokens":   len(tokens),
			"warnings": len(warnings),
		}).Warn("Coordinate parsing skipped malformed units")
	}

	return tokens, warnings
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

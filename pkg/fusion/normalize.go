package fusion

import (
	"regexp"
	"strings"
	"unicode"
)

// lookalikeTable maps Latin glyphs that grounding OCR substitutes for
// visually similar Cyrillic ones. Static domain knowledge: each Latin
// glyph maps to exactly one Cyrillic glyph. Extending the table never
// touches matching logic.
var lookalikeTable = map[rune]rune{
	'A': 'А', 'B': 'В', 'C': 'С', 'E': 'Е', 'H': 'Н', 'K': 'К',
	'M': 'М', 'O': 'О', 'P': 'Р', 'T': 'Т', 'X': 'Х', 'Y': 'У',
	'a': 'а', 'b': 'ь', 'c': 'с', 'e': 'е', 'k': 'к', 'm': 'м',
	'n': 'п', 'o': 'о', 'p': 'р', 'r': 'г', 'u': 'и', 'x': 'х',
	'y': 'у',
}

var trailingDigitsRe = regexp.MustCompile(`^(.*?[^\d\s])(\d+)$`)

// Normalize produces the ordered candidate renderings of one corrupted
// token: the Cyrillic substitution of the raw text, a variant with a
// space inserted before a trailing digit run, and case variants of each.
// Pure function: identical input always yields the identical ordered
// list. Correctness of a candidate is judged by the matcher, not here.
func Normalize(token string) []string {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	mapped := applyLookalikes(token)

	base := []string{mapped}
	if spaced := spaceBeforeTrailingDigits(mapped); spaced != mapped {
		base = append(base, spaced)
	}

	variants := make([]string, 0, len(base)*4)
	seen := make(map[string]bool)
	push := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			variants = append(variants, s)
		}
	}

	for _, b := range base {
		push(b)
		push(strings.ToLower(b))
		push(capitalize(b))
		push(strings.ToUpper(b))
	}

	return variants
}

func applyLookalikes(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if mapped, ok := lookalikeTable[r]; ok {
			sb.WriteRune(mapped)
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func spaceBeforeTrailingDigits(s string) string {
	if m := trailingDigitsRe.FindStringSubmatch(s); m != nil {
		return m[1] + " " + m[2]
	}
	return s
}

func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

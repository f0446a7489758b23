package segmenter

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// maxHeadingLen bounds how long a line can be and still read as a
// heading rather than body text.
const maxHeadingLen = 80

// ordinalHeading matches "CHAPTER 7", "Part IV", "SECTION 2" style
// headings.
var ordinalHeading = regexp.MustCompile(`^(?:CHAPTER|Chapter|PART|Part|SECTION|Section)\s+(?:\d+|[IVXLC]+)\b`)

// HeadingStrategy detects chapter and section headings in books and
// manuscripts: short, isolated, heading-like lines surrounded by
// blank lines.
type HeadingStrategy struct{}

// NewHeadingStrategy creates the heading detection strategy.
func NewHeadingStrategy() *HeadingStrategy {
	return &HeadingStrategy{}
}

// Name identifies the strategy.
func (s *HeadingStrategy) Name() string {
	return "heading"
}

type headingBoundary struct {
	offset int
	kind   domain.UnitKind
	label  string
}

// Detect finds heading boundaries. Returns nil when fewer than two
// headings are found: a single "CHAPTER 1" with nothing after it is
// not structure worth splitting on.
func (s *HeadingStrategy) Detect(text string) []domain.StructuralUnit {
	lines := strings.Split(text, "\n")

	var boundaries []headingBoundary
	offset := 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(strings.ReplaceAll(line, "\f", ""))

		if s.isHeading(trimmed, i, lines) {
			kind := domain.UnitSection
			if ordinalHeading.MatchString(trimmed) {
				kind = domain.UnitChapter
			}
			boundaries = append(boundaries, headingBoundary{
				offset: offset,
				kind:   kind,
				label:  trimmed,
			})
		}

		offset += len(line) + 1
	}

	if len(boundaries) < 2 {
		return nil
	}

	units := make([]domain.StructuralUnit, 0, len(boundaries)+1)
	if boundaries[0].offset > 0 {
		units = append(units, domain.StructuralUnit{
			Kind:  domain.UnitNone,
			Start: 0,
			End:   boundaries[0].offset,
		})
	}
	for i, b := range boundaries {
		end := len(text)
		if i+1 < len(boundaries) {
			end = boundaries[i+1].offset
		}
		units = append(units, domain.StructuralUnit{
			Kind:  b.kind,
			Start: b.offset,
			End:   end,
			Label: b.label,
		})
	}

	return units
}

// isHeading applies the heading heuristics to one trimmed line given
// its neighbours: isolation (blank lines around), bounded length, and
// either an ordinal pattern or emphatic capitalisation.
func (s *HeadingStrategy) isHeading(trimmed string, i int, lines []string) bool {
	if trimmed == "" || len(trimmed) > maxHeadingLen {
		return false
	}

	blankAbove := i == 0 || strings.TrimSpace(strings.ReplaceAll(lines[i-1], "\f", "")) == ""
	blankBelow := i == len(lines)-1 || strings.TrimSpace(strings.ReplaceAll(lines[i+1], "\f", "")) == ""
	if !blankAbove || !blankBelow {
		return false
	}

	if ordinalHeading.MatchString(trimmed) {
		return true
	}

	// All-caps lines of some substance ("MONETARY POLICY AND GOLD").
	return len(trimmed) >= 10 && isAllCaps(trimmed)
}

// isAllCaps reports whether every letter in the string is uppercase.
func isAllCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

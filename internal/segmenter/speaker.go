package segmenter

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// speakerForms are the recognised speaker-turn line shapes, tried in
// order. Each form must recur at least minRecurrence times before any
// boundary from it is accepted; a single incidental match (a shouted
// word, a cited statute) is not a speaker.
var speakerForms = []struct {
	name    string
	pattern *regexp.Regexp
}{
	// "STATEMENT OF PAUL A. VOLCKER" opening a prepared statement.
	{"statement", regexp.MustCompile(`^STATEMENT OF ([A-Z][A-Z .,'-]+)$`)},
	// "The CHAIRMAN." / "Senator PROXMIRE." / "Mr. VOLCKER." etc.
	{"honorific", regexp.MustCompile(`^((?:The|Mr|Mrs|Ms|Dr|Senator|Representative|Secretary|Chairman)\.? [A-Z][A-Z'-]+)\.(?:\s|$)`)},
	// "SPEAKER A:" / "MR. SMITH:" name-colon transcripts.
	{"colon", regexp.MustCompile(`^([A-Z][A-Z .'-]{1,40}):(?:\s|$)`)},
}

const minRecurrence = 2

// SpeakerStrategy detects speaker-turn boundaries in hearing and
// interview transcripts.
type SpeakerStrategy struct{}

// NewSpeakerStrategy creates the speaker-turn detection strategy.
func NewSpeakerStrategy() *SpeakerStrategy {
	return &SpeakerStrategy{}
}

// Name identifies the strategy.
func (s *SpeakerStrategy) Name() string {
	return "speaker"
}

type speakerBoundary struct {
	offset int
	form   string
	label  string
}

// Detect finds recurring speaker-turn boundaries. Returns nil when
// fewer than two boundaries survive the recurrence guard.
func (s *SpeakerStrategy) Detect(text string) []domain.StructuralUnit {
	candidates := s.scan(text)

	// Count recurrences per form; drop forms that matched only once.
	formCounts := make(map[string]int)
	for _, c := range candidates {
		formCounts[c.form]++
	}
	boundaries := candidates[:0]
	for _, c := range candidates {
		if formCounts[c.form] >= minRecurrence {
			boundaries = append(boundaries, c)
		}
	}

	if len(boundaries) < 2 {
		return nil
	}

	units := make([]domain.StructuralUnit, 0, len(boundaries)+1)

	// Anything before the first speaker (title page, preamble) is an
	// unlabelled unit.
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
			Kind:  domain.UnitSpeakerTurn,
			Start: b.offset,
			End:   end,
			Label: b.label,
		})
	}

	return units
}

// scan walks the text line by line collecting candidate boundaries.
func (s *SpeakerStrategy) scan(text string) []speakerBoundary {
	var candidates []speakerBoundary

	offset := 0
	for _, line := range strings.Split(text, "\n") {
		// Page breaks embedded in extracted text are not part of the
		// speaker line shape.
		trimmed := strings.TrimLeft(line, "\f ")
		lead := len(line) - len(trimmed)

		for _, form := range speakerForms {
			m := form.pattern.FindStringSubmatch(trimmed)
			if m == nil {
				continue
			}
			candidates = append(candidates, speakerBoundary{
				offset: offset + lead,
				form:   form.name,
				label:  strings.TrimSpace(m[1]),
			})
			break
		}

		offset += len(line) + 1
	}

	return candidates
}

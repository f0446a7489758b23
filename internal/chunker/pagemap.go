package chunker

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// printedPageNumber matches a bare page number on a line of its own,
// the usual header of scanned government documents.
var printedPageNumber = regexp.MustCompile(`^\d{1,5}$`)

// minDetectionRatio is the fraction of pages that must carry a
// detectable printed number before the mapping is trusted.
const minDetectionRatio = 0.3

// buildPrintedPageMap detects printed page numbers from the first
// line of each physical page and interpolates a physical -> printed
// mapping. Returns nil when too few pages carry a number, in which
// case citations fall back to physical page numbers.
func buildPrintedPageMap(doc *domain.ExtractedDocument) map[int]int {
	if doc.PageCount <= 1 || !strings.Contains(doc.Text, "\f") {
		return nil
	}
	pages := strings.Split(doc.Text, "\f")

	detected := make(map[int]int)
	for i, pageText := range pages {
		first := firstNonEmptyLine(pageText)
		if printedPageNumber.MatchString(first) {
			if n, err := strconv.Atoi(first); err == nil {
				detected[i+1] = n
			}
		}
	}

	total := len(pages)
	if float64(len(detected))/float64(total) < minDetectionRatio {
		return nil
	}

	// Sorted for deterministic nearest-neighbour interpolation.
	detectedPages := make([]int, 0, len(detected))
	for p := range detected {
		detectedPages = append(detectedPages, p)
	}
	sort.Ints(detectedPages)

	pageMap := make(map[int]int, total)
	for physical := 1; physical <= total; physical++ {
		if printed, ok := detected[physical]; ok {
			pageMap[physical] = printed
			continue
		}
		// Interpolate from the nearest detected page's offset.
		bestDist := total + 1
		bestOffset := 0
		for _, detPhysical := range detectedPages {
			dist := detPhysical - physical
			if dist < 0 {
				dist = -dist
			}
			if dist < bestDist {
				bestDist = dist
				bestOffset = detPhysical - detected[detPhysical]
			}
		}
		printed := physical - bestOffset
		if printed < 1 {
			printed = 1
		}
		pageMap[physical] = printed
	}

	return pageMap
}

// translatePage maps a physical page through the printed-page map,
// passing it through unchanged when no mapping exists.
func translatePage(pageMap map[int]int, physical int) int {
	if pageMap == nil {
		return physical
	}
	if printed, ok := pageMap[physical]; ok {
		return printed
	}
	return physical
}

// firstNonEmptyLine returns the first non-blank trimmed line.
func firstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}

package segmenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

func TestHeadingStrategy_OrdinalChapters(t *testing.T) {
	text := "CHAPTER 1\n\nThe Federal Reserve was founded in 1913.\n\n" +
		"CHAPTER 2\n\nThe gold standard did not survive the depression.\n"

	units := NewHeadingStrategy().Detect(text)

	require.Len(t, units, 2)
	assert.Equal(t, domain.UnitChapter, units[0].Kind)
	assert.Equal(t, "CHAPTER 1", units[0].Label)
	assert.Equal(t, "CHAPTER 2", units[1].Label)
}

func TestHeadingStrategy_AllCapsSections(t *testing.T) {
	text := "Some front matter first.\n\n" +
		"THE MONEY QUESTION\n\nBody of the first section.\n\n" +
		"THE GOLD QUESTION\n\nBody of the second section.\n"

	units := NewHeadingStrategy().Detect(text)

	require.Len(t, units, 3)
	assert.Equal(t, domain.UnitNone, units[0].Kind)
	assert.Equal(t, domain.UnitSection, units[1].Kind)
	assert.Equal(t, "THE MONEY QUESTION", units[1].Label)
	assert.Equal(t, domain.UnitSection, units[2].Kind)
}

func TestHeadingStrategy_IsolationRequired(t *testing.T) {
	// An all-caps line inside running text is not a heading.
	text := "The act cited as the FEDERAL RESERVE ACT AMENDMENT\ncontinues here.\n" +
		"More prose follows on the next line without any break.\n"

	units := NewHeadingStrategy().Detect(text)

	assert.Nil(t, units)
}

func TestHeadingStrategy_SingleHeadingRejected(t *testing.T) {
	text := "CHAPTER 1\n\nA lone chapter heading does not make structure.\n"

	units := NewHeadingStrategy().Detect(text)

	assert.Nil(t, units)
}

func TestHeadingStrategy_LongLinesRejected(t *testing.T) {
	long := "PROCEEDINGS OF THE NINETY-SIXTH CONGRESS FIRST SESSION ON THE NOMINATION OF THE CHAIRMAN DESIGNATE"
	text := long + "\n\nbody\n\n" + long + "\n\nbody again\n"

	units := NewHeadingStrategy().Detect(text)

	assert.Nil(t, units)
}

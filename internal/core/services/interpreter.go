package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// TopK bounds for parsed queries.
const (
	DefaultTopK = 10
	MaxTopK     = 20
)

// filterPattern matches shorthand filter tokens anywhere in the query
// string. Values may be bare words or quoted phrases; a leading = on
// the value requests exact matching.
var filterPattern = regexp.MustCompile(`\b(type|by|tag|in|collection|from|to|top):(=?)("[^"]*"|'[^']*'|\S+)`)

// Interpreter turns a raw query string into semantic text plus
// structured filters. Filter tokens are lifted out of the text; what
// remains is what gets embedded.
type Interpreter struct{}

// NewInterpreter creates a query interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// Parse extracts shorthand filters from query and returns the parsed
// form. A query that is only filters keeps empty text; the caller
// decides whether that makes a valid search. Malformed values return
// ErrMalformedFilter.
func (p *Interpreter) Parse(query string) (domain.ParsedQuery, error) {
	parsed := domain.ParsedQuery{TopK: DefaultTopK}

	var parseErr error
	remainder := filterPattern.ReplaceAllStringFunc(query, func(token string) string {
		groups := filterPattern.FindStringSubmatch(token)
		key, exact, value := groups[1], groups[2], groups[3]
		value = unquote(value)
		if value == "" {
			parseErr = fmt.Errorf("%w: empty value for %q", domain.ErrMalformedFilter, key)
			return ""
		}
		if exact == "=" {
			value = "=" + value
		}

		switch key {
		case "type":
			parsed.Filters.ItemType = value
		case "by":
			parsed.Filters.Author = value
		case "tag":
			parsed.Filters.Tag = value
		case "collection":
			parsed.Filters.Collection = value
		case "in":
			parsed.Filters.Archive = value
		case "from":
			normalised, err := normaliseDate(value, false)
			if err != nil {
				parseErr = err
				return ""
			}
			parsed.Filters.DateFrom = normalised
		case "to":
			normalised, err := normaliseDate(value, true)
			if err != nil {
				parseErr = err
				return ""
			}
			parsed.Filters.DateTo = normalised
		case "top":
			n, err := strconv.Atoi(strings.TrimPrefix(value, "="))
			if err != nil {
				// Not a number: treat the token as ordinary
				// query text rather than failing the search.
				return token
			}
			parsed.TopK = clampTopK(n)
		}
		return ""
	})
	if parseErr != nil {
		return domain.ParsedQuery{}, parseErr
	}

	parsed.Text = strings.Join(strings.Fields(remainder), " ")
	return parsed, nil
}

func clampTopK(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxTopK {
		return MaxTopK
	}
	return n
}

func unquote(value string) string {
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

// datePattern accepts YYYY, YYYY-MM or YYYY-MM-DD.
var datePattern = regexp.MustCompile(`^(\d{4})(?:-(\d{2})(?:-(\d{2}))?)?$`)

// normaliseDate pads a partial date to a full YYYY-MM-DD bound so
// range checks reduce to lexicographic comparison. from bounds pad
// low, to bounds pad high.
func normaliseDate(value string, upper bool) (string, error) {
	value = strings.TrimPrefix(value, "=")
	groups := datePattern.FindStringSubmatch(value)
	if groups == nil {
		return "", fmt.Errorf("%w: date %q, expected YYYY[-MM[-DD]]", domain.ErrMalformedFilter, value)
	}
	year, month, day := groups[1], groups[2], groups[3]
	if month == "" {
		if upper {
			month = "12"
		} else {
			month = "01"
		}
	}
	if day == "" {
		if upper {
			day = "31"
		} else {
			day = "01"
		}
	}
	return year + "-" + month + "-" + day, nil
}

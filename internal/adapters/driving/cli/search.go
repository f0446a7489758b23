package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

var searchJSON bool

var (
	ordinalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	metaStyle    = lipgloss.NewStyle().Faint(true)
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the indexed library",
	Long: `Answers a natural-language query against the indexed library.

Inline filters narrow the search:
  type:hearing        item type (applied in the vector store)
  by:volcker          author substring; by:="Paul Volcker" for exact
  tag:inflation       tag
  collection:speeches collection name
  in:fraser           archive, acronym aliases resolve automatically
  from:1971 to:1973   date range (YYYY, YYYY-MM or YYYY-MM-DD)
  top:5               result count (1-20, default 10)

Example: corpus search 'type:hearing by:Volcker top:5 interest rate policy'`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	closer, err := wireServices()
	if err != nil {
		return err
	}
	defer closer.Close()

	if searchService == nil {
		return errors.New("search service not configured")
	}

	citations, err := searchService.Search(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(citations, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printCitations(cmd, citations)
	return nil
}

func printCitations(cmd *cobra.Command, citations []domain.Citation) {
	if len(citations) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println()
	for _, c := range citations {
		title := c.Meta.Title
		if title == "" {
			title = c.Meta.ItemKey
		}
		cmd.Printf("%s %s\n",
			ordinalStyle.Render(fmt.Sprintf("[%d]", c.Ordinal)),
			titleStyle.Render(title))

		var parts []string
		if len(c.Meta.Authors) > 0 {
			parts = append(parts, strings.Join(c.Meta.Authors, "; "))
		}
		if c.Meta.Date != "" {
			parts = append(parts, c.Meta.Date)
		}
		if c.Meta.PageStart > 0 {
			if c.Meta.PageEnd > c.Meta.PageStart {
				parts = append(parts, fmt.Sprintf("pp. %d-%d", c.Meta.PageStart, c.Meta.PageEnd))
			} else {
				parts = append(parts, fmt.Sprintf("p. %d", c.Meta.PageStart))
			}
		}
		if c.Meta.UnitLabel != "" {
			parts = append(parts, c.Meta.UnitLabel)
		}
		parts = append(parts, fmt.Sprintf("score %.3f", c.Score))
		cmd.Printf("    %s\n", metaStyle.Render(strings.Join(parts, " · ")))

		if snippet := snippetOf(c.Meta.Text); snippet != "" {
			cmd.Printf("    %s\n", snippet)
		}
		cmd.Println()
	}
}

const snippetLimit = 240

// snippetOf flattens a chunk to a single truncated line.
func snippetOf(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	if len(flat) > snippetLimit {
		flat = flat[:snippetLimit] + "..."
	}
	return flat
}

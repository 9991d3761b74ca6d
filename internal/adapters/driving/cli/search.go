package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

var (
	searchLimit    int
	searchJSON     bool
	searchPipeline string
	searchModel    string
)

// snippetLength bounds the passage text shown per result.
const snippetLength = 240

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search passages by meaning",
	Long: `Embeds the query and returns the passages with the highest cosine
similarity, optionally restricted to one pipeline.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringVarP(&searchPipeline, "pipeline", "p", "", "restrict results to one pipeline")
	searchCmd.Flags().StringVarP(&searchModel, "model", "m", "", "embedding model for the query")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	results, err := searchService.Search(context.Background(), domain.SearchRequest{
		Query:      args[0],
		PipelineID: searchPipeline,
		Limit:      searchLimit,
		Model:      searchModel,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	if results == nil {
		results = []domain.SearchResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		r := &results[i]
		name := r.DocumentName
		if name == "" {
			name = r.DocumentID
		}

		cmd.Printf("  [%d] %s (%.3f)\n", i+1, styles.Label.Render(name), r.Score)
		cmd.Printf("      %s\n", snippet(r.Content, snippetLength))
		cmd.Println()
	}
	return nil
}

// snippet collapses whitespace and truncates text to at most n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docchat/config"
	"docchat/internal/domain"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
	queryDeep bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the corpus",
	Long: `Search for relevant passages using embedding search with HyDE query
expansion and MMR re-ranking.

Examples:
  docchat query -q "refund policy"
  docchat query -q "onboarding checklist" --top-k 5 --json
  docchat query -q "error budgets" --deep`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().BoolVar(&queryDeep, "deep", false, "ground the hypothetical answer on a preliminary search pass")
	queryCmd.MarkFlagRequired("query")
}

// queryRetrieveConfig returns a copy of the loaded retrieval settings
// with the --top-k flag applied. The loaded config is never mutated.
func queryRetrieveConfig() config.RetrieveConfig {
	rc := cfg.Retrieve
	if queryTopK > 0 {
		rc.TopK = queryTopK
	}
	return rc
}

type passageResult struct {
	Document string  `json:"document"`
	Score    float64 `json:"score"`
	Content  string  `json:"content"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	docs, vectors, err := openCorpus(false)
	if err != nil {
		return err
	}
	defer docs.Close()

	retrieveUC, err := newRetrieval(docs, vectors, queryRetrieveConfig())
	if err != nil {
		return err
	}

	events := make(chan domain.ProgressEvent, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if !queryJSON {
				fmt.Fprintf(os.Stderr, "... %s\n", ev.Stage)
			}
		}
	}()

	passages, err := retrieveUC.Retrieve(cmd.Context(), queryText, nil, queryDeep, events)
	close(events)
	<-done
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if queryJSON {
		results := make([]passageResult, len(passages))
		for i, p := range passages {
			results[i] = passageResult{Document: p.DocName, Score: p.Similarity, Content: p.Content}
		}
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(passages) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results for: %s\n\n", len(passages), queryText)
	for i, p := range passages {
		fmt.Printf("--- [%d] %s (score: %.2f) ---\n", i+1, p.DocName, p.Similarity)
		text := p.Content
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		fmt.Println(text)
		fmt.Println()
	}

	return nil
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

var (
	retrieveTopK    int
	retrieveJSON    bool
	retrieveContext bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Retrieve knowledge base context for a question",
	Long: `Embeds the question, queries the vector index and packs the closest
chunks into the context budget with numbered citations.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", 0, "number of chunks to fetch (default from settings)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output the result as JSON")
	retrieveCmd.Flags().BoolVar(&retrieveContext, "context", false, "print the rendered context block only")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	retriever, err := getRetriever(cmd.Context())
	if err != nil {
		return fmt.Errorf("retriever not available: %w", err)
	}

	result := retriever.RetrieveContext(cmd.Context(), query, retrieveTopK)

	switch {
	case retrieveJSON:
		if result.Chunks == nil {
			result.Chunks = []domain.RetrievedChunk{}
		}
		return printJSON(cmd, result)
	case retrieveContext:
		_, err := fmt.Fprintln(cmd.OutOrStdout(), result.Context)
		return err
	}

	return outputRetrieval(cmd, result)
}

func outputRetrieval(cmd *cobra.Command, result domain.RetrievalResult) error {
	if len(result.Chunks) == 0 {
		cmd.Println("No matching passages found.")
		return nil
	}

	cmd.Println(headingStyle.Render(fmt.Sprintf("%d passages", len(result.Chunks))))
	cmd.Println()
	for i, c := range result.Chunks {
		label := c.Label()
		if c.Chunk != nil {
			label = fmt.Sprintf("%s (chunk %d)", label, *c.Chunk)
		}
		cmd.Printf("%s %s %s\n",
			citationStyle.Render(fmt.Sprintf("[%d]", i+1)),
			label,
			mutedStyle.Render(fmt.Sprintf("%.3f", c.Score)))
		if c.Source != "" && c.Source != c.Label() {
			cmd.Printf("    %s\n", mutedStyle.Render(c.Source))
		}
		cmd.Printf("    %s\n", truncate(strings.Join(strings.Fields(c.Text), " "), 200))
		cmd.Println()
	}
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"docchat/internal/adapter/chunker"
	"docchat/internal/adapter/embedding"
	"docchat/internal/usecase"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage corpus documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	RunE:  runDocsList,
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete <doc-id>",
	Short: "Delete a document and its chunks and vectors",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsDelete,
}

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsDeleteCmd)
}

func runDocsList(cmd *cobra.Command, args []string) error {
	docs, _, err := openCorpus(false)
	if err != nil {
		return err
	}
	defer docs.Close()

	listed, err := docs.ListDocs()
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(listed) == 0 {
		fmt.Println("The corpus is empty.")
		return nil
	}

	fmt.Printf("%-36s  %-10s  %-19s  %s\n", "ID", "SIZE", "INGESTED", "NAME")
	for _, doc := range listed {
		fmt.Printf("%-36s  %-10s  %-19s  %s\n",
			doc.ID,
			formatBytes(doc.ByteSize),
			doc.CreatedAt.Format("2006-01-02 15:04:05"),
			doc.Name,
		)
	}
	fmt.Printf("\n%d documents\n", len(listed))
	return nil
}

func runDocsDelete(cmd *cobra.Command, args []string) error {
	docs, vectors, err := openCorpus(false)
	if err != nil {
		return err
	}
	defer docs.Close()

	// The delete path never chunks or embeds; cheap placeholders keep
	// the use case constructor satisfied without touching a provider.
	split, err := chunker.NewRecursiveChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	if err != nil {
		return err
	}
	ingestUC := usecase.NewIngestUseCase(docs, vectors, split, embedding.NewMockEmbedder(cfg.Embedding.Dimension), cfg.Embedding.BatchSize, log)

	docID := args[0]
	doc, err := docs.GetDoc(docID)
	if err != nil {
		return fmt.Errorf("document not found: %w", err)
	}

	if err := ingestUC.DeleteDocument(docID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	fmt.Printf("Deleted %s (%s)\n", doc.Name, docID)
	return nil
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

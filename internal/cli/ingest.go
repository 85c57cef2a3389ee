package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docchat/internal/adapter/chunker"
	"docchat/internal/adapter/fs"
	"docchat/internal/usecase"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest documents into the corpus",
	Long: `Ingest files or directories into the corpus. Directories are walked with
the configured include/exclude patterns; documents whose content is
already in the corpus are skipped. The corpus is stored in
.docchat/index.db within the corpus directory.

Examples:
  docchat ingest ./docs              # Ingest a directory
  docchat ingest notes.md faq.txt    # Ingest individual files`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	docs, vectors, err := openCorpus(true)
	if err != nil {
		return err
	}
	defer docs.Close()

	embedder, err := newEmbedder()
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	split, err := chunker.NewRecursiveChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	if err != nil {
		return err
	}

	ingestUC := usecase.NewIngestUseCase(docs, vectors, split, embedder, cfg.Embedding.BatchSize, log)

	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No matching files found.")
		return nil
	}

	fmt.Printf("Ingesting %d files...\n", len(files))

	var ingested, duplicates, chunks int
	var failures []string

	for _, file := range files {
		content, err := os.ReadFile(file.Path)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", file.Path, err))
			continue
		}

		name := displayName(file.Path)
		bar := newEmbedBar(name)

		result, err := ingestUC.Ingest(cmd.Context(), name, mediaTypeFor(file.Path), string(content), func(done, total int) {
			bar.ChangeMax(total)
			bar.Set(done)
		})
		_ = bar.Finish()
		fmt.Println()
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", file.Path, err))
			continue
		}

		if result.Duplicate {
			duplicates++
			continue
		}
		ingested++
		chunks += result.ChunksCreated
	}

	if err := docs.SetFingerprint(indexSettings()); err != nil {
		return fmt.Errorf("failed to record corpus settings: %w", err)
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Documents added:   %d\n", ingested)
	fmt.Printf("  Duplicates skipped: %d\n", duplicates)
	fmt.Printf("  Chunks created:    %d\n", chunks)

	if len(failures) > 0 {
		fmt.Printf("\nFailures:\n")
		for _, f := range failures {
			fmt.Printf("  - %s\n", f)
		}
	}

	return nil
}

// collectFiles expands the path arguments: directories are walked with
// the configured patterns, plain files are taken as-is.
func collectFiles(paths []string) ([]fs.FileInfo, error) {
	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)

	var files []fs.FileInfo
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("invalid path %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("path does not exist: %w", err)
		}

		if info.IsDir() {
			walked, err := walker.Walk(abs)
			if err != nil {
				return nil, fmt.Errorf("failed to walk %s: %w", abs, err)
			}
			files = append(files, walked...)
			continue
		}
		files = append(files, fs.FileInfo{Path: abs, Size: info.Size()})
	}
	return files, nil
}

func displayName(path string) string {
	rel, err := filepath.Rel(rootDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(path)
	}
	return rel
}

func mediaTypeFor(path string) string {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".md":
		return "text/markdown"
	case ".txt", "":
		return "text/plain"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return "text/plain"
	}
}

func newEmbedBar(name string) *progressbar.ProgressBar {
	return progressbar.NewOptions(1,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]Embedding[reset] %s", name)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driving"
	"github.com/custodia-labs/policyrag/internal/logger"
)

var (
	ingestBatchSize       int
	ingestContinueOnError bool
	ingestTitle           string
	ingestWatch           bool
	ingestDebounce        time.Duration
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest documents into the knowledge base",
	Long: `Chunks, embeds and upserts documents into the vector index.
Directories are walked for supported files (text, Markdown, PDF, DOCX and
similar). Chunk IDs are derived from the source path, so re-ingesting a file
overwrites its earlier chunks.

With --watch the command keeps running and re-ingests files when they change.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 0, "chunks embedded and upserted per batch (default from settings)")
	ingestCmd.Flags().BoolVar(&ingestContinueOnError, "continue-on-error", false, "skip batches that fail after retries")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "citation title stored with every chunk")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "re-ingest files when they change")
	ingestCmd.Flags().DurationVar(&ingestDebounce, "debounce", 500*time.Millisecond, "quiet period before a changed file is re-ingested")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 && !ingestWatch {
		return errors.New("no supported files found")
	}

	progress := newProgressPrinter(cmd.ErrOrStderr())
	ingest, err := getIngest(cmd.Context(), ingestOptions{
		batchSize:       ingestBatchSize,
		continueOnError: ingestContinueOnError,
		title:           ingestTitle,
		progress:        progress.update,
	})
	if err != nil {
		return fmt.Errorf("ingest not available: %w", err)
	}

	var total domain.IngestReport
	for _, path := range files {
		report, err := ingestOne(cmd, ingest, path)
		progress.done()
		if err != nil {
			return err
		}
		total.Chunks += report.Chunks
		total.Batches += report.Batches
		total.FailedBatches += report.FailedBatches
	}

	if len(files) > 1 {
		cmd.Println(headingStyle.Render(fmt.Sprintf("Ingested %d files: %d chunks in %d batches", len(files), total.Chunks, total.Batches)))
	}
	if total.FailedBatches > 0 {
		cmd.Println(failStyle.Render(fmt.Sprintf("%d batches failed and were skipped", total.FailedBatches)))
	}

	if !ingestWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Println(mutedStyle.Render("Watching for changes, press Ctrl+C to stop"))
	return watchFiles(ctx, args, ingestDebounce, func(path string) {
		if _, err := ingestOne(cmd, ingest, path); err != nil {
			logger.Error("%v", err)
		}
		progress.done()
	})
}

func ingestOne(cmd *cobra.Command, ingest driving.IngestService, path string) (domain.IngestReport, error) {
	logger.Section("Ingest " + path)
	report, err := ingest.IngestFile(cmd.Context(), path)
	if err != nil {
		return report, fmt.Errorf("ingest %s: %w", path, err)
	}
	cmd.Printf("%s %s: %d chunks in %d batches\n", okStyle.Render("✓"), path, report.Chunks, report.Batches)
	return report, nil
}

// collectFiles expands directories into the supported files they contain.
// Hidden files and directories are skipped.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != arg && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() && isSupportedFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}
	return files, nil
}

func isSupportedFile(path string) bool {
	return domain.ResolveFormat("", path).Kind != domain.FormatUnknown
}

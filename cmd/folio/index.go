package folio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parchmentlabs/folio"
	"github.com/parchmentlabs/folio/pkg/archive"
	"github.com/parchmentlabs/folio/pkg/config"
	"github.com/parchmentlabs/folio/pkg/localcorpus"
	"github.com/parchmentlabs/folio/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index [file...]",
	Short: "Index local text files into the chunk store",
	Long: `Index .txt and .epub files into the chunk store. With file arguments,
each named file is indexed; without arguments, every book in the configured
local directory is indexed.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, log, err := initializeFolio(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize folio: %w", err)
	}
	ctx := context.Background()
	defer client.Close(ctx)

	if len(args) == 0 {
		return indexLocalDir(ctx, client, cfg, log)
	}

	for _, path := range args {
		doc, err := documentFromFile(path)
		if err != nil {
			return err
		}
		chunks, err := client.IndexDocument(ctx, doc)
		if err != nil {
			return fmt.Errorf("indexing %s: %w", path, err)
		}
		fmt.Printf("Indexed %s as %s (%d chunks)\n", path, doc.Identifier, chunks)
	}
	return nil
}

func indexLocalDir(ctx context.Context, client *folio.Client, cfg *config.Config, log *slog.Logger) error {
	scanner := localcorpus.NewScanner(cfg.Corpus.LocalDir, archive.ExtractEPUB, log)
	docs, err := scanner.Find(ctx, "", 0)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", cfg.Corpus.LocalDir, err)
	}
	if len(docs) == 0 {
		fmt.Printf("No books found in %s\n", cfg.Corpus.LocalDir)
		return nil
	}

	for _, doc := range docs {
		text, err := scanner.FetchText(ctx, doc)
		if err != nil {
			log.Warn("skipping unreadable book", "identifier", doc.Identifier, "error", err)
			continue
		}
		doc.RawText = text
		chunks, err := client.IndexDocument(ctx, doc)
		if err != nil {
			log.Warn("skipping book that failed to index", "identifier", doc.Identifier, "error", err)
			continue
		}
		fmt.Printf("Indexed %s (%d chunks)\n", doc.Identifier, chunks)
	}
	return nil
}

// documentFromFile reads one .txt or .epub file into a local document.
func documentFromFile(path string) (types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	text := string(data)
	if strings.EqualFold(filepath.Ext(path), ".epub") {
		text, err = archive.ExtractEPUB(data)
		if err != nil {
			return types.Document{}, fmt.Errorf("extracting %s: %w", path, err)
		}
	}

	return types.Document{
		Identifier: localcorpus.IdentifierPrefix + stem,
		Title:      strings.ReplaceAll(stem, "_", " "),
		Source:     types.SourceLocal,
		RawText:    text,
	}, nil
}

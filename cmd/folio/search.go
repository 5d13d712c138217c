package folio

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parchmentlabs/folio/pkg/config"
)

var searchCmd = &cobra.Command{
	Use:   "search [question]",
	Short: "Retrieve ranked passages for a question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, _, err := initializeFolio(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize folio: %w", err)
	}
	ctx := context.Background()
	defer client.Close(ctx)

	question := strings.Join(args, " ")
	result, err := client.Retrieve(ctx, question)
	if err != nil {
		return err
	}

	fmt.Printf("State: %s  (fallback used: %v)\n", result.State, result.FallbackUsed)
	if len(result.Hits) == 0 {
		fmt.Println("No passages found.")
		return nil
	}
	for _, hit := range result.Hits {
		title := hit.Chunk.Title
		if title == "" {
			title = hit.Chunk.DocumentID
		}
		fmt.Printf("\n[%d] %s (%s)\n%s\n", hit.Rank+1, title, hit.Chunk.SourceType, hit.Chunk.Text)
	}
	return nil
}

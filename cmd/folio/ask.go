package folio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parchmentlabs/folio"
	"github.com/parchmentlabs/folio/pkg/config"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question and print the synthesized answer",
	Long: `Ask a natural-language question. Folio retrieves relevant passages from
the indexed corpus, widening the search to the Internet Archive and the local
book directory when needed, and synthesizes a prose answer from them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
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
	answer, err := client.Answer(ctx, question)
	switch {
	case errors.Is(err, folio.ErrNoRelevantContext):
		fmt.Println("No relevant context was found for this question.")
		return nil
	case errors.Is(err, folio.ErrNoLanguageModel):
		return fmt.Errorf("answering requires a language model: set OPENAI_API_KEY or nlp.api_key")
	case err != nil:
		return err
	}

	fmt.Println(answer)
	return nil
}

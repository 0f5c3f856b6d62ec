package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	chatCollection string
	chatTopK       int
	chatThreshold  float64
	chatFallback   bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively",
	Long: `Opens an interactive session for asking questions about a collection.

Controls:
  enter    Ask the typed question
  ctrl+o   Switch collection
  ctrl+f   Toggle answering from general knowledge
  ctrl+s   Show or hide the chunks behind each answer
  ctrl+l   Clear the transcript
  pgup/dn  Scroll
  ctrl+c   Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatCollection, "collection", "c", "", "collection to ask (default \"default\")")
	chatCmd.Flags().IntVarP(&chatTopK, "top-k", "k", 0, "chunks considered per question (default from config)")
	chatCmd.Flags().Float64Var(&chatThreshold, "threshold", 0, "minimum similarity for a chunk to count (default from config)")
	chatCmd.Flags().BoolVar(&chatFallback, "fallback", false, "start with general-knowledge fallback enabled")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if questionService == nil {
		return errors.New("question service not configured")
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("chat needs an interactive terminal; use 'docqa ask' instead")
	}

	var threshold *float64
	if cmd.Flags().Changed("threshold") {
		threshold = &chatThreshold
	}

	app, err := tui.NewApp(&tui.Ports{
		Questions:   questionService,
		Collections: collectionService,
	}, tui.Options{
		Collection:    domain.CollectionOrDefault(chatCollection),
		TopK:          chatTopK,
		Threshold:     threshold,
		AllowFallback: chatFallback,
	})
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("chat error: %w", err)
	}
	return nil
}

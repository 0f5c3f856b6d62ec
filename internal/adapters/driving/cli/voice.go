package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	voiceTopK       int
	voiceCollection string
	voiceJSON       bool
)

var voiceCmd = &cobra.Command{
	Use:   "voice [audio-file]",
	Short: "Ask a spoken question",
	Long: `Transcribes a recorded question and answers it from your documents,
falling back to the language model when the documents do not help.

Supported formats: .mp3 .wav .m4a .ogg .flac .webm`,
	Args: cobra.ExactArgs(1),
	RunE: runVoice,
}

func init() {
	voiceCmd.Flags().IntVarP(&voiceTopK, "top-k", "k", domain.DefaultTopK, "number of chunks to consider")
	voiceCmd.Flags().StringVarP(&voiceCollection, "collection", "c", "", "collection to answer from (default \"default\")")
	voiceCmd.Flags().BoolVar(&voiceJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(voiceCmd)
}

func runVoice(cmd *cobra.Command, args []string) error {
	if voiceService == nil {
		return errors.New("voice service not configured")
	}

	path := args[0]
	audio, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	answer, err := voiceService.Ask(cmd.Context(), audio, filepath.Base(path), domain.SearchOptions{
		Collection: voiceCollection,
		TopK:       voiceTopK,
	})
	if err != nil {
		return fmt.Errorf("voice query failed: %w", err)
	}

	if voiceJSON {
		return printJSON(cmd, answer)
	}

	cmd.Printf("You asked: %s\n\n", answer.Transcript)
	cmd.Println(answer.Answer.Answer)
	cmd.Println()
	cmd.Println(answer.Message)
	return nil
}

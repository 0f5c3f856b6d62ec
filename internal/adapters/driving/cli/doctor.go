package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/extractors/pdf"
)

var doctorTimeout time.Duration

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that docqa's collaborators are reachable",
	Long: `Pings the chunk store, the embedding service and the language model,
and checks for the pdftotext tool used to read PDF files.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().DurationVar(&doctorTimeout, "timeout", 10*time.Second, "timeout for each check")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	failed := 0
	for _, check := range healthChecks {
		ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
		err := check.Ping(ctx)
		cancel()

		if err != nil {
			failed++
			cmd.Printf("  ✗ %s: %v\n", check.Name, err)
			continue
		}
		cmd.Printf("  ✓ %s\n", check.Name)
	}

	if err := pdf.CheckAvailable(); err != nil {
		cmd.Printf("  ! pdftotext: %v\n", err)
		cmd.Println(pdf.InstallInstructions())
	} else {
		cmd.Println("  ✓ pdftotext")
	}

	cmd.Printf("  Generation: %s\n", availability(runtimeHealth.Generative))
	cmd.Printf("  Transcription: %s\n", availability(runtimeHealth.Transcription))

	if failed > 0 {
		return errors.New("some checks failed")
	}
	return nil
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "not configured"
}

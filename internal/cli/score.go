package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var scoreExpectedText string

var scoreCmd = &cobra.Command{
	Use:   "score [file]",
	Short: "Score a single invoice",
	Long:  `Scores one JPEG, PNG or PDF invoice and prints the full report as JSON.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreExpectedText, "expected-text", "", "reference text used to measure OCR quality")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	if scoringService == nil {
		return errors.New("scoring service not configured")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read invoice: %w", err)
	}

	report, err := scoringService.ScoreUpload(context.Background(), data, filepath.Base(args[0]), scoreExpectedText)
	if err != nil {
		return fmt.Errorf("scoring failed: %w", err)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// Package cli implements the inspect command line tool.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/anime-shed/invoice-inspector-go/internal/service"
)

// scoringService is injected by Execute
var scoringService service.ScoringService

var rootCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Score invoices for signs of tampering",
	Long: `Scores invoice images and PDFs with error level analysis, EXIF metadata
checks and OCR amount consistency, and blends them into one risk verdict.`,
	SilenceUsage: true,
}

// Execute runs the root command against svc
func Execute(svc service.ScoringService) error {
	scoringService = svc
	return rootCmd.Execute()
}

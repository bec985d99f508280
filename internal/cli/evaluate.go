package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/spf13/cobra"

	"github.com/anime-shed/invoice-inspector-go/internal/analyzer"
	"github.com/anime-shed/invoice-inspector-go/pkg/validation"
)

const (
	labelLegitimate = "legitimate"
	labelTampered   = "tampered"
)

var (
	evaluateLegitimateDir string
	evaluateTamperedDir   string
	evaluateWorkers       int
	evaluateThreshold     float64
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Measure detection rates over labelled sample directories",
	Long: `Scores every invoice in a directory of legitimate samples and a directory
of tampered samples, prints one CSV row per file and then the detection rate
(tampered samples at or above the threshold) and the false positive rate
(legitimate samples at or above the threshold).`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluateLegitimateDir, "legitimate", "", "directory of untouched invoices")
	evaluateCmd.Flags().StringVar(&evaluateTamperedDir, "tampered", "", "directory of tampered invoices")
	evaluateCmd.Flags().IntVarP(&evaluateWorkers, "workers", "w", 4, "number of concurrent scoring workers")
	evaluateCmd.Flags().Float64Var(&evaluateThreshold, "threshold", analyzer.MediumRiskThreshold, "final score counted as flagged")
	_ = evaluateCmd.MarkFlagRequired("legitimate")
	_ = evaluateCmd.MarkFlagRequired("tampered")
	rootCmd.AddCommand(evaluateCmd)
}

// sample is one labelled invoice and its outcome
type sample struct {
	path    string
	label   string
	score   float64
	verdict string
	err     error
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	if scoringService == nil {
		return errors.New("scoring service not configured")
	}
	if evaluateWorkers < 1 {
		return fmt.Errorf("workers must be >= 1 (got %d)", evaluateWorkers)
	}

	legitimate, err := listInvoices(evaluateLegitimateDir, labelLegitimate)
	if err != nil {
		return err
	}
	tampered, err := listInvoices(evaluateTamperedDir, labelTampered)
	if err != nil {
		return err
	}
	samples := append(legitimate, tampered...)
	if len(samples) == 0 {
		return errors.New("no invoices found in the sample directories")
	}

	scoreSamples(samples, evaluateWorkers)

	w := csv.NewWriter(cmd.OutOrStdout())
	_ = w.Write([]string{"file", "label", "final_score", "verdict"})
	for _, s := range samples {
		if s.err != nil {
			_ = w.Write([]string{s.path, s.label, "", "ERROR: " + s.err.Error()})
			continue
		}
		_ = w.Write([]string{s.path, s.label, strconv.FormatFloat(s.score, 'f', 2, 64), s.verdict})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	detection, falsePositive, failed := rates(samples, evaluateThreshold)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "detection_rate=%.2f%%\n", detection*100)
	fmt.Fprintf(out, "false_positive_rate=%.2f%%\n", falsePositive*100)
	if failed > 0 {
		fmt.Fprintf(out, "failed=%d\n", failed)
	}
	return nil
}

// scoreSamples scores every sample on a bounded worker pool. Each job writes
// only its own slot.
func scoreSamples(samples []sample, workers int) {
	pool := analyzer.NewWorkerPool(workers)
	pool.Start()
	defer pool.Close()

	var wg sync.WaitGroup
	for i := range samples {
		s := &samples[i]
		wg.Add(1)
		submitted := pool.Submit(func() {
			defer wg.Done()
			data, err := os.ReadFile(s.path)
			if err != nil {
				s.err = err
				return
			}
			report, err := scoringService.ScoreUpload(context.Background(), data, filepath.Base(s.path), "")
			if err != nil {
				s.err = err
				return
			}
			s.score = report.FinalScore
			s.verdict = string(report.Verdict)
		})
		if !submitted {
			s.err = errors.New("worker pool closed")
			wg.Done()
		}
	}
	wg.Wait()
}

// rates returns the share of tampered samples flagged, the share of
// legitimate samples flagged and the number of samples that failed to score
func rates(samples []sample, threshold float64) (detection, falsePositive float64, failed int) {
	var tampered, legitimate, caught, falseAlarms int
	for _, s := range samples {
		if s.err != nil {
			failed++
			continue
		}
		flagged := s.score >= threshold
		switch s.label {
		case labelTampered:
			tampered++
			if flagged {
				caught++
			}
		case labelLegitimate:
			legitimate++
			if flagged {
				falseAlarms++
			}
		}
	}
	if tampered > 0 {
		detection = float64(caught) / float64(tampered)
	}
	if legitimate > 0 {
		falsePositive = float64(falseAlarms) / float64(legitimate)
	}
	return detection, falsePositive, failed
}

// listInvoices returns the invoices directly inside dir in name order
func listInvoices(dir, label string) ([]sample, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s samples: %w", label, err)
	}

	uploads := validation.NewUploadValidator(0)
	var out []sample
	for _, e := range entries {
		if e.IsDir() || !uploads.ExtensionAllowed(e.Name()) {
			continue
		}
		out = append(out, sample{path: filepath.Join(dir, e.Name()), label: label})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out, nil
}

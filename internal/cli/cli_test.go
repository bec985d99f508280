package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/invoice-inspector-go/pkg/models"
)

// fakeScoringService scores by filename
type fakeScoringService struct {
	mu       sync.Mutex
	scores   map[string]float64
	failures map[string]bool
	expected string
}

func (f *fakeScoringService) ScoreUpload(_ context.Context, _ []byte, filename string, expectedText string) (*models.ScoreReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expected = expectedText
	if f.failures[filename] {
		return nil, errors.New("undecodable")
	}
	score := f.scores[filename]
	verdict := models.VerdictLow
	if score >= 65 {
		verdict = models.VerdictHigh
	} else if score >= 40 {
		verdict = models.VerdictMedium
	}
	return &models.ScoreReport{ID: "r-" + filename, FinalScore: score, Verdict: verdict}, nil
}

func (f *fakeScoringService) ScoreURL(context.Context, string, string) (*models.ScoreReport, error) {
	return nil, errors.New("not supported")
}

func (f *fakeScoringService) ValidateInvoiceURL(string) error { return nil }

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
}

func run(t *testing.T, svc *fakeScoringService, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := Execute(svc)
	return buf.String(), err
}

func TestScoreCmd(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "invoice.png")
	svc := &fakeScoringService{scores: map[string]float64{"invoice.png": 47}}

	out, err := run(t, svc, "score", filepath.Join(dir, "invoice.png"), "--expected-text", "Total 150.00")
	require.NoError(t, err)

	var report models.ScoreReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 47.0, report.FinalScore)
	assert.Equal(t, models.VerdictMedium, report.Verdict)
	assert.Equal(t, "Total 150.00", svc.expected)
}

func TestScoreCmd_MissingFile(t *testing.T) {
	_, err := run(t, &fakeScoringService{}, "score", filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestEvaluateCmd(t *testing.T) {
	legit := t.TempDir()
	tampered := t.TempDir()
	writeFiles(t, legit, "l1.png", "l2.jpg", "l3.pdf", "notes.txt")
	writeFiles(t, tampered, "t1.png", "t2.png", "broken.png")

	svc := &fakeScoringService{
		scores: map[string]float64{
			"l1.png": 20, "l2.jpg": 35, "l3.pdf": 52.5,
			"t1.png": 70, "t2.png": 30,
		},
		failures: map[string]bool{"broken.png": true},
	}

	out, err := run(t, svc, "evaluate",
		"--legitimate", legit, "--tampered", tampered, "--workers", "3", "--threshold", "40")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "file,label,final_score,verdict", lines[0])
	assert.Contains(t, out, filepath.Join(legit, "l3.pdf")+",legitimate,52.50,MEDIUM RISK")
	assert.Contains(t, out, filepath.Join(tampered, "t1.png")+",tampered,70.00,HIGH RISK")
	assert.Contains(t, out, filepath.Join(tampered, "broken.png")+",tampered,,ERROR: undecodable")
	assert.NotContains(t, out, "notes.txt")

	assert.Contains(t, out, "detection_rate=50.00%")
	assert.Contains(t, out, "false_positive_rate=33.33%")
	assert.Contains(t, out, "failed=1")
}

func TestEvaluateCmd_MissingDirectory(t *testing.T) {
	_, err := run(t, &fakeScoringService{}, "evaluate",
		"--legitimate", filepath.Join(t.TempDir(), "nope"), "--tampered", t.TempDir())
	assert.Error(t, err)
}

func TestRates(t *testing.T) {
	samples := []sample{
		{label: labelTampered, score: 65},
		{label: labelTampered, score: 39.99},
		{label: labelLegitimate, score: 40},
		{label: labelLegitimate, score: 10},
		{label: labelLegitimate, err: errors.New("boom")},
	}
	detection, falsePositive, failed := rates(samples, 40)
	assert.Equal(t, 0.5, detection)
	assert.Equal(t, 0.5, falsePositive)
	assert.Equal(t, 1, failed)
}

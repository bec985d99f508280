package analyzer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/anime-shed/invoice-inspector-go/pkg/models"
)

const (
	verdictNoMetadata = "SUSPICIOUS - No EXIF metadata found"
	noMetadataScore   = 50.0
	maxFieldLength    = 100

	editingSoftwarePoints  = 30.0
	dateTimeMismatchPoints = 20.0
	missingFieldsPoints    = 15.0
)

// Metadata tag names consulted by the flag rules
const (
	TagMake               = "Make"
	TagModel              = "Model"
	TagDateTime           = "DateTime"
	TagDateTimeOriginal   = "DateTimeOriginal"
	TagSoftware           = "Software"
	TagProcessingSoftware = "ProcessingSoftware"
)

var requiredTags = []string{TagMake, TagModel, TagDateTime}

// MetadataRecord maps tag names to display values
type MetadataRecord map[string]string

// MetadataOutcome is either NoMetadata or MetadataFlags
type MetadataOutcome interface {
	isMetadataOutcome()
}

// NoMetadata means the container carries no metadata record at all
type NoMetadata struct {
	Reason string
}

// MetadataFlags carries a present record whose flags are still to be evaluated
type MetadataFlags struct {
	Record MetadataRecord
}

func (NoMetadata) isMetadataOutcome()    {}
func (MetadataFlags) isMetadataOutcome() {}

// metadataAnalyzer implements MetadataAnalyzer
type metadataAnalyzer struct {
	extractor MetadataExtractor
	markers   []string
}

// NewMetadataAnalyzer creates a metadata analyzer. A nil extractor selects the
// EXIF extractor.
func NewMetadataAnalyzer(opts Options, extractor MetadataExtractor) MetadataAnalyzer {
	if extractor == nil {
		extractor = NewEXIFExtractor()
	}
	markers := make([]string, 0, len(opts.EditingSoftwareMarkers))
	for _, m := range opts.EditingSoftwareMarkers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			markers = append(markers, m)
		}
	}
	return &metadataAnalyzer{extractor: extractor, markers: markers}
}

// Analyze extracts the metadata record from the original bytes and scores it
func (a *metadataAnalyzer) Analyze(data []byte) (SubScoreResult, error) {
	outcome, err := a.extractor.Extract(data)
	if err != nil {
		return SubScoreResult{}, componentError(models.ComponentMetadata, err)
	}
	return a.AnalyzeOutcome(outcome), nil
}

// AnalyzeOutcome scores an extracted outcome. Absence short-circuits.
func (a *metadataAnalyzer) AnalyzeOutcome(outcome MetadataOutcome) SubScoreResult {
	switch o := outcome.(type) {
	case MetadataFlags:
		if len(o.Record) == 0 {
			return a.noMetadata(NoMetadata{})
		}
		return a.flags(o.Record)
	case NoMetadata:
		return a.noMetadata(o)
	default:
		return a.noMetadata(NoMetadata{})
	}
}

func (a *metadataAnalyzer) noMetadata(o NoMetadata) SubScoreResult {
	message := "No EXIF metadata found"
	if o.Reason != "" {
		message = fmt.Sprintf("%s (%s)", message, o.Reason)
	}
	return SubScoreResult{
		Score:   noMetadataScore,
		Label:   models.LabelSuspicious,
		Verdict: verdictNoMetadata,
		Evidence: models.MetadataEvidence{
			Present: false,
			Flags:   []models.Flag{{Name: "no_metadata", Message: message, Points: noMetadataScore}},
			Fields:  map[string]string{},
		},
	}
}

func (a *metadataAnalyzer) flags(record MetadataRecord) SubScoreResult {
	fields := make(map[string]string, len(record))
	for k, v := range record {
		fields[k] = truncateDisplay(v, maxFieldLength)
	}

	var flags []models.Flag
	score := 0.0

	software := record[TagSoftware]
	if software == "" {
		software = record[TagProcessingSoftware]
	}
	if marker := a.editingMarker(software); marker != "" {
		flags = append(flags, models.Flag{
			Name:    "editing_software",
			Message: fmt.Sprintf("Editing software detected: %s", truncateDisplay(software, maxFieldLength)),
			Points:  editingSoftwarePoints,
		})
		score += editingSoftwarePoints
	}

	created, original := record[TagDateTime], record[TagDateTimeOriginal]
	if created != "" && original != "" && created != original {
		flags = append(flags, models.Flag{
			Name:    "datetime_mismatch",
			Message: fmt.Sprintf("DateTime %q differs from DateTimeOriginal %q", created, original),
			Points:  dateTimeMismatchPoints,
		})
		score += dateTimeMismatchPoints
	}

	var missing []string
	for _, tag := range requiredTags {
		if record[tag] == "" {
			missing = append(missing, tag)
		}
	}
	if len(missing) > 0 {
		flags = append(flags, models.Flag{
			Name:    "missing_fields",
			Message: fmt.Sprintf("Missing metadata fields: %s", strings.Join(missing, ", ")),
			Points:  missingFieldsPoints,
		})
		score += missingFieldsPoints
	}

	score = clampScore(score)
	return SubScoreResult{
		Score:   score,
		Label:   models.LabelForScore(score),
		Verdict: riskVerdict(score, "METADATA"),
		Evidence: models.MetadataEvidence{
			Present:       true,
			Flags:         flags,
			MissingFields: missing,
			Software:      truncateDisplay(software, maxFieldLength),
			Fields:        fields,
		},
	}
}

// editingMarker returns the first configured marker found in the software string
func (a *metadataAnalyzer) editingMarker(software string) string {
	if software == "" {
		return ""
	}
	lower := strings.ToLower(software)
	for _, m := range a.markers {
		if strings.Contains(lower, m) {
			return m
		}
	}
	return ""
}

// truncateDisplay flattens newlines and cuts a value to limit runes
func truncateDisplay(value string, limit int) string {
	value = strings.TrimSpace(strings.ReplaceAll(value, "\n", " "))
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit-1]) + "…"
}

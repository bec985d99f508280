package models

// URLAnalysisRequest asks the service to fetch and score a remote invoice
type URLAnalysisRequest struct {
	URL          string `json:"url" binding:"required,url"`
	ExpectedText string `json:"expected_text,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Component string `json:"component,omitempty"`
}

// InvoiceSource describes where the scored raster came from
type InvoiceSource struct {
	Filename    string `json:"filename,omitempty"`
	URL         string `json:"url,omitempty"`
	ContentType string `json:"content_type"`
	SizeBytes   int    `json:"size_bytes"`
	IsPDF       bool   `json:"is_pdf"`
	PageCount   int    `json:"page_count,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Downscaled  bool   `json:"downscaled,omitempty"`
}

// ScoreReport is the full per-invoice response
type ScoreReport struct {
	ID                string          `json:"id"`
	Timestamp         string          `json:"timestamp"`
	FinalScore        float64         `json:"final_score"`
	Verdict           Verdict         `json:"verdict"`
	Assessment        string          `json:"assessment"`
	ComponentScores   ComponentScores `json:"component_scores"`
	Source            InvoiceSource   `json:"source"`
	ELA               SubScoreResult  `json:"ela"`
	Metadata          SubScoreResult  `json:"metadata"`
	OCR               SubScoreResult  `json:"ocr"`
	ProcessingTimeSec float64         `json:"processing_time_sec"`
}

package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/invoice-inspector-go/pkg/models"
)

// ScoringEvent represents one step of an invoice scoring run
type ScoringEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	ReportID       string                 `json:"report_id"`
	Source         string                 `json:"source"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Component      models.Component       `json:"component,omitempty"`
	FinalScore     float64                `json:"final_score,omitempty"`
	Verdict        models.Verdict         `json:"verdict,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of scoring event
type EventType string

const (
	// ScoringStarted when a scoring run begins
	ScoringStarted EventType = "scoring_started"
	// ScoringCompleted when all analyzers and the aggregate finished
	ScoringCompleted EventType = "scoring_completed"
	// ScoringFailed when the run ended without a report
	ScoringFailed EventType = "scoring_failed"
	// InvoiceFetched when a remote invoice was downloaded
	InvoiceFetched EventType = "invoice_fetched"
	// InvoiceFetchFailed when a remote invoice could not be downloaded
	InvoiceFetchFailed EventType = "invoice_fetch_failed"
	// ArtifactStored when a visualization was persisted
	ArtifactStored EventType = "artifact_stored"
	// ArtifactFailed when a visualization could not be persisted
	ArtifactFailed EventType = "artifact_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event ScoringEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event ScoringEvent)
}

// LoggingObserver logs scoring events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles scoring events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event ScoringEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"report_id":       event.ReportID,
		"source":          event.Source,
		"processing_time": event.ProcessingTime.String(),
		"success":         event.Success,
	}

	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	if event.Component != "" {
		fields["component"] = event.Component
	}
	if event.Verdict != "" {
		fields["verdict"] = event.Verdict
		fields["final_score"] = event.FinalScore
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case ScoringStarted:
		entry.Info("Invoice scoring started")
	case ScoringCompleted:
		entry.Info("Invoice scoring completed")
	case ScoringFailed:
		entry.Error("Invoice scoring failed")
	case InvoiceFetched:
		entry.Debug("Invoice fetched successfully")
	case InvoiceFetchFailed:
		entry.Error("Invoice fetch failed")
	case ArtifactStored:
		entry.Debug("Artifact stored")
	case ArtifactFailed:
		entry.Warn("Artifact could not be stored")
	default:
		entry.Info("Scoring event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from scoring events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalScorings       int64
	successfulScorings  int64
	failedScorings      int64
	fetchFailures       int64
	artifactFailures    int64
	totalProcessingTime time.Duration
	verdicts            map[models.Verdict]int64
	componentFailures   map[models.Component]int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		verdicts:          make(map[models.Verdict]int64),
		componentFailures: make(map[models.Component]int64),
	}
}

// OnEvent handles scoring events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event ScoringEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case ScoringStarted:
		o.totalScorings++
	case ScoringCompleted:
		o.successfulScorings++
		o.totalProcessingTime += event.ProcessingTime
		if event.Verdict != "" {
			o.verdicts[event.Verdict]++
		}
	case ScoringFailed:
		o.failedScorings++
		if event.Component != "" {
			o.componentFailures[event.Component]++
		}
	case InvoiceFetchFailed:
		o.fetchFailures++
	case ArtifactFailed:
		o.artifactFailures++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.successfulScorings > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.successfulScorings)
	}

	verdicts := make(map[string]int64, len(o.verdicts))
	for v, n := range o.verdicts {
		verdicts[string(v)] = n
	}
	components := make(map[string]int64, len(o.componentFailures))
	for c, n := range o.componentFailures {
		components[string(c)] = n
	}

	return map[string]interface{}{
		"total_scorings":         o.totalScorings,
		"successful_scorings":    o.successfulScorings,
		"failed_scorings":        o.failedScorings,
		"fetch_failures":         o.fetchFailures,
		"artifact_failures":      o.artifactFailures,
		"verdicts":               verdicts,
		"component_failures":     components,
		"avg_processing_time_ms": avgProcessingTime.Milliseconds(),
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	wg        sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event concurrently
func (p *EventPublisher) NotifyObservers(ctx context.Context, event ScoringEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		p.wg.Add(1)
		go func(obs Observer) {
			defer p.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					// Log panic but don't crash the application
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Flush blocks until every in-flight notification has been handled
func (p *EventPublisher) Flush() {
	p.wg.Wait()
}

package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Audit stages.
const (
	StageClassify = "classify"
	StageIdentify = "identify"
	StageGroup    = "group"
	StageMatch    = "match"
)

// AuditEvent is one timestamped engine decision: what was decided, about
// which subject, with what confidence.
type AuditEvent struct {
	Stage      string         `json:"stage"`
	Subject    string         `json:"subject"`
	Decision   string         `json:"decision"`
	Confidence float64        `json:"confidence"`
	Details    map[string]any `json:"details,omitempty"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// AuditRecorder receives engine decision events. Implementations must be
// safe for concurrent use; the pipeline records from worker goroutines.
type AuditRecorder interface {
	Record(ctx context.Context, event AuditEvent)
}

type slogRecorder struct {
	logger *slog.Logger
}

// NewSlogRecorder returns a recorder that logs each decision event.
func NewSlogRecorder(logger *slog.Logger) AuditRecorder {
	return &slogRecorder{logger: logger.With("system", "engine")}
}

func (r *slogRecorder) Record(ctx context.Context, event AuditEvent) {
	r.logger.InfoContext(ctx, "decision",
		"stage", event.Stage,
		"subject", event.Subject,
		"decision", event.Decision,
		"confidence", event.Confidence,
	)
}

// CollectingRecorder buffers events in memory so callers can persist the
// decision trail after a run completes.
type CollectingRecorder struct {
	mu     sync.Mutex
	events []AuditEvent
}

func NewCollectingRecorder() *CollectingRecorder {
	return &CollectingRecorder{}
}

func (r *CollectingRecorder) Record(_ context.Context, event AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events in arrival order.
func (r *CollectingRecorder) Events() []AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AuditEvent, len(r.events))
	copy(out, r.events)
	return out
}

// MultiRecorder fans events out to several recorders.
func MultiRecorder(recorders ...AuditRecorder) AuditRecorder {
	return multiRecorder(recorders)
}

type multiRecorder []AuditRecorder

func (m multiRecorder) Record(ctx context.Context, event AuditEvent) {
	for _, r := range m {
		r.Record(ctx, event)
	}
}

package tracing

import (
	"context"
	"sync"
)

type recorderKey struct{}

// RecordedSpan captures everything set on a span created by a Recorder.
type RecordedSpan struct {
	Name       string
	ParentName string
	Attributes map[string]any
	Success    bool
	Ended      bool
}

// Recorder is an in-memory Sink for tests. Spans are recorded in creation
// order; parent linkage follows the context, mirroring the OTel sink.
type Recorder struct {
	mu    sync.Mutex
	spans []*RecordedSpan
}

// NewRecorder creates an empty in-memory sink.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// StartSpan records a new span under the parent carried in ctx.
func (r *Recorder) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	span := &RecordedSpan{
		Name:       name,
		Attributes: make(map[string]any),
	}
	if parent, ok := ctx.Value(recorderKey{}).(*RecordedSpan); ok {
		span.ParentName = parent.Name
	}

	r.mu.Lock()
	r.spans = append(r.spans, span)
	r.mu.Unlock()

	return context.WithValue(ctx, recorderKey{}, span), &recordedHandle{span: span}
}

// Spans returns all recorded spans in creation order.
func (r *Recorder) Spans() []*RecordedSpan {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*RecordedSpan, len(r.spans))
	copy(out, r.spans)
	return out
}

// SpanNames returns the names of all recorded spans in creation order.
func (r *Recorder) SpanNames() []string {
	spans := r.Spans()
	names := make([]string, len(spans))
	for i, s := range spans {
		names[i] = s.Name
	}
	return names
}

// Find returns the first recorded span with the given name, or nil.
func (r *Recorder) Find(name string) *RecordedSpan {
	for _, s := range r.Spans() {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Reset discards all recorded spans.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.spans = nil
	r.mu.Unlock()
}

type recordedHandle struct {
	span *RecordedSpan
}

func (h *recordedHandle) SetAttribute(key string, value any) {
	h.span.Attributes[key] = value
}

func (h *recordedHandle) SetSuccess() {
	h.span.Success = true
}

func (h *recordedHandle) End() {
	h.span.Ended = true
}

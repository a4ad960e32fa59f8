package authkit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/pocketledger/authkit/storage"
)

// SecurityEvent is one security-relevant state transition. Events are
// immutable once created and are kept in insertion order, oldest first.
type SecurityEvent struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"eventType"`
	UserID    string            `json:"userId,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// AuditSink receives SecurityEvent values from the engine's async audit
// dispatcher, in addition to the engine's own bounded in-memory log.
type AuditSink interface {
	Emit(ctx context.Context, event SecurityEvent)
}

// NoOpSink is an AuditSink that silently discards all events. It is the
// dispatcher's default when no sink is configured.
type NoOpSink struct{}

// Emit implements AuditSink.
func (NoOpSink) Emit(context.Context, SecurityEvent) {}

// ChannelSink is a buffered channel-based AuditSink.
type ChannelSink struct {
	events chan SecurityEvent
}

// NewChannelSink creates a ChannelSink with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan SecurityEvent, buffer),
	}
}

// Emit implements AuditSink.
func (s *ChannelSink) Emit(ctx context.Context, event SecurityEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events exposes the sink's receive side.
func (s *ChannelSink) Events() <-chan SecurityEvent {
	return s.events
}

// JSONWriterSink is an AuditSink that writes JSON-encoded events, one per
// line, to an io.Writer.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink creates a JSONWriterSink that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

// Emit implements AuditSink.
func (s *JSONWriterSink) Emit(_ context.Context, event SecurityEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// auditLog is the bounded in-memory event sequence plus its durable tail.
// Appends evict the oldest entry past the cap and overwrite the snapshot
// (the most recent SnapshotSize entries as a JSON array) on every call.
type auditLog struct {
	mu  sync.Mutex
	// writeMu keeps snapshot writes in append order; without it a slower
	// marshal could persist an older tail over a newer one. Events readers
	// only need mu.
	writeMu sync.Mutex
	cfg     AuditConfig
	store   storage.Store // nil disables the durable snapshot
	entries []SecurityEvent
}

func newAuditLog(cfg AuditConfig, store storage.Store) *auditLog {
	return &auditLog{
		cfg:     cfg,
		store:   store,
		entries: make([]SecurityEvent, 0, cfg.MemoryCap),
	}
}

// Append records the event in memory and rewrites the durable snapshot.
// The in-memory append always succeeds; a snapshot write failure is
// returned so the caller can surface the lost durability.
func (l *auditLog) Append(ctx context.Context, event SecurityEvent) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.Lock()
	l.entries = append(l.entries, event)
	if len(l.entries) > l.cfg.MemoryCap {
		l.entries = l.entries[1:]
	}

	var snapshot []SecurityEvent
	if l.store != nil {
		tail := len(l.entries) - l.cfg.SnapshotSize
		if tail < 0 {
			tail = 0
		}
		snapshot = make([]SecurityEvent, len(l.entries)-tail)
		copy(snapshot, l.entries[tail:])
	}
	l.mu.Unlock()

	if l.store == nil {
		return nil
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return l.store.Set(ctx, l.cfg.SnapshotKey, data, 0)
}

// Events returns a copy of the log in insertion order, oldest first.
func (l *auditLog) Events() []SecurityEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]SecurityEvent, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *auditLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

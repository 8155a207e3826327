package convert

import (
	"sync"
	"time"
)

// EventType represents the type of a conversion event.
type EventType string

const (
	// Run lifecycle events
	EventRunStarted   EventType = "run_started"
	EventRunCompleted EventType = "run_completed"
	EventRunFailed    EventType = "run_failed"

	// Stage events
	EventDocumentParsed     EventType = "document_parsed"
	EventAssetEmbedded      EventType = "asset_embedded"
	EventCodeRasterized     EventType = "code_rasterized"
	EventCategorySerialized EventType = "category_serialized"
	EventArtifactWritten    EventType = "artifact_written"
)

// Event represents an observable conversion event with typed data.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// EventEmitter manages event listeners and dispatches events.
type EventEmitter struct {
	mu        sync.RWMutex
	listeners []func(Event)
}

// NewEventEmitter creates a new EventEmitter.
func NewEventEmitter() *EventEmitter {
	return &EventEmitter{listeners: make([]func(Event), 0)}
}

// On registers a listener function to receive events.
// Listeners are called synchronously in registration order.
func (e *EventEmitter) On(listener func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, listener)
}

// Emit dispatches an event to all registered listeners. A nil emitter
// drops events, so callers never need to guard.
func (e *EventEmitter) Emit(event Event) {
	if e == nil {
		return
	}
	e.mu.RLock()
	listeners := make([]func(Event), len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.RUnlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// ListenerCount returns the number of registered listeners.
func (e *EventEmitter) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}

// Helper constructors for creating typed events

// RunStartedEvent creates a run_started event.
func RunStartedEvent(source, id string) Event {
	return Event{
		Type:      EventRunStarted,
		Timestamp: time.Now(),
		Data: map[string]any{
			"source": source,
			"id":     id,
		},
	}
}

// RunCompletedEvent creates a run_completed event.
func RunCompletedEvent(duration time.Duration, artifactCount int) Event {
	return Event{
		Type:      EventRunCompleted,
		Timestamp: time.Now(),
		Data: map[string]any{
			"duration_ms":    duration.Milliseconds(),
			"artifact_count": artifactCount,
		},
	}
}

// RunFailedEvent creates a run_failed event.
func RunFailedEvent(err string, duration time.Duration) Event {
	return Event{
		Type:      EventRunFailed,
		Timestamp: time.Now(),
		Data: map[string]any{
			"error":       err,
			"duration_ms": duration.Milliseconds(),
		},
	}
}

// DocumentParsedEvent creates a document_parsed event.
func DocumentParsedEvent(categories, questions int) Event {
	return Event{
		Type:      EventDocumentParsed,
		Timestamp: time.Now(),
		Data: map[string]any{
			"categories": categories,
			"questions":  questions,
		},
	}
}

// AssetEmbeddedEvent creates an asset_embedded event.
func AssetEmbeddedEvent(target string) Event {
	return Event{
		Type:      EventAssetEmbedded,
		Timestamp: time.Now(),
		Data: map[string]any{
			"target": target,
		},
	}
}

// CodeRasterizedEvent creates a code_rasterized event.
func CodeRasterizedEvent(lexer string) Event {
	return Event{
		Type:      EventCodeRasterized,
		Timestamp: time.Now(),
		Data: map[string]any{
			"lexer": lexer,
		},
	}
}

// CategorySerializedEvent creates a category_serialized event.
func CategorySerializedEvent(category string, questions int) Event {
	return Event{
		Type:      EventCategorySerialized,
		Timestamp: time.Now(),
		Data: map[string]any{
			"category":  category,
			"questions": questions,
		},
	}
}

// ArtifactWrittenEvent creates an artifact_written event.
func ArtifactWrittenEvent(path string, size int) Event {
	return Event{
		Type:      EventArtifactWritten,
		Timestamp: time.Now(),
		Data: map[string]any{
			"path": path,
			"size": size,
		},
	}
}

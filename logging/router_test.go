package logging_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"tag-arena/server/logging"
	"tag-arena/server/logging/sinks"
)

func newMemoryRouter(t *testing.T, cfg logging.Config) (*logging.Router, *sinks.Memory) {
	t.Helper()
	memory := sinks.NewMemory()
	router, err := logging.NewRouter(cfg, nil, log.New(io.Discard, "", 0), map[string]logging.Sink{
		"memory": memory,
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return router, memory
}

func waitForEvents(t *testing.T, memory *sinks.Memory, want int) []logging.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if events := memory.Events(); len(events) >= want {
			return events
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("memory sink received %d events, want %d", len(memory.Events()), want)
	return nil
}

func TestRouterDeliversToEnabledSink(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	router, memory := newMemoryRouter(t, cfg)
	defer router.Close(context.Background())

	router.Publish(context.Background(), logging.Event{
		Type:     "lifecycle.room_created",
		Room:     "AB12",
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
	})

	events := waitForEvents(t, memory, 1)
	if events[0].Type != "lifecycle.room_created" {
		t.Fatalf("event type = %q", events[0].Type)
	}
	if events[0].Room != "AB12" {
		t.Fatalf("event room = %q, want AB12", events[0].Room)
	}
	if events[0].Time.IsZero() {
		t.Fatalf("router did not stamp event time")
	}
	if stats := router.Stats(); stats.EventsTotal != 1 {
		t.Fatalf("EventsTotal = %d, want 1", stats.EventsTotal)
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	cfg.MinimumSeverity = logging.SeverityWarn
	router, memory := newMemoryRouter(t, cfg)
	defer router.Close(context.Background())

	router.Publish(context.Background(), logging.Event{Type: "a", Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{Type: "b", Severity: logging.SeverityError})

	events := waitForEvents(t, memory, 1)
	for _, event := range events {
		if event.Severity < logging.SeverityWarn {
			t.Fatalf("sink received filtered event %q", event.Type)
		}
	}
}

func TestRouterAttachesConfiguredFields(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	cfg.Fields = map[string]any{"service": "tag-arena"}
	router, memory := newMemoryRouter(t, cfg)
	defer router.Close(context.Background())

	router.Publish(context.Background(), logging.Event{Type: "a", Severity: logging.SeverityInfo})

	events := waitForEvents(t, memory, 1)
	if events[0].Extra["service"] != "tag-arena" {
		t.Fatalf("extra = %v, want service field", events[0].Extra)
	}
}

func TestRouterIgnoresUntypedEvents(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	router, memory := newMemoryRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{Type: "real", Severity: logging.SeverityInfo})

	events := waitForEvents(t, memory, 1)
	if len(events) != 1 || events[0].Type != "real" {
		t.Fatalf("events = %v, want only the typed one", events)
	}

	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Publishing after close is a silent no-op.
	router.Publish(context.Background(), logging.Event{Type: "late", Severity: logging.SeverityInfo})
	if stats := router.Stats(); stats.EventsTotal != 1 {
		t.Fatalf("EventsTotal = %d after close, want 1", stats.EventsTotal)
	}
}

func TestRouterCountsDropsWhenQueueFull(t *testing.T) {
	memory := sinks.NewMemory()
	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	cfg.BufferSize = 1
	// The clock stalls the dispatch loop so the one-slot queue must overflow.
	slowClock := logging.ClockFunc(func() time.Time {
		time.Sleep(5 * time.Millisecond)
		return time.Now()
	})
	router, err := logging.NewRouter(cfg, slowClock, log.New(io.Discard, "", 0), map[string]logging.Sink{"memory": memory})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	defer router.Close(context.Background())

	for i := 0; i < 100; i++ {
		router.Publish(context.Background(), logging.Event{Type: "burst", Severity: logging.SeverityInfo})
	}

	if stats := router.Stats(); stats.DroppedTotal == 0 {
		t.Fatalf("DroppedTotal = 0 after burst into a full queue, want drops")
	}
}

func TestWithFieldsWrapsPublisher(t *testing.T) {
	var got logging.Event
	base := logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		got = event
	})

	wrapped := logging.WithFields(base, map[string]any{"zone": "eu"})
	wrapped.Publish(context.Background(), logging.Event{Type: "a"})

	if got.Extra["zone"] != "eu" {
		t.Fatalf("extra = %v, want zone field", got.Extra)
	}

	if p := logging.WithFields(nil, map[string]any{"x": 1}); p == nil {
		t.Fatalf("WithFields(nil) returned nil")
	}
}

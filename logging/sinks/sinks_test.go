package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"tag-arena/server/logging"
)

func TestConsoleFormatsEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsole(&buf)

	err := sink.Write(logging.Event{
		Type:     "gameplay.tag_transferred",
		Room:     "AB12",
		Tick:     42,
		Severity: logging.SeverityInfo,
		Actor:    logging.EntityRef{ID: "p1", Kind: logging.EntityKindPlayer},
		Targets:  []logging.EntityRef{{ID: "p2", Kind: logging.EntityKindPlayer}},
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	line := buf.String()
	for _, want := range []string{"[gameplay.tag_transferred]", "room=AB12", "tick=42", "player:p1", "targets=player:p2", "severity=info"} {
		if !strings.Contains(line, want) {
			t.Fatalf("console line %q missing %q", line, want)
		}
	}
}

func TestJSONWritesNDJSON(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSON(&buf, 0)

	events := []logging.Event{
		{Type: "lifecycle.room_created", Room: "AB12"},
		{Type: "lifecycle.player_joined", Room: "AB12"},
	}
	for _, event := range events {
		if err := sink.Write(event); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for i, line := range lines {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(line), &decoded); err != nil {
			t.Fatalf("line %d not valid JSON: %v", i, err)
		}
		if decoded["type"] != string(events[i].Type) {
			t.Fatalf("line %d type = %v, want %s", i, decoded["type"], events[i].Type)
		}
	}
}

func TestMemoryRecordsAndResets(t *testing.T) {
	sink := NewMemory()
	sink.Write(logging.Event{Type: "a"})
	sink.Write(logging.Event{Type: "b"})

	events := sink.Events()
	if len(events) != 2 || events[0].Type != "a" || events[1].Type != "b" {
		t.Fatalf("events = %v, want [a b] in order", events)
	}

	sink.Reset()
	if got := sink.Events(); len(got) != 0 {
		t.Fatalf("events after Reset = %v, want none", got)
	}
}

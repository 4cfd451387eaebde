package gameplay

import (
	"context"

	"tag-arena/server/logging"
)

const (
	// EventTagTransferred is emitted when It passes between two players.
	EventTagTransferred logging.EventType = "gameplay.tag_transferred"
	// EventItReassigned is emitted when the It player leaves and another is chosen.
	EventItReassigned logging.EventType = "gameplay.it_reassigned"
)

// TagTransferredPayload records where the tag landed.
type TagTransferredPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TagTransferred publishes a tag transfer from actor to target.
func TagTransferred(ctx context.Context, pub logging.Publisher, room string, tick uint64, from, to logging.EntityRef, payload TagTransferredPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTagTransferred,
		Tick:     tick,
		Room:     room,
		Actor:    from,
		Targets:  []logging.EntityRef{to},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

// ItReassigned publishes the fallback It selection after the It player left.
func ItReassigned(ctx context.Context, pub logging.Publisher, room string, tick uint64, to logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventItReassigned,
		Tick:     tick,
		Room:     room,
		Actor:    to,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
	})
}

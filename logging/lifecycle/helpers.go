package lifecycle

import (
	"context"

	"tag-arena/server/logging"
)

const (
	// EventRoomCreated is emitted when the registry mints a new room.
	EventRoomCreated logging.EventType = "lifecycle.room_created"
	// EventRoomDestroyed is emitted when the last player leaves a room.
	EventRoomDestroyed logging.EventType = "lifecycle.room_destroyed"
	// EventPlayerJoined is emitted when a connection takes a slot in a room.
	EventPlayerJoined logging.EventType = "lifecycle.player_joined"
	// EventPlayerLeft is emitted when a connection leaves or drops.
	EventPlayerLeft logging.EventType = "lifecycle.player_left"
	// EventGameStarted is emitted when a room transitions to started.
	EventGameStarted logging.EventType = "lifecycle.game_started"
)

// PlayerJoinedPayload captures slot assignment for a new player.
type PlayerJoinedPayload struct {
	Slot   int     `json:"slot"`
	SpawnX float64 `json:"spawnX"`
	SpawnY float64 `json:"spawnY"`
}

// PlayerLeftPayload captures the reason a player left.
type PlayerLeftPayload struct {
	Reason string `json:"reason"`
}

// GameStartedPayload records which player was chosen as It.
type GameStartedPayload struct {
	ItPlayer string `json:"itPlayer"`
	Players  int    `json:"players"`
}

// RoomCreated publishes a room creation event.
func RoomCreated(ctx context.Context, pub logging.Publisher, room string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRoomCreated,
		Room:     room,
		Actor:    logging.EntityRef{ID: room, Kind: logging.EntityKindRoom},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
	})
}

// RoomDestroyed publishes a room teardown event.
func RoomDestroyed(ctx context.Context, pub logging.Publisher, room string, tick uint64) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRoomDestroyed,
		Tick:     tick,
		Room:     room,
		Actor:    logging.EntityRef{ID: room, Kind: logging.EntityKindRoom},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
	})
}

// PlayerJoined publishes a player join event.
func PlayerJoined(ctx context.Context, pub logging.Publisher, room string, actor logging.EntityRef, payload PlayerJoinedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerJoined,
		Room:     room,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}

// PlayerLeft publishes a player departure event.
func PlayerLeft(ctx context.Context, pub logging.Publisher, room string, tick uint64, actor logging.EntityRef, payload PlayerLeftPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerLeft,
		Tick:     tick,
		Room:     room,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}

// GameStarted publishes a game start event.
func GameStarted(ctx context.Context, pub logging.Publisher, room string, payload GameStartedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventGameStarted,
		Room:     room,
		Actor:    logging.EntityRef{ID: room, Kind: logging.EntityKindRoom},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}

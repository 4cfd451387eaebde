package net

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"tag-arena/server/internal/game"
	"tag-arena/server/internal/telemetry"
	"tag-arena/server/logging"
)

const (
	writeWait         = 10 * time.Second
	HeartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * HeartbeatInterval
)

// HubConfig wires the hub's collaborators.
type HubConfig struct {
	Logger    telemetry.Logger
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
	// LogStats reports the logging router's counters for diagnostics.
	LogStats func() logging.RouterStats
	// BroadcastEvery forwards snapshots every N ticks (default 1).
	BroadcastEvery int
	// TickInterval overrides the simulation cadence; tests shrink it.
	TickInterval time.Duration
	// Seed fixes randomness for tests; 0 seeds from the clock.
	Seed int64
}

// Hub is the network boundary: it owns the room registry, tracks live
// sessions, translates wire events into registry calls, and fans room
// snapshots back out to members.
type Hub struct {
	registry  *game.Registry
	logger    telemetry.Logger
	publisher logging.Publisher
	metrics   telemetry.Metrics
	logStats  func() logging.RouterStats

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewHub builds a hub with its own registry.
func NewHub(cfg HubConfig) *Hub {
	if cfg.Logger == nil {
		cfg.Logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NopMetrics()
	}
	return &Hub{
		registry: game.NewRegistry(game.RegistryConfig{
			Logger:         cfg.Logger,
			Publisher:      cfg.Publisher,
			TickInterval:   cfg.TickInterval,
			BroadcastEvery: cfg.BroadcastEvery,
			Seed:           cfg.Seed,
		}),
		logger:    cfg.Logger,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		logStats:  cfg.LogStats,
		sessions:  make(map[string]*Session),
	}
}

// Registry exposes the room table for diagnostics and tests.
func (h *Hub) Registry() *game.Registry { return h.registry }

// Register tracks a freshly upgraded connection.
func (h *Hub) Register(connID string, conn sessionConn) *Session {
	sess := newSession(connID, conn)
	h.mu.Lock()
	if existing, ok := h.sessions[connID]; ok {
		existing.Close()
	}
	h.sessions[connID] = sess
	h.mu.Unlock()
	h.metrics.Add("connections_opened", 1)
	h.publisher.Publish(context.Background(), logging.Event{
		Type:     "network.connected",
		Actor:    logging.EntityRef{ID: connID, Kind: logging.EntityKindPlayer},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
	})
	return sess
}

// Disconnect removes the session and pulls the connection out of its room.
// Safe for unknown connections; the registry tears the room down when the
// last member leaves.
func (h *Hub) Disconnect(connID string) {
	h.mu.Lock()
	sess, ok := h.sessions[connID]
	if ok {
		delete(h.sessions, connID)
	}
	h.mu.Unlock()

	if ok {
		sess.Close()
		h.metrics.Add("connections_closed", 1)
		h.publisher.Publish(context.Background(), logging.Event{
			Type:     "network.disconnected",
			Actor:    logging.EntityRef{ID: connID, Kind: logging.EntityKindPlayer},
			Severity: logging.SeverityInfo,
			Category: logging.CategoryNetwork,
		})
	}
	h.registry.RemoveConnection(connID)
}

// CreateRoom mints a new room for the requesting connection.
func (h *Hub) CreateRoom() string {
	return h.registry.CreateRoom()
}

// JoinRoom seats the connection in the coded room.
func (h *Hub) JoinRoom(connID, code string) (game.Player, error) {
	return h.registry.Join(code, connID)
}

// StartGame begins the room's fixed-rate simulation and announces the start
// to every member. Repeated requests for a running room are silent no-ops.
func (h *Hub) StartGame(code string) error {
	started, err := h.registry.StartGame(code, func(snap game.Snapshot) {
		h.broadcastRoom(code, snap)
	})
	if err != nil {
		return err
	}
	if !started {
		return nil
	}

	msg := GameStartedMessage{Ver: ProtocolVersion, Type: TypeGameStarted, Room: code}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("failed to marshal gameStarted for %s: %v", code, err)
		return nil
	}
	h.writeToRoom(code, data)
	return nil
}

// ApplyInput forwards an intent; connections outside a room are ignored.
func (h *Hub) ApplyInput(connID string, intent game.Input) {
	h.registry.ApplyInput(connID, intent)
}

// Heartbeat records liveness for the session and returns the measured RTT.
func (h *Hub) Heartbeat(connID string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	h.mu.Lock()
	sess, ok := h.sessions[connID]
	h.mu.Unlock()
	if !ok {
		return 0, false
	}
	return sess.Touch(receivedAt, clientSent), true
}

// broadcastRoom sends one marshalled snapshot to every member. A failed
// write disconnects only that session; the disconnect runs on its own
// goroutine because it may stop the very loop this call came from.
func (h *Hub) broadcastRoom(code string, snap game.Snapshot) {
	msg := StateMessage{
		Ver:        ProtocolVersion,
		Type:       TypeUpdateState,
		Room:       code,
		Players:    snap.Players,
		Platforms:  snap.Platforms,
		Tick:       snap.Tick,
		ServerTime: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("failed to marshal state for %s: %v", code, err)
		return
	}

	h.metrics.Add("snapshots_broadcast", 1)
	for _, sess := range h.roomSessions(snap.Players) {
		if err := sess.Write(data); err != nil {
			h.logger.Printf("failed to send update to %s: %v", sess.ID(), err)
			go h.Disconnect(sess.ID())
		}
	}
}

func (h *Hub) writeToRoom(code string, data []byte) {
	room, ok := h.registry.Get(code)
	if !ok {
		return
	}
	for _, sess := range h.roomSessions(room.Snapshot().Players) {
		if err := sess.Write(data); err != nil {
			h.logger.Printf("failed to send to %s: %v", sess.ID(), err)
			go h.Disconnect(sess.ID())
		}
	}
}

func (h *Hub) roomSessions(players []game.Player) []*Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	sessions := make([]*Session, 0, len(players))
	for _, p := range players {
		if sess, ok := h.sessions[p.ID]; ok {
			sessions = append(sessions, sess)
		}
	}
	return sessions
}

// Run reaps connections whose heartbeats stopped, covering clients that
// vanish without a close frame. Blocks until stop closes.
func (h *Hub) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			for _, id := range h.staleSessions(now) {
				h.logger.Printf("disconnecting %s due to heartbeat timeout", id)
				h.Disconnect(id)
			}
		}
	}
}

func (h *Hub) staleSessions(now time.Time) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var stale []string
	for id, sess := range h.sessions {
		if now.Sub(sess.LastHeartbeat()) > disconnectAfter {
			stale = append(stale, id)
		}
	}
	return stale
}

// DiagnosticsSnapshot summarizes hub state for the diagnostics endpoint.
type DiagnosticsSnapshot struct {
	Connections int               `json:"connections"`
	Rooms       int               `json:"rooms"`
	Players     int               `json:"players"`
	TickRate    int               `json:"tickRate"`
	Counters    map[string]uint64 `json:"counters,omitempty"`
	LogEvents   uint64            `json:"logEvents"`
	LogDropped  uint64            `json:"logDropped"`
}

func (h *Hub) Diagnostics() DiagnosticsSnapshot {
	h.mu.Lock()
	connections := len(h.sessions)
	h.mu.Unlock()

	rooms, players := h.registry.Counts()
	snap := DiagnosticsSnapshot{
		Connections: connections,
		Rooms:       rooms,
		Players:     players,
		TickRate:    game.TickRate,
	}
	if src, ok := h.metrics.(interface{ Snapshot() map[string]uint64 }); ok {
		snap.Counters = src.Snapshot()
	}
	if h.logStats != nil {
		stats := h.logStats()
		snap.LogEvents = stats.EventsTotal
		snap.LogDropped = stats.DroppedTotal
	}
	return snap
}

// errorText maps domain errors onto the transient wire notification.
func errorText(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return "room not found"
	case errors.Is(err, game.ErrRoomFull):
		return "room is full"
	case errors.Is(err, game.ErrInvalidRoomCode):
		return "room code must be 4 characters"
	case errors.Is(err, game.ErrNotEnoughPlayers):
		return "need at least 2 players to start"
	default:
		return "internal error"
	}
}

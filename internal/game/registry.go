package game

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"tag-arena/server/internal/telemetry"
	"tag-arena/server/logging"
	"tag-arena/server/logging/lifecycle"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RegistryConfig carries the dependencies shared by every room.
type RegistryConfig struct {
	Logger    telemetry.Logger
	Publisher logging.Publisher
	// Platforms overrides the layout used for new rooms; nil means the
	// default set.
	Platforms []Platform
	// TickInterval and BroadcastEvery are forwarded to each room's loop.
	TickInterval   time.Duration
	BroadcastEvery int
	// Seed fixes code generation and It selection for tests; 0 seeds from
	// the clock.
	Seed int64
}

type roomHandle struct {
	room *Room
	loop *Loop
}

// Registry is the process-wide room table. Its mutex guards only the
// code-to-room mapping; each room serializes its own state behind its own
// lock so rooms stay independent.
type Registry struct {
	cfg RegistryConfig

	mu     sync.Mutex
	rooms  map[string]*roomHandle
	byConn map[string]string
	rng    *rand.Rand
}

// NewRegistry builds an empty registry; it lives for the process lifetime.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = TickInterval
	}
	if cfg.BroadcastEvery <= 0 {
		cfg.BroadcastEvery = 1
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Registry{
		cfg:    cfg,
		rooms:  make(map[string]*roomHandle),
		byConn: make(map[string]string),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// CreateRoom mints an empty room under a fresh 4-character code.
func (reg *Registry) CreateRoom() string {
	reg.mu.Lock()
	var code string
	for {
		code = reg.generateCodeLocked()
		if _, taken := reg.rooms[code]; !taken {
			break
		}
	}
	room := NewRoom(code, reg.cfg.Platforms, reg.cfg.Publisher, rand.New(rand.NewSource(reg.rng.Int63())))
	reg.rooms[code] = &roomHandle{room: room}
	reg.mu.Unlock()

	lifecycle.RoomCreated(context.Background(), reg.cfg.Publisher, code)
	return code
}

func (reg *Registry) generateCodeLocked() string {
	buf := make([]byte, RoomCodeLength)
	for i := range buf {
		buf[i] = codeAlphabet[reg.rng.Intn(len(codeAlphabet))]
	}
	return string(buf)
}

// Join seats a connection in the room identified by code. A connection can
// occupy at most one room; joining again moves it, but only once the new seat
// is secured — a failed join leaves the current seat untouched.
func (reg *Registry) Join(code, connID string) (Player, error) {
	code = strings.ToUpper(code)
	if len(code) != RoomCodeLength {
		return Player{}, ErrInvalidRoomCode
	}

	reg.mu.Lock()
	handle, ok := reg.rooms[code]
	if !ok {
		reg.mu.Unlock()
		return Player{}, ErrRoomNotFound
	}
	prev, seated := reg.byConn[connID]
	if seated && prev == code {
		// Rejoining the current room keeps the existing seat.
		player, ok := handle.room.Player(connID)
		reg.mu.Unlock()
		if ok {
			return player, nil
		}
		return Player{}, ErrRoomNotFound
	}
	player, err := handle.room.AddPlayer(connID)
	if err != nil {
		reg.mu.Unlock()
		return Player{}, err
	}
	reg.byConn[connID] = code
	reg.mu.Unlock()

	if seated {
		reg.vacate(prev, connID)
	}

	lifecycle.PlayerJoined(context.Background(), reg.cfg.Publisher, code,
		logging.EntityRef{ID: connID, Kind: logging.EntityKindPlayer},
		lifecycle.PlayerJoinedPayload{Slot: player.Slot, SpawnX: player.X, SpawnY: player.Y})
	return player, nil
}

// StartGame begins ticking a room once it holds at least two players. The
// snapshot callback fires on the broadcast cadence for the life of the room.
// Idempotent: a started room is left alone, reported by started=false so the
// caller can skip a duplicate announcement.
func (reg *Registry) StartGame(code string, onSnapshot func(Snapshot)) (started bool, err error) {
	reg.mu.Lock()
	handle, ok := reg.rooms[code]
	if !ok {
		reg.mu.Unlock()
		return false, ErrRoomNotFound
	}
	room := handle.room
	if room.PlayerCount() < 2 {
		reg.mu.Unlock()
		return false, ErrNotEnoughPlayers
	}
	itID := room.Start()
	if itID == "" {
		// Already running.
		reg.mu.Unlock()
		return false, nil
	}
	loop := NewLoop(room, LoopConfig{
		Interval:       reg.cfg.TickInterval,
		BroadcastEvery: reg.cfg.BroadcastEvery,
		Logger:         reg.cfg.Logger,
		OnSnapshot:     onSnapshot,
	})
	handle.loop = loop
	loop.Start()
	players := room.PlayerCount()
	reg.mu.Unlock()

	lifecycle.GameStarted(context.Background(), reg.cfg.Publisher, code,
		lifecycle.GameStartedPayload{ItPlayer: itID, Players: players})
	return true, nil
}

// ApplyInput forwards an intent to whatever room the connection occupies.
// Connections without a room are silently ignored.
func (reg *Registry) ApplyInput(connID string, intent Input) {
	reg.mu.Lock()
	var room *Room
	if code, ok := reg.byConn[connID]; ok {
		if handle, ok := reg.rooms[code]; ok {
			room = handle.room
		}
	}
	reg.mu.Unlock()

	if room != nil {
		room.ApplyInput(connID, intent)
	}
}

// RemoveConnection pulls a connection out of its room, if any. When the room
// empties its loop is stopped before the room is deleted, so no tick can
// reference freed state. Safe to call for unknown connections.
func (reg *Registry) RemoveConnection(connID string) {
	reg.mu.Lock()
	code, ok := reg.byConn[connID]
	if !ok {
		reg.mu.Unlock()
		return
	}
	delete(reg.byConn, connID)
	reg.mu.Unlock()

	reg.vacate(code, connID)
}

// vacate pulls a connection out of the coded room without touching the
// connection mapping; Join rebinds the mapping before calling this.
func (reg *Registry) vacate(code, connID string) {
	reg.mu.Lock()
	handle, ok := reg.rooms[code]
	if !ok {
		reg.mu.Unlock()
		return
	}
	removed, empty := handle.room.RemovePlayer(connID)
	var loop *Loop
	if empty {
		loop = handle.loop
		delete(reg.rooms, code)
	}
	reg.mu.Unlock()

	if removed {
		lifecycle.PlayerLeft(context.Background(), reg.cfg.Publisher, code, 0,
			logging.EntityRef{ID: connID, Kind: logging.EntityKindPlayer},
			lifecycle.PlayerLeftPayload{Reason: "disconnect"})
	}
	if empty {
		if loop != nil {
			loop.Stop()
		}
		lifecycle.RoomDestroyed(context.Background(), reg.cfg.Publisher, code, 0)
	}
}

// Get returns the room registered under code.
func (reg *Registry) Get(code string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	handle, ok := reg.rooms[code]
	if !ok {
		return nil, false
	}
	return handle.room, true
}

// RoomFor returns the code of the room the connection occupies.
func (reg *Registry) RoomFor(connID string) (string, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	code, ok := reg.byConn[connID]
	return code, ok
}

// Counts reports the registry size for diagnostics.
func (reg *Registry) Counts() (rooms, players int) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	rooms = len(reg.rooms)
	for _, handle := range reg.rooms {
		players += handle.room.PlayerCount()
	}
	return rooms, players
}

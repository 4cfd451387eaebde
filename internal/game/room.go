package game

import (
	"context"
	"math/rand"
	"sync"

	"tag-arena/server/logging"
	"tag-arena/server/logging/gameplay"
)

// Room owns one platform set and up to MaxPlayers player entities and advances
// them one fixed tick at a time. All state is guarded by a per-room mutex so
// concurrent input never interleaves with a step; rooms never share locks.
type Room struct {
	code      string
	platforms []Platform
	publisher logging.Publisher

	mu      sync.Mutex
	players map[string]*playerState
	order   []string
	started bool
	tick    uint64
	rng     *rand.Rand
}

// NewRoom builds an empty, not-yet-started room. The rng drives It selection
// and is owned by the room (callers must not share it across rooms).
func NewRoom(code string, platforms []Platform, publisher logging.Publisher, rng *rand.Rand) *Room {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if platforms == nil {
		platforms = DefaultPlatforms()
	}
	return &Room{
		code:      code,
		platforms: platforms,
		publisher: publisher,
		players:   make(map[string]*playerState),
		rng:       rng,
	}
}

func (r *Room) Code() string { return r.code }

// AddPlayer seats a connection at the next free slot. Slots are assigned in
// join order and never reassigned while the player stays.
func (r *Room) AddPlayer(connID string) (Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) >= MaxPlayers {
		return Player{}, ErrRoomFull
	}

	slot := r.freeSlotLocked()
	state := newPlayerState(connID, slot)
	r.players[connID] = state
	r.order = append(r.order, connID)
	return state.Player, nil
}

func (r *Room) freeSlotLocked() int {
	used := [MaxPlayers]bool{}
	for _, state := range r.players {
		if state.Slot >= 0 && state.Slot < MaxPlayers {
			used[state.Slot] = true
		}
	}
	for slot := 0; slot < MaxPlayers; slot++ {
		if !used[slot] {
			return slot
		}
	}
	return MaxPlayers - 1
}

// RemovePlayer drops a connection from the room. If the departing player was
// It and the game is running, It moves to a random remaining player so the
// room never runs without one. Returns whether the player existed and whether
// the room is now empty.
func (r *Room) RemovePlayer(connID string) (removed bool, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.players[connID]
	if !ok {
		return false, len(r.players) == 0
	}
	delete(r.players, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if state.IsIt && r.started && len(r.order) > 0 {
		next := r.players[r.order[r.rng.Intn(len(r.order))]]
		next.IsIt = true
		next.TagCooldown = tagCooldownTicks
		gameplay.ItReassigned(context.Background(), r.publisher, r.code, r.tick,
			logging.EntityRef{ID: next.ID, Kind: logging.EntityKindPlayer})
	}

	return true, len(r.players) == 0
}

// Player returns the current state of a seated connection.
func (r *Room) Player(connID string) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.players[connID]
	if !ok {
		return Player{}, false
	}
	return state.Player, true
}

// PlayerCount reports the current number of seated connections.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Started reports whether the game has begun.
func (r *Room) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// ApplyInput replaces the buffered intent for a connection. Unknown
// connections are a no-op; the player may have left mid-flight.
func (r *Room) ApplyInput(connID string, intent Input) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.players[connID]; ok {
		state.intent = intent
	}
}

// Start marks the room started and picks one uniformly random player as It.
// Idempotent: repeat calls are no-ops. Returns the chosen It player's ID, or
// "" when the call did not start the game.
func (r *Room) Start() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started || len(r.order) == 0 {
		return ""
	}
	r.started = true
	it := r.players[r.order[r.rng.Intn(len(r.order))]]
	it.IsIt = true
	return it.ID
}

// Step advances the simulation by exactly one fixed tick: per-player control,
// jump, integration, world bounds, and platform resolution in registration
// order, then cooldown decay and tag arbitration across the whole room.
func (r *Room) Step() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tick++

	for _, id := range r.order {
		r.stepPlayerLocked(r.players[id])
	}

	for _, id := range r.order {
		if p := r.players[id]; p.TagCooldown > 0 {
			p.TagCooldown--
		}
	}
	r.resolveTagsLocked()

	if r.started && r.tick%scoreEveryTicks == 0 {
		for _, id := range r.order {
			if p := r.players[id]; !p.IsIt {
				p.Score++
			}
		}
	}
}

func (r *Room) stepPlayerLocked(p *playerState) {
	if p.intent.Left {
		p.VX -= runAccel
		p.FacingRight = false
	}
	if p.intent.Right {
		p.VX += runAccel
		p.FacingRight = true
	}
	if p.intent.Up && p.Grounded {
		p.VY = jumpVelocity
		p.Grounded = false
	}

	p.VY += gravity
	p.VX *= friction
	if p.VX > maxSpeedX {
		p.VX = maxSpeedX
	} else if p.VX < -maxSpeedX {
		p.VX = -maxSpeedX
	}
	p.X += p.VX
	p.Y += p.VY

	if p.X < 0 {
		p.X = 0
		p.VX = 0
	} else if p.X > RoomWidth-p.Width {
		p.X = RoomWidth - p.Width
		p.VX = 0
	}
	if p.Y > RoomHeight {
		p.X = RoomWidth / 2
		p.Y = 0
		p.VY = 0
	}

	r.resolvePlatformsLocked(p)
}

// resolvePlatformsLocked pushes the player out of every overlapping platform
// along the axis of minimum penetration. Platforms are resolved independently
// in iteration order; adjacent platforms can therefore interact, which is an
// accepted trade-off of the reference behavior.
func (r *Room) resolvePlatformsLocked(p *playerState) {
	p.Grounded = false
	for _, plat := range r.platforms {
		if !plat.overlapsBox(p.X, p.Y, p.Width, p.Height) {
			continue
		}

		leftPen := p.X + p.Width - plat.X
		rightPen := plat.X + plat.Width - p.X
		topPen := p.Y + p.Height - plat.Y
		bottomPen := plat.Y + plat.Height - p.Y

		minPen := leftPen
		if rightPen < minPen {
			minPen = rightPen
		}
		if topPen < minPen {
			minPen = topPen
		}
		if bottomPen < minPen {
			minPen = bottomPen
		}

		switch {
		case minPen == topPen && p.VY >= 0:
			p.Y = plat.Y - p.Height
			p.VY = 0
			p.Grounded = true
		case minPen == bottomPen && p.VY < 0:
			p.Y = plat.Y + plat.Height
			p.VY = 0
		default:
			if leftPen < rightPen {
				p.X = plat.X - p.Width
			} else {
				p.X = plat.X + plat.Width
			}
			p.VX = 0
		}
	}
}

// resolveTagsLocked evaluates every ordered pair once. A transfer within the
// tick can enable further transfers in later pairs; that chain is accepted.
func (r *Room) resolveTagsLocked() {
	for _, idA := range r.order {
		a := r.players[idA]
		if !a.IsIt || a.TagCooldown > 0 {
			continue
		}
		for _, idB := range r.order {
			if idA == idB {
				continue
			}
			b := r.players[idB]
			if b.IsIt || b.TagCooldown > 0 || !a.overlaps(b) {
				continue
			}

			a.IsIt = false
			b.IsIt = true
			a.TagCooldown = tagCooldownTicks
			b.TagCooldown = tagCooldownTicks

			dir := 1.0
			if b.X < a.X {
				dir = -1.0
			}
			b.VX += tagPushX * dir
			b.VY += tagPushY
			a.VX -= tagPushX * dir

			gameplay.TagTransferred(context.Background(), r.publisher, r.code, r.tick,
				logging.EntityRef{ID: a.ID, Kind: logging.EntityKindPlayer},
				logging.EntityRef{ID: b.ID, Kind: logging.EntityKindPlayer},
				gameplay.TagTransferredPayload{X: b.X, Y: b.Y})
			break
		}
	}
}

// Snapshot copies the broadcast-visible state. Buffered intents stay private.
type Snapshot struct {
	Players   []Player   `json:"players"`
	Platforms []Platform `json:"platforms"`
	Tick      uint64     `json:"tick"`
}

func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	players := make([]Player, 0, len(r.order))
	for _, id := range r.order {
		players = append(players, r.players[id].Player)
	}
	platforms := make([]Platform, len(r.platforms))
	copy(platforms, r.platforms)
	return Snapshot{Players: players, Platforms: platforms, Tick: r.tick}
}

// SetPlayerForTest positions a player directly; only tests use this.
func (r *Room) SetPlayerForTest(connID string, x, y float64, isIt bool, cooldown int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.players[connID]
	if !ok {
		return false
	}
	state.X = x
	state.Y = y
	state.IsIt = isIt
	state.TagCooldown = cooldown
	return true
}

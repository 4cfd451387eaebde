package game

import (
	"strings"
	"testing"
	"time"
)

func newTestRegistry() *Registry {
	return NewRegistry(RegistryConfig{
		TickInterval: time.Millisecond,
		Seed:         42,
	})
}

func TestCreateRoomCodeFormat(t *testing.T) {
	reg := newTestRegistry()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code := reg.CreateRoom()
		if len(code) != RoomCodeLength {
			t.Fatalf("code %q length = %d, want %d", code, len(code), RoomCodeLength)
		}
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("code %q contains %q outside the alphabet", code, c)
			}
		}
		if seen[code] {
			t.Fatalf("duplicate code %q", code)
		}
		seen[code] = true
	}
}

func TestJoinValidation(t *testing.T) {
	reg := newTestRegistry()

	if _, err := reg.Join("AB", "conn1"); err != ErrInvalidRoomCode {
		t.Fatalf("short code error = %v, want ErrInvalidRoomCode", err)
	}
	if _, err := reg.Join("ZZZZ", "conn1"); err != ErrRoomNotFound {
		t.Fatalf("unknown code error = %v, want ErrRoomNotFound", err)
	}

	code := reg.CreateRoom()
	player, err := reg.Join(code, "conn1")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if player.ID != "conn1" || player.Slot != 0 {
		t.Fatalf("joined player = %+v, want conn1 at slot 0", player)
	}
}

func TestJoinIsCaseInsensitive(t *testing.T) {
	reg := newTestRegistry()
	code := reg.CreateRoom()

	if _, err := reg.Join(strings.ToLower(code), "conn1"); err != nil {
		t.Fatalf("lowercase join failed: %v", err)
	}
	if got, ok := reg.RoomFor("conn1"); !ok || got != code {
		t.Fatalf("RoomFor = (%q, %v), want (%q, true)", got, ok, code)
	}
}

func TestJoinFullRoom(t *testing.T) {
	reg := newTestRegistry()
	code := reg.CreateRoom()

	for i := 0; i < MaxPlayers; i++ {
		if _, err := reg.Join(code, string(rune('a'+i))); err != nil {
			t.Fatalf("Join %d: %v", i, err)
		}
	}
	if _, err := reg.Join(code, "late"); err != ErrRoomFull {
		t.Fatalf("fifth join error = %v, want ErrRoomFull", err)
	}
	if _, players := reg.Counts(); players != MaxPlayers {
		t.Fatalf("players = %d after rejected join, want %d", players, MaxPlayers)
	}
}

func TestJoinMovesConnectionBetweenRooms(t *testing.T) {
	reg := newTestRegistry()
	first := reg.CreateRoom()
	second := reg.CreateRoom()

	if _, err := reg.Join(first, "conn1"); err != nil {
		t.Fatalf("join first: %v", err)
	}
	if _, err := reg.Join(second, "conn1"); err != nil {
		t.Fatalf("join second: %v", err)
	}

	if got, _ := reg.RoomFor("conn1"); got != second {
		t.Fatalf("RoomFor = %q, want %q", got, second)
	}
	// The first room emptied and must be gone.
	if _, ok := reg.Get(first); ok {
		t.Fatalf("empty room %q still registered", first)
	}
}

func TestFailedJoinKeepsCurrentSeat(t *testing.T) {
	reg := newTestRegistry()
	code := reg.CreateRoom()
	reg.Join(code, "conn1")
	reg.Join(code, "conn2")
	if _, err := reg.StartGame(code, nil); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	defer func() {
		reg.RemoveConnection("conn1")
		reg.RemoveConnection("conn2")
	}()

	// A mistyped code must not drop the player from their running game.
	if _, err := reg.Join("ZZZZ", "conn1"); err != ErrRoomNotFound {
		t.Fatalf("unknown-room join error = %v, want ErrRoomNotFound", err)
	}
	if got, ok := reg.RoomFor("conn1"); !ok || got != code {
		t.Fatalf("RoomFor after failed join = (%q, %v), want (%q, true)", got, ok, code)
	}
	room, ok := reg.Get(code)
	if !ok {
		t.Fatalf("room %q gone after failed join", code)
	}
	if got := room.PlayerCount(); got != 2 {
		t.Fatalf("player count = %d after failed join, want 2", got)
	}

	// A full target room must leave the seat untouched too.
	full := reg.CreateRoom()
	for i := 0; i < MaxPlayers; i++ {
		if _, err := reg.Join(full, string(rune('w'+i))); err != nil {
			t.Fatalf("fill join %d: %v", i, err)
		}
	}
	if _, err := reg.Join(full, "conn1"); err != ErrRoomFull {
		t.Fatalf("full-room join error = %v, want ErrRoomFull", err)
	}
	if got, ok := reg.RoomFor("conn1"); !ok || got != code {
		t.Fatalf("RoomFor after full-room join = (%q, %v), want (%q, true)", got, ok, code)
	}
}

func TestRejoinSameRoomKeepsSlot(t *testing.T) {
	reg := newTestRegistry()
	code := reg.CreateRoom()
	first, err := reg.Join(code, "conn1")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	again, err := reg.Join(code, "conn1")
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if again.Slot != first.Slot {
		t.Fatalf("rejoin slot = %d, want original %d", again.Slot, first.Slot)
	}
	room, _ := reg.Get(code)
	if got := room.PlayerCount(); got != 1 {
		t.Fatalf("player count = %d after rejoin, want 1", got)
	}
}

func TestStartGameNeedsTwoPlayers(t *testing.T) {
	reg := newTestRegistry()
	code := reg.CreateRoom()

	if _, err := reg.StartGame(code, nil); err != ErrNotEnoughPlayers {
		t.Fatalf("empty-room start error = %v, want ErrNotEnoughPlayers", err)
	}
	if _, err := reg.Join(code, "conn1"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := reg.StartGame(code, nil); err != ErrNotEnoughPlayers {
		t.Fatalf("single-player start error = %v, want ErrNotEnoughPlayers", err)
	}
	if _, err := reg.StartGame("ZZZZ", nil); err != ErrRoomNotFound {
		t.Fatalf("unknown-room start error = %v, want ErrRoomNotFound", err)
	}
}

func TestStartGameTicksAndBroadcasts(t *testing.T) {
	reg := newTestRegistry()
	code := reg.CreateRoom()
	reg.Join(code, "conn1")
	reg.Join(code, "conn2")

	snapshots := make(chan Snapshot, 64)
	started, err := reg.StartGame(code, func(snap Snapshot) {
		select {
		case snapshots <- snap:
		default:
		}
	})
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if !started {
		t.Fatalf("first StartGame reported started = false")
	}

	select {
	case snap := <-snapshots:
		if len(snap.Players) != 2 {
			t.Fatalf("snapshot has %d players, want 2", len(snap.Players))
		}
		if snap.Tick == 0 {
			t.Fatalf("snapshot tick = 0, want post-step tick")
		}
		itCount := 0
		for _, p := range snap.Players {
			if p.IsIt {
				itCount++
			}
		}
		if itCount != 1 {
			t.Fatalf("snapshot It count = %d, want exactly 1", itCount)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no snapshot within 2s")
	}

	// Starting again is a no-op, not an error, and must say so.
	started, err = reg.StartGame(code, nil)
	if err != nil {
		t.Fatalf("second StartGame: %v", err)
	}
	if started {
		t.Fatalf("second StartGame reported started = true")
	}

	reg.RemoveConnection("conn1")
	reg.RemoveConnection("conn2")
}

func TestRemoveConnectionDestroysEmptyRoom(t *testing.T) {
	reg := newTestRegistry()
	code := reg.CreateRoom()
	reg.Join(code, "conn1")
	reg.Join(code, "conn2")
	if _, err := reg.StartGame(code, nil); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	reg.RemoveConnection("conn1")
	if _, ok := reg.Get(code); !ok {
		t.Fatalf("room destroyed while a player remains")
	}

	reg.RemoveConnection("conn2")
	if _, ok := reg.Get(code); ok {
		t.Fatalf("empty room %q still registered", code)
	}
	if rooms, players := reg.Counts(); rooms != 0 || players != 0 {
		t.Fatalf("Counts = (%d, %d) after teardown, want (0, 0)", rooms, players)
	}

	// Unknown connections are ignored.
	reg.RemoveConnection("ghost")
}

func TestApplyInputRoutesToRoom(t *testing.T) {
	reg := newTestRegistry()
	code := reg.CreateRoom()
	reg.Join(code, "conn1")

	reg.ApplyInput("conn1", Input{Right: true})
	room, _ := reg.Get(code)
	room.Step()
	if p := findPlayer(t, room, "conn1"); p.VX <= 0 {
		t.Fatalf("VX = %v after right input, want positive", p.VX)
	}

	// No room, no panic.
	reg.ApplyInput("ghost", Input{Up: true})
}

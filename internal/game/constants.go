package game

import "time"

const (
	// RoomWidth and RoomHeight are the logical dimensions shared with clients.
	RoomWidth  = 1200.0
	RoomHeight = 800.0

	// TickRate is the fixed simulation and broadcast cadence.
	TickRate     = 60
	TickInterval = time.Second / TickRate

	MaxPlayers     = 4
	RoomCodeLength = 4

	playerWidth  = 40.0
	playerHeight = 40.0

	// Per-tick motion constants. The application order in Room.step is part of
	// the gameplay feel; friction runs after the control impulse.
	runAccel     = 0.8
	gravity      = 0.6
	friction     = 0.85
	maxSpeedX    = 6.0
	jumpVelocity = -15.0

	tagCooldownTicks = 60
	tagPushX         = 4.0
	tagPushY         = -5.0

	// scoreEveryTicks awards one survival point per second to players who are
	// not It while the game runs.
	scoreEveryTicks = 60
)

var slotColors = [MaxPlayers]string{"#e74c3c", "#3498db", "#2ecc71", "#f1c40f"}

var slotSpawnX = [MaxPlayers]float64{150, 450, 750, 1050}

const slotSpawnY = 100.0

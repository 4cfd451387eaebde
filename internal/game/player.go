package game

// Input is the latest movement intent received for a connection. New intents
// overwrite the previous one; only the most recent value before a tick counts.
type Input struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// Player is the wire-visible simulation state for one connection.
type Player struct {
	ID          string  `json:"id"`
	Slot        int     `json:"slot"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	VX          float64 `json:"vx"`
	VY          float64 `json:"vy"`
	Color       string  `json:"color"`
	IsIt        bool    `json:"isIt"`
	Grounded    bool    `json:"grounded"`
	FacingRight bool    `json:"facingRight"`
	TagCooldown int     `json:"tagCooldown"`
	Score       int     `json:"score"`
}

// playerState pairs the broadcast state with the buffered intent, which never
// leaves the server.
type playerState struct {
	Player
	intent Input
}

func newPlayerState(id string, slot int) *playerState {
	return &playerState{
		Player: Player{
			ID:          id,
			Slot:        slot,
			X:           slotSpawnX[slot],
			Y:           slotSpawnY,
			Width:       playerWidth,
			Height:      playerHeight,
			Color:       slotColors[slot],
			FacingRight: true,
		},
	}
}

func (p *playerState) overlaps(other *playerState) bool {
	return p.X < other.X+other.Width && p.X+p.Width > other.X &&
		p.Y < other.Y+other.Height && p.Y+p.Height > other.Y
}

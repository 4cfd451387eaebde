package game

// Platform is an axis-aligned static rectangle in room space. Platform sets
// are fixed at room creation and shared read-only by every player in the room.
type Platform struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultPlatforms returns the layout every room is built with: a full-width
// floor plus a ladder of floating ledges.
func DefaultPlatforms() []Platform {
	return []Platform{
		{X: 0, Y: 760, Width: 1200, Height: 40},
		{X: 100, Y: 620, Width: 220, Height: 20},
		{X: 480, Y: 540, Width: 240, Height: 20},
		{X: 880, Y: 620, Width: 220, Height: 20},
		{X: 280, Y: 400, Width: 200, Height: 20},
		{X: 720, Y: 400, Width: 200, Height: 20},
		{X: 500, Y: 260, Width: 200, Height: 20},
	}
}

func (p Platform) overlapsBox(x, y, w, h float64) bool {
	return x < p.X+p.Width && x+w > p.X && y < p.Y+p.Height && y+h > p.Y
}

package layout

import (
	"math"

	"github.com/alfredjeanlab/proofgraph/internal/model"
	"github.com/alfredjeanlab/proofgraph/internal/scene"
)

// Rect is an axis-aligned rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bounds returns the smallest rectangle containing every block, or the zero
// Rect for an empty scene.
func Bounds(s *scene.Scene, cfg Config) Rect {
	blocks := s.Blocks()
	if len(blocks) == 0 {
		return Rect{}
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, b := range blocks {
		minX = math.Min(minX, b.Position.X)
		minY = math.Min(minY, b.Position.Y)
		maxX = math.Max(maxX, b.Position.X+cfg.BlockWidth)
		maxY = math.Max(maxY, b.Position.Y+cfg.BlockHeight)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// SocketPosition returns where a socket sits on its block: inputs at the
// top center, outputs at the bottom center.
func SocketPosition(b *model.Block, dir model.SocketDirection, cfg Config) model.Position {
	x := b.Position.X + cfg.BlockWidth/2
	if dir == model.Output {
		return model.Position{X: x, Y: b.Position.Y + cfg.BlockHeight}
	}
	return model.Position{X: x, Y: b.Position.Y}
}

// Package layout places blocks on the canvas. Positions are the top-left
// corner of a block; every block shares the same width and height.
package layout

import (
	"fmt"

	"github.com/alfredjeanlab/proofgraph/internal/model"
	"github.com/alfredjeanlab/proofgraph/internal/scene"
)

// Config holds layout dimensions.
type Config struct {
	PropertyX        float64 `toml:"property_x"`
	BaseY            float64 `toml:"base_y"`
	PropertySpacingY float64 `toml:"property_spacing_y"`
	QueryYOffset     float64 `toml:"query_y_offset"`
	WitnessYOffset   float64 `toml:"witness_y_offset"`
	QuerySpacing     float64 `toml:"query_spacing"`
	BlockWidth       float64 `toml:"block_width"`
	BlockHeight      float64 `toml:"block_height"`
}

// DefaultConfig returns the standard canvas dimensions.
func DefaultConfig() Config {
	return Config{
		PropertyX:        0,
		BaseY:            0,
		PropertySpacingY: 400,
		QueryYOffset:     120,
		WitnessYOffset:   120,
		QuerySpacing:     40,
		BlockWidth:       180,
		BlockHeight:      60,
	}
}

// Validate rejects dimensions that cannot produce a layout.
func (c Config) Validate() error {
	if c.BlockWidth <= 0 || c.BlockHeight <= 0 {
		return fmt.Errorf("layout: block size must be positive, got %vx%v", c.BlockWidth, c.BlockHeight)
	}
	if c.QuerySpacing < 0 {
		return fmt.Errorf("layout: query spacing must not be negative, got %v", c.QuerySpacing)
	}
	return nil
}

// Engine computes block positions from tree shape and insertion order.
type Engine struct {
	cfg Config
}

// New returns an engine using cfg.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine's dimensions.
func (e *Engine) Config() Config { return e.cfg }

// Apply lays out every block. Properties are stacked in insertion order and
// each subtree is centered under its root. Blocks with no parent that are
// not properties keep their position and only their subtree is placed.
// Running Apply on an unchanged scene moves nothing.
func (e *Engine) Apply(s *scene.Scene) error {
	return s.Batch(func() error {
		for i, id := range s.Properties() {
			pos := model.Position{X: e.cfg.PropertyX, Y: e.cfg.BaseY + float64(i)*e.cfg.PropertySpacingY}
			if _, err := s.SetPosition(id, pos); err != nil {
				return err
			}
		}
		for _, b := range s.Blocks() {
			if b.HasParent() {
				continue
			}
			if err := e.placeChildren(s, b.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// Recenter re-runs the centering rule for the children of parent and
// everything below them. model.NoParent re-runs the whole layout.
func (e *Engine) Recenter(s *scene.Scene, parent model.BlockID) error {
	if parent == model.NoParent {
		return e.Apply(s)
	}
	return s.Batch(func() error {
		return e.placeChildren(s, parent)
	})
}

// Row returns the x coordinates of n children centered under parentX.
func (e *Engine) Row(parentX float64, n int) []float64 {
	if n == 0 {
		return nil
	}
	w, gap := e.cfg.BlockWidth, e.cfg.QuerySpacing
	total := float64(n)*w + float64(n-1)*gap
	start := parentX - (total-w)/2

	xs := make([]float64, n)
	for i := range xs {
		xs[i] = start + float64(i)*(w+gap)
	}
	return xs
}

func (e *Engine) placeChildren(s *scene.Scene, id model.BlockID) error {
	b, err := s.Block(id)
	if err != nil {
		return err
	}

	if b.Kind == model.KindQuery {
		for _, c := range b.Children {
			pos := model.Position{X: b.Position.X, Y: b.Position.Y + e.cfg.WitnessYOffset}
			if _, err := s.SetPosition(c, pos); err != nil {
				return err
			}
		}
		return nil
	}

	y := b.Position.Y + e.cfg.QueryYOffset
	for i, x := range e.Row(b.Position.X, len(b.Children)) {
		c := b.Children[i]
		if _, err := s.SetPosition(c, model.Position{X: x, Y: y}); err != nil {
			return err
		}
		if err := e.placeChildren(s, c); err != nil {
			return err
		}
	}
	return nil
}

// Attach keeps the layout current: whenever blocks are added, connected or
// removed, the affected parent rows are re-centered. Changes to the
// property column re-run the full layout. The returned function detaches
// the engine.
func (e *Engine) Attach(s *scene.Scene) func() {
	return s.Subscribe(func(c scene.Change) {
		switch c.Kind {
		case scene.ChangeAdded, scene.ChangeConnected, scene.ChangeRemoved:
		default:
			return
		}
		for _, p := range c.Parents {
			if p == model.NoParent {
				_ = e.Apply(s)
				return
			}
		}
		for _, p := range c.Parents {
			if s.Has(p) {
				_ = e.Recenter(s, p)
			}
		}
	})
}

package route

import (
	"fmt"
	"sort"

	"github.com/alfredjeanlab/proofgraph/internal/layout"
	"github.com/alfredjeanlab/proofgraph/internal/model"
	"github.com/alfredjeanlab/proofgraph/internal/scene"
)

// Router keeps one curve per edge of a scene.
type Router struct {
	scene  *scene.Scene
	cfg    layout.Config
	curves map[model.EdgeID]Curve
	hooks  []func([]model.EdgeID)
}

// NewRouter returns a router for s using cfg for block sizes.
func NewRouter(s *scene.Scene, cfg layout.Config) *Router {
	return &Router{scene: s, cfg: cfg, curves: make(map[model.EdgeID]Curve)}
}

// OnRouted registers fn to receive the ids of edges whose curves were
// recomputed or dropped by the attached router.
func (r *Router) OnRouted(fn func([]model.EdgeID)) {
	r.hooks = append(r.hooks, fn)
}

// Route computes and caches the curve of one edge, from the parent's output
// socket to the child's input socket.
func (r *Router) Route(id model.EdgeID) (Curve, error) {
	e, ok := r.scene.Edge(id)
	if !ok {
		return Curve{}, fmt.Errorf("route edge %d: unknown edge", id)
	}
	from, err := r.scene.Block(e.From)
	if err != nil {
		return Curve{}, fmt.Errorf("route edge %d: %w", id, err)
	}
	to, err := r.scene.Block(e.To)
	if err != nil {
		return Curve{}, fmt.Errorf("route edge %d: %w", id, err)
	}

	src := PointOf(layout.SocketPosition(from, model.Output, r.cfg))
	dst := PointOf(layout.SocketPosition(to, model.Input, r.cfg))
	c := Path(src, dst, model.Output)
	r.curves[id] = c
	return c, nil
}

// RouteAll recomputes every edge and forgets curves of edges that no
// longer exist.
func (r *Router) RouteAll() (map[model.EdgeID]Curve, error) {
	r.curves = make(map[model.EdgeID]Curve)
	for _, e := range r.scene.Edges() {
		if _, err := r.Route(e.ID); err != nil {
			return nil, err
		}
	}
	return r.Curves(), nil
}

// Curve returns the cached curve of an edge.
func (r *Router) Curve(id model.EdgeID) (Curve, bool) {
	c, ok := r.curves[id]
	return c, ok
}

// Curves returns a copy of every cached curve.
func (r *Router) Curves() map[model.EdgeID]Curve {
	out := make(map[model.EdgeID]Curve, len(r.curves))
	for id, c := range r.curves {
		out[id] = c
	}
	return out
}

// Attach recomputes only the edges touching blocks that moved or were
// connected, and drops curves of removed edges. The returned function
// detaches the router.
func (r *Router) Attach() func() {
	return r.scene.Subscribe(func(c scene.Change) {
		touched := make(map[model.EdgeID]struct{})
		switch c.Kind {
		case scene.ChangeCleared:
			for id := range r.curves {
				touched[id] = struct{}{}
			}
			r.curves = make(map[model.EdgeID]Curve)
		case scene.ChangeRemoved:
			for id := range r.curves {
				if _, ok := r.scene.Edge(id); !ok {
					delete(r.curves, id)
					touched[id] = struct{}{}
				}
			}
		case scene.ChangeAdded, scene.ChangeConnected, scene.ChangeMoved:
			for _, b := range c.Blocks {
				for _, id := range r.scene.EdgesOf(b) {
					if _, err := r.Route(id); err == nil {
						touched[id] = struct{}{}
					}
				}
			}
		default:
			return
		}
		r.emit(touched)
	})
}

func (r *Router) emit(touched map[model.EdgeID]struct{}) {
	if len(touched) == 0 {
		return
	}
	ids := make([]model.EdgeID, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, fn := range r.hooks {
		fn(ids)
	}
}

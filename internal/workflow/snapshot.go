package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/alfredjeanlab/proofgraph/internal/layout"
	"github.com/alfredjeanlab/proofgraph/internal/model"
)

// BlockView is the rendered state of one block.
type BlockView struct {
	ID       model.BlockID   `json:"id"`
	Kind     model.BlockKind `json:"kind"`
	Title    string          `json:"title"`
	Status   model.Status    `json:"status"`
	Position model.Position  `json:"position"`
	ParentID model.BlockID   `json:"parent_id"`
	Children []model.BlockID `json:"children"`

	Quantifier     model.Quantifier `json:"quantifier,omitempty"`
	Sequence       int              `json:"sequence,omitempty"`
	SourceRef      string           `json:"source_ref,omitempty"`
	Counterexample bool             `json:"counterexample,omitempty"`
	DataRef        string           `json:"data_ref,omitempty"`
}

// EdgeView is one edge with its routed curve.
type EdgeView struct {
	ID   model.EdgeID  `json:"id"`
	From model.BlockID `json:"from"`
	To   model.BlockID `json:"to"`
	Path string        `json:"path"`
}

// Snapshot is a serializable view of the whole workflow.
type Snapshot struct {
	RunID  string      `json:"run_id"`
	Blocks []BlockView `json:"blocks"`
	Edges  []EdgeView  `json:"edges"`
	Bounds layout.Rect `json:"bounds"`
}

// Snapshot captures the current blocks, edges and bounds.
func (s *Session) Snapshot() *Snapshot {
	snap := &Snapshot{
		RunID:  s.RunID,
		Blocks: []BlockView{},
		Edges:  []EdgeView{},
		Bounds: layout.Bounds(s.Scene, s.Layout.Config()),
	}
	for _, b := range s.Scene.Blocks() {
		snap.Blocks = append(snap.Blocks, viewOf(b))
	}
	for _, e := range s.Scene.Edges() {
		c, ok := s.Router.Curve(e.ID)
		if !ok {
			var err error
			if c, err = s.Router.Route(e.ID); err != nil {
				continue
			}
		}
		snap.Edges = append(snap.Edges, EdgeView{ID: e.ID, From: e.From, To: e.To, Path: c.SVGPath()})
	}
	return snap
}

func viewOf(b *model.Block) BlockView {
	v := BlockView{
		ID:       b.ID,
		Kind:     b.Kind,
		Title:    b.Title,
		Status:   b.Status,
		Position: b.Position,
		ParentID: b.ParentID,
		Children: append([]model.BlockID{}, b.Children...),
	}
	switch d := b.Data.(type) {
	case *model.PropertyData:
		v.Quantifier = d.Quantifier
	case *model.QueryData:
		v.Sequence = d.Sequence
		v.SourceRef = d.SourceRef
	case *model.WitnessData:
		v.Counterexample = d.IsCounterexample
		v.DataRef = d.DataRef
	}
	return v
}

// JSON encodes the snapshot with indentation.
func (s *Snapshot) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

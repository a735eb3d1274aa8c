package scene

import (
	"fmt"

	"github.com/alfredjeanlab/proofgraph/internal/model"
)

// Negation marker prefixed to the titles of negated queries.
const negationMark = "¬"

func defaultTitle(b *model.Block) string {
	switch b.Kind {
	case model.KindProperty:
		return "Property"
	case model.KindQuery:
		q := b.Query()
		if q.Negated {
			return fmt.Sprintf("%sQuery %d", negationMark, q.Sequence)
		}
		return fmt.Sprintf("Query %d", q.Sequence)
	case model.KindWitness:
		if b.Witness().IsCounterexample {
			return "Counter Example"
		}
		return "Witness"
	case model.KindAnd:
		return "AND"
	case model.KindOr:
		return "OR"
	}
	return string(b.Kind)
}

// AddProperty adds a top-level property block. An empty title falls back
// to "Property".
func (s *Scene) AddProperty(title string, q model.Quantifier) (model.BlockID, error) {
	return s.addBlock(model.KindProperty, model.NoParent, &model.PropertyData{Quantifier: q}, title)
}

// AddQuery adds a query under parent with the next global sequence number.
func (s *Scene) AddQuery(parent model.BlockID, negated bool, sourceRef string) (model.BlockID, error) {
	return s.addBlock(model.KindQuery, parent, &model.QueryData{Negated: negated, SourceRef: sourceRef}, "")
}

// AddConnector adds a logical And/Or block under parent.
func (s *Scene) AddConnector(parent model.BlockID, kind model.BlockKind) (model.BlockID, error) {
	if !kind.IsConnector() {
		return 0, fmt.Errorf("add connector: %s is not a connector kind: %w", kind, model.ErrInvalidPayload)
	}
	return s.addBlock(kind, parent, &model.ConnectorData{}, "")
}

// AddWitness attaches a witness below a query. Witnesses of negated queries
// are counterexamples.
func (s *Scene) AddWitness(query model.BlockID, dataRef string) (model.BlockID, error) {
	b, ok := s.blocks[query]
	if !ok {
		return 0, fmt.Errorf("add witness under %d: %w", query, model.ErrUnknownBlockID)
	}
	q := b.Query()
	if q == nil {
		return 0, fmt.Errorf("add witness under %d: %w", query, model.ErrNotQuery)
	}
	return s.addBlock(model.KindWitness, query, &model.WitnessData{
		IsCounterexample: q.Negated,
		DataRef:          dataRef,
	}, "")
}

// CheckInvariants verifies the structural invariants of the scene: every
// Input socket has at most one edge, children lists mirror parent ids,
// query sequences increase with creation order and edges reference live
// blocks through matching sockets.
func (s *Scene) CheckInvariants() error {
	childCount := make(map[model.BlockID]int)
	lastSeq := 0
	for _, b := range s.Blocks() {
		if b.Input != nil && len(b.Input.Edges) > 1 {
			return fmt.Errorf("block %d: input socket has %d edges", b.ID, len(b.Input.Edges))
		}
		if b.HasParent() {
			parent, ok := s.blocks[b.ParentID]
			if !ok {
				return fmt.Errorf("block %d: parent %d missing", b.ID, b.ParentID)
			}
			if !containsID(parent.Children, b.ID) {
				return fmt.Errorf("block %d: not listed in children of %d", b.ID, b.ParentID)
			}
			if b.Input == nil || len(b.Input.Edges) != 1 {
				return fmt.Errorf("block %d: attached without an incoming edge", b.ID)
			}
			childCount[b.ParentID]++
		}
		if q := b.Query(); q != nil {
			if q.Sequence <= lastSeq {
				return fmt.Errorf("block %d: sequence %d not after %d", b.ID, q.Sequence, lastSeq)
			}
			lastSeq = q.Sequence
		}
	}
	for id, b := range s.blocks {
		if len(b.Children) != childCount[id] {
			return fmt.Errorf("block %d: %d children listed, %d point back", id, len(b.Children), childCount[id])
		}
	}
	for id, e := range s.edges {
		from, ok := s.blocks[e.From]
		if !ok || from.Output == nil || !containsID(from.Output.Edges, id) {
			return fmt.Errorf("edge %d: source %d does not own it", id, e.From)
		}
		to, ok := s.blocks[e.To]
		if !ok || to.Input == nil || !containsID(to.Input.Edges, id) {
			return fmt.Errorf("edge %d: target %d does not own it", id, e.To)
		}
		if to.ParentID != e.From {
			return fmt.Errorf("edge %d: target %d has parent %d", id, e.To, to.ParentID)
		}
	}
	return nil
}

func containsID[T comparable](ids []T, id T) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

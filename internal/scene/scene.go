// Package scene is the aggregate root of a verification workflow: it owns
// every block and edge in an arena indexed by integer id and enforces the
// tree invariants after each public operation.
//
// A Scene is not safe for concurrent use. Hosts serialize calls onto a
// single goroutine (for example the one draining verifier results).
package scene

import (
	"fmt"
	"sort"

	"github.com/alfredjeanlab/proofgraph/internal/model"
)

// Scene owns all blocks and edges of one workflow instance.
type Scene struct {
	blocks map[model.BlockID]*model.Block
	edges  map[model.EdgeID]*model.Edge

	nextBlockID       model.BlockID
	nextEdgeID        model.EdgeID
	nextQuerySequence int

	properties []model.BlockID       // insertion order
	bySequence map[int]model.BlockID // query sequence -> block

	listeners    []listener
	nextListener int
	batchDepth   int
	pending      []Change
	seen         idSet
	queue        []Change // raised while listeners run
	delivering   bool
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{
		blocks:     make(map[model.BlockID]*model.Block),
		edges:      make(map[model.EdgeID]*model.Edge),
		bySequence: make(map[int]model.BlockID),
	}
}

// AddBlock inserts a block of the given kind. When parentID is not
// model.NoParent the block is attached under that parent and connected in
// the same step; if the connection is invalid nothing is inserted.
//
// Query payloads with Sequence 0 are assigned the next global sequence
// number. An explicit sequence must be greater than every sequence issued
// so far.
func (s *Scene) AddBlock(kind model.BlockKind, parentID model.BlockID, data model.Payload) (model.BlockID, error) {
	return s.addBlock(kind, parentID, data, "")
}

func (s *Scene) addBlock(kind model.BlockKind, parentID model.BlockID, data model.Payload, title string) (model.BlockID, error) {
	if err := model.ValidateBlock(kind, data); err != nil {
		return 0, fmt.Errorf("add %s block: %w", kind, err)
	}
	if q, ok := data.(*model.QueryData); ok && q.Sequence != 0 && q.Sequence <= s.nextQuerySequence {
		return 0, fmt.Errorf("add query block: sequence %d not after %d: %w",
			q.Sequence, s.nextQuerySequence, model.ErrInvalidPayload)
	}
	if parentID != model.NoParent {
		parent, ok := s.blocks[parentID]
		if !ok {
			return 0, fmt.Errorf("add %s block under %d: %w", kind, parentID, model.ErrUnknownBlockID)
		}
		if err := checkParentAccepts(parent, kind); err != nil {
			return 0, fmt.Errorf("add %s block under %d: %w", kind, parentID, err)
		}
	}

	id := s.nextBlockID
	s.nextBlockID++

	b := &model.Block{
		ID:       id,
		Kind:     kind,
		Status:   model.StatusUnknown,
		ParentID: model.NoParent,
		Data:     data.Clone(),
	}
	if kind.HasInput() {
		b.Input = &model.Socket{Direction: model.Input, Block: id}
	}
	if kind.HasOutput() {
		b.Output = &model.Socket{Direction: model.Output, Block: id}
	}
	if q := b.Query(); q != nil {
		if q.Sequence == 0 {
			q.Sequence = s.nextSequence()
		} else {
			s.nextQuerySequence = q.Sequence
		}
		s.bySequence[q.Sequence] = id
	}
	if title == "" {
		title = defaultTitle(b)
	}
	b.Title = title

	s.blocks[id] = b
	if kind == model.KindProperty {
		s.properties = append(s.properties, id)
	}
	if parentID != model.NoParent {
		s.attach(s.blocks[parentID], b)
	}

	s.notify(Change{Kind: ChangeAdded, Blocks: []model.BlockID{id}, Parents: []model.BlockID{parentID}})
	return id, nil
}

// Connect attaches a detached child under parentID and creates the edge
// between the parent's Output socket and the child's Input socket.
func (s *Scene) Connect(parentID, childID model.BlockID) (model.EdgeID, error) {
	parent, ok := s.blocks[parentID]
	if !ok {
		return 0, fmt.Errorf("connect %d -> %d: parent: %w", parentID, childID, model.ErrUnknownBlockID)
	}
	child, ok := s.blocks[childID]
	if !ok {
		return 0, fmt.Errorf("connect %d -> %d: child: %w", parentID, childID, model.ErrUnknownBlockID)
	}
	if parentID == childID {
		return 0, fmt.Errorf("connect %d -> %d: self loop: %w", parentID, childID, model.ErrInvalidConnection)
	}
	if child.Input == nil {
		return 0, fmt.Errorf("connect %d -> %d: %s block has no input socket: %w",
			parentID, childID, child.Kind, model.ErrInvalidConnection)
	}
	if len(child.Input.Edges) > 0 || child.HasParent() {
		return 0, fmt.Errorf("connect %d -> %d: child already connected: %w",
			parentID, childID, model.ErrInvalidConnection)
	}
	if err := checkParentAccepts(parent, child.Kind); err != nil {
		return 0, fmt.Errorf("connect %d -> %d: %w", parentID, childID, err)
	}
	for cur := parent; cur != nil; cur = s.blocks[cur.ParentID] {
		if cur.ID == childID {
			return 0, fmt.Errorf("connect %d -> %d: cycle: %w", parentID, childID, model.ErrInvalidConnection)
		}
	}

	edgeID := s.attach(parent, child)
	s.notify(Change{Kind: ChangeConnected, Blocks: []model.BlockID{childID}, Parents: []model.BlockID{parentID}})
	return edgeID, nil
}

func checkParentAccepts(parent *model.Block, kind model.BlockKind) error {
	if parent.Output == nil {
		return fmt.Errorf("%s block has no output socket: %w", parent.Kind, model.ErrInvalidConnection)
	}
	if !parent.Kind.Accepts(kind) {
		return fmt.Errorf("%s block cannot parent a %s block: %w", parent.Kind, kind, model.ErrInvalidConnection)
	}
	if parent.Kind == model.KindQuery && len(parent.Children) > 0 {
		return fmt.Errorf("query %d already has a witness: %w", parent.ID, model.ErrInvalidConnection)
	}
	return nil
}

// attach wires child under parent. Callers have already validated the pair.
func (s *Scene) attach(parent, child *model.Block) model.EdgeID {
	id := s.nextEdgeID
	s.nextEdgeID++

	s.edges[id] = &model.Edge{ID: id, From: parent.ID, To: child.ID}
	parent.Output.Edges = append(parent.Output.Edges, id)
	child.Input.Edges = append(child.Input.Edges, id)
	child.ParentID = parent.ID
	parent.Children = append(parent.Children, child.ID)
	return id
}

// RemoveBlock removes the block, all of its descendants and every edge
// touching any of them.
func (s *Scene) RemoveBlock(id model.BlockID) error {
	root, ok := s.blocks[id]
	if !ok {
		return fmt.Errorf("remove block %d: %w", id, model.ErrUnknownBlockID)
	}

	removed := s.subtree(id)
	gone := make(map[model.BlockID]bool, len(removed))
	for _, bid := range removed {
		gone[bid] = true
	}

	parentID := root.ParentID
	if parent, ok := s.blocks[parentID]; ok {
		parent.Children = deleteID(parent.Children, id)
	}

	for eid, e := range s.edges {
		if !gone[e.From] && !gone[e.To] {
			continue
		}
		if from, ok := s.blocks[e.From]; ok && !gone[e.From] {
			from.Output.Edges = deleteID(from.Output.Edges, eid)
		}
		delete(s.edges, eid)
	}

	for _, bid := range removed {
		b := s.blocks[bid]
		if q := b.Query(); q != nil {
			delete(s.bySequence, q.Sequence)
		}
		delete(s.blocks, bid)
	}
	if root.Kind == model.KindProperty {
		s.properties = deleteID(s.properties, id)
	}

	s.notify(Change{Kind: ChangeRemoved, Blocks: removed, Parents: []model.BlockID{parentID}})
	return nil
}

// Clear destroys every block and edge and resets all counters to zero.
func (s *Scene) Clear() {
	s.blocks = make(map[model.BlockID]*model.Block)
	s.edges = make(map[model.EdgeID]*model.Edge)
	s.bySequence = make(map[int]model.BlockID)
	s.properties = nil
	s.nextBlockID = 0
	s.nextEdgeID = 0
	s.nextQuerySequence = 0

	s.notify(Change{Kind: ChangeCleared})
}

// nextSequence issues the next global query sequence number. The first
// number issued after New or Clear is 1.
func (s *Scene) nextSequence() int {
	s.nextQuerySequence++
	return s.nextQuerySequence
}

// QuerySequence returns the last query sequence number issued, or 0.
func (s *Scene) QuerySequence() int {
	return s.nextQuerySequence
}

// SetPosition moves a block. It reports whether the position changed.
func (s *Scene) SetPosition(id model.BlockID, pos model.Position) (bool, error) {
	b, ok := s.blocks[id]
	if !ok {
		return false, fmt.Errorf("set position of %d: %w", id, model.ErrUnknownBlockID)
	}
	if b.Position == pos {
		return false, nil
	}
	b.Position = pos
	s.notify(Change{Kind: ChangeMoved, Blocks: []model.BlockID{id}})
	return true, nil
}

// SetStatus updates a block's status. Witness blocks always stay unknown.
// It reports whether the status changed.
func (s *Scene) SetStatus(id model.BlockID, status model.Status) (bool, error) {
	b, ok := s.blocks[id]
	if !ok {
		return false, fmt.Errorf("set status of %d: %w", id, model.ErrUnknownBlockID)
	}
	if !status.IsValid() {
		return false, fmt.Errorf("set status of %d: invalid status %q", id, status)
	}
	if b.Kind == model.KindWitness || b.Status == status {
		return false, nil
	}
	b.Status = status
	s.notify(Change{Kind: ChangeStatus, Blocks: []model.BlockID{id}})
	return true, nil
}

// SetTitle renames a block.
func (s *Scene) SetTitle(id model.BlockID, title string) error {
	b, ok := s.blocks[id]
	if !ok {
		return fmt.Errorf("set title of %d: %w", id, model.ErrUnknownBlockID)
	}
	b.Title = title
	return nil
}

// Block returns a copy of the block with the given id.
func (s *Scene) Block(id model.BlockID) (*model.Block, error) {
	b, ok := s.blocks[id]
	if !ok {
		return nil, fmt.Errorf("block %d: %w", id, model.ErrUnknownBlockID)
	}
	return b.Clone(), nil
}

// Has reports whether a block with the given id exists.
func (s *Scene) Has(id model.BlockID) bool {
	_, ok := s.blocks[id]
	return ok
}

// Len returns the number of blocks in the scene.
func (s *Scene) Len() int {
	return len(s.blocks)
}

// Blocks returns copies of every block ordered by id (creation order).
func (s *Scene) Blocks() []*model.Block {
	ids := make([]model.BlockID, 0, len(s.blocks))
	for id := range s.blocks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*model.Block, len(ids))
	for i, id := range ids {
		out[i] = s.blocks[id].Clone()
	}
	return out
}

// Children returns the ordered child ids of a block.
func (s *Scene) Children(id model.BlockID) ([]model.BlockID, error) {
	b, ok := s.blocks[id]
	if !ok {
		return nil, fmt.Errorf("children of %d: %w", id, model.ErrUnknownBlockID)
	}
	return append([]model.BlockID(nil), b.Children...), nil
}

// Parent returns the parent id of a block, or model.NoParent.
func (s *Scene) Parent(id model.BlockID) (model.BlockID, error) {
	b, ok := s.blocks[id]
	if !ok {
		return model.NoParent, fmt.Errorf("parent of %d: %w", id, model.ErrUnknownBlockID)
	}
	return b.ParentID, nil
}

// Properties returns property ids in insertion order.
func (s *Scene) Properties() []model.BlockID {
	return append([]model.BlockID(nil), s.properties...)
}

// PropertyIndex returns the 0-based insertion index of a property among the
// properties currently in the scene.
func (s *Scene) PropertyIndex(id model.BlockID) (int, bool) {
	for i, pid := range s.properties {
		if pid == id {
			return i, true
		}
	}
	return 0, false
}

// QueryBySequence resolves a global query sequence number to its block.
func (s *Scene) QueryBySequence(seq int) (model.BlockID, error) {
	id, ok := s.bySequence[seq]
	if !ok {
		return 0, fmt.Errorf("query #%d: %w", seq, model.ErrUnknownBlockID)
	}
	return id, nil
}

// Descendants returns every block below id in pre-order, excluding id.
func (s *Scene) Descendants(id model.BlockID) ([]model.BlockID, error) {
	if _, ok := s.blocks[id]; !ok {
		return nil, fmt.Errorf("descendants of %d: %w", id, model.ErrUnknownBlockID)
	}
	return s.subtree(id)[1:], nil
}

// subtree returns id and all of its descendants in pre-order.
func (s *Scene) subtree(id model.BlockID) []model.BlockID {
	return s.preorder(id, nil)
}

func (s *Scene) preorder(id model.BlockID, acc []model.BlockID) []model.BlockID {
	acc = append(acc, id)
	for _, c := range s.blocks[id].Children {
		acc = s.preorder(c, acc)
	}
	return acc
}

// Edge returns a copy of the edge with the given id.
func (s *Scene) Edge(id model.EdgeID) (*model.Edge, bool) {
	e, ok := s.edges[id]
	if !ok {
		return nil, false
	}
	c := *e
	return &c, true
}

// Edges returns copies of every edge ordered by id.
func (s *Scene) Edges() []*model.Edge {
	out := make([]*model.Edge, 0, len(s.edges))
	for _, e := range s.edges {
		c := *e
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// EdgesOf returns the ids of every edge touching the block, ordered by id.
func (s *Scene) EdgesOf(id model.BlockID) []model.EdgeID {
	b, ok := s.blocks[id]
	if !ok {
		return nil
	}
	var out []model.EdgeID
	if b.Input != nil {
		out = append(out, b.Input.Edges...)
	}
	if b.Output != nil {
		out = append(out, b.Output.Edges...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func deleteID[T comparable](ids []T, id T) []T {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

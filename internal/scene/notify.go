package scene

import "github.com/alfredjeanlab/proofgraph/internal/model"

// ChangeKind names what happened to the blocks in a Change.
type ChangeKind string

const (
	ChangeAdded     ChangeKind = "added"
	ChangeConnected ChangeKind = "connected"
	ChangeRemoved   ChangeKind = "removed"
	ChangeMoved     ChangeKind = "moved"
	ChangeStatus    ChangeKind = "status"
	ChangeCleared   ChangeKind = "cleared"
)

// Change is delivered to listeners after the scene is mutated.
//
// Parents is set for structural changes (added, connected, removed) and
// lists the parents whose child rows changed; model.NoParent stands for the
// property column. A batched change may name blocks removed later in the
// same batch, so listeners skip ids the scene no longer has.
type Change struct {
	Kind    ChangeKind
	Blocks  []model.BlockID
	Parents []model.BlockID
}

type listener struct {
	id int
	fn func(Change)
}

// Subscribe registers fn to be called synchronously after every change.
// The returned function removes the subscription.
func (s *Scene) Subscribe(fn func(Change)) func() {
	id := s.nextListener
	s.nextListener++
	s.listeners = append(s.listeners, listener{id: id, fn: fn})

	return func() {
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Batch runs fn and coalesces the changes it raises into one Change per
// kind, delivered when the outermost batch returns. Changes raised before
// a Clear inside the batch are dropped. Pending changes are delivered even
// when fn panics.
func (s *Scene) Batch(fn func() error) error {
	s.batchDepth++
	defer func() {
		s.batchDepth--
		if s.batchDepth == 0 {
			pending := s.pending
			s.pending = nil
			s.seen = nil
			for _, c := range pending {
				s.deliver(c)
			}
		}
	}()
	return fn()
}

func (s *Scene) notify(c Change) {
	if s.batchDepth == 0 {
		s.deliver(c)
		return
	}
	if c.Kind == ChangeCleared {
		s.pending = []Change{c}
		s.seen = nil
		return
	}
	for i := range s.pending {
		if s.pending[i].Kind == c.Kind {
			s.pending[i].Blocks = s.seen.add(c.Kind, "blocks", s.pending[i].Blocks, c.Blocks)
			s.pending[i].Parents = s.seen.add(c.Kind, "parents", s.pending[i].Parents, c.Parents)
			return
		}
	}
	s.pending = append(s.pending, Change{
		Kind:    c.Kind,
		Blocks:  s.seen.add(c.Kind, "blocks", nil, c.Blocks),
		Parents: s.seen.add(c.Kind, "parents", nil, c.Parents),
	})
}

// deliver hands c to every listener. A change raised by a listener is
// queued until every listener has seen the current one, so all listeners
// observe changes in the order they happened.
func (s *Scene) deliver(c Change) {
	s.queue = append(s.queue, c)
	if s.delivering {
		return
	}
	s.delivering = true
	defer func() {
		s.delivering = false
		s.queue = nil
	}()
	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue = s.queue[1:]
		// Listeners may subscribe or unsubscribe while being called.
		ls := append([]listener(nil), s.listeners...)
		for _, l := range ls {
			l.fn(next)
		}
	}
}

// idSet tracks which ids a pending change already carries.
type idSet map[string]map[model.BlockID]struct{}

func (set *idSet) add(kind ChangeKind, field string, dst, ids []model.BlockID) []model.BlockID {
	if *set == nil {
		*set = make(idSet)
	}
	key := string(kind) + "/" + field
	seen, ok := (*set)[key]
	if !ok {
		seen = make(map[model.BlockID]struct{})
		(*set)[key] = seen
	}
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		dst = append(dst, id)
	}
	return dst
}

// Package status applies verification outcomes to queries and propagates
// them to the connectors and properties above.
package status

import (
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/proofgraph/internal/model"
	"github.com/alfredjeanlab/proofgraph/internal/scene"
)

// Propagator writes outcomes into a scene.
type Propagator struct {
	scene  *scene.Scene
	logger *slog.Logger
}

// New returns a propagator for s. A nil logger uses slog.Default.
func New(s *scene.Scene, logger *slog.Logger) *Propagator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Propagator{scene: s, logger: logger}
}

// UpdateStatus sets the outcome of a query and recomputes every ancestor.
// Unknown resets a provisional result. A later call overwrites an earlier
// one. Every status that changed is reported in a single notification.
func (p *Propagator) UpdateStatus(queryID model.BlockID, outcome model.Status) error {
	b, err := p.scene.Block(queryID)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if b.Kind != model.KindQuery {
		return fmt.Errorf("update status of %s block %d: %w", b.Kind, queryID, model.ErrNotQuery)
	}
	if !outcome.IsValid() {
		return fmt.Errorf("update status of query %d: invalid outcome %q", queryID, outcome)
	}

	return p.scene.Batch(func() error {
		if _, err := p.scene.SetStatus(queryID, outcome); err != nil {
			return err
		}
		for id := b.ParentID; id != model.NoParent; {
			anc, err := p.scene.Block(id)
			if err != nil {
				return err
			}
			next, err := p.derive(anc)
			if err != nil {
				return err
			}
			changed, err := p.scene.SetStatus(id, next)
			if err != nil {
				return err
			}
			if changed {
				p.logger.Debug("status propagated", "block", id, "kind", anc.Kind, "status", next)
			}
			id = anc.ParentID
		}
		return nil
	})
}

// UpdateBySequence resolves a global query sequence number and applies the
// outcome to that query.
func (p *Propagator) UpdateBySequence(seq int, outcome model.Status) (model.BlockID, error) {
	id, err := p.scene.QueryBySequence(seq)
	if err != nil {
		return 0, fmt.Errorf("update status: %w", err)
	}
	return id, p.UpdateStatus(id, outcome)
}

func (p *Propagator) derive(b *model.Block) (model.Status, error) {
	switch b.Kind {
	case model.KindProperty:
		qs, err := p.descendantQueries(b.ID)
		if err != nil {
			return "", err
		}
		return PropertyStatus(b.Property().Quantifier, qs), nil
	case model.KindAnd, model.KindOr:
		children := make([]model.Status, 0, len(b.Children))
		for _, c := range b.Children {
			cb, err := p.scene.Block(c)
			if err != nil {
				return "", err
			}
			children = append(children, cb.Status)
		}
		return ConnectorStatus(b.Kind, children), nil
	}
	return b.Status, nil
}

func (p *Propagator) descendantQueries(id model.BlockID) ([]model.Status, error) {
	ids, err := p.scene.Descendants(id)
	if err != nil {
		return nil, err
	}
	var out []model.Status
	for _, d := range ids {
		b, err := p.scene.Block(d)
		if err != nil {
			return nil, err
		}
		if b.Kind == model.KindQuery {
			out = append(out, b.Status)
		}
	}
	return out, nil
}

// PropertyStatus derives a property's status from its descendant queries.
// A ForAll property is disproven by any disproven query and an Exists
// property is verified by any verified query. Everything else stays
// unknown, including an Exists property whose queries are all disproven.
func PropertyStatus(q model.Quantifier, queries []model.Status) model.Status {
	for _, s := range queries {
		switch {
		case q == model.ForAll && s == model.StatusDisproven:
			return model.StatusDisproven
		case q == model.Exists && s == model.StatusVerified:
			return model.StatusVerified
		}
	}
	return model.StatusUnknown
}

// ConnectorStatus derives the status of an And or Or block from its
// children.
func ConnectorStatus(kind model.BlockKind, children []model.Status) model.Status {
	if len(children) == 0 {
		return model.StatusUnknown
	}
	// An Or is decided by any verified child, an And by any disproven one.
	decisive, other := model.StatusVerified, model.StatusDisproven
	if kind == model.KindAnd {
		decisive, other = other, decisive
	}

	all := true
	for _, s := range children {
		if s == decisive {
			return decisive
		}
		if s != other {
			all = false
		}
	}
	if all {
		return other
	}
	return model.StatusUnknown
}

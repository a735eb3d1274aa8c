package plan

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/alfredjeanlab/proofgraph/internal/model"
	"github.com/alfredjeanlab/proofgraph/internal/scene"
)

// Diagnostic reports a plan subtree that was skipped.
type Diagnostic struct {
	Path string
	Tag  Tag
	Err  error
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("plan node %s (%s): %v", d.Path, d.Tag, d.Err)
}

func (d Diagnostic) Unwrap() error { return d.Err }

// Parser turns plan trees into blocks. It only adds and connects blocks;
// layout and status are left to their own engines.
type Parser struct {
	scene  *scene.Scene
	logger *slog.Logger
}

// NewParser returns a parser writing into s. A nil logger uses slog.Default.
func NewParser(s *scene.Scene, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{scene: s, logger: logger}
}

// ParseProperty creates a property (ForAll when negated, Exists otherwise)
// and parses roots under it as a disjunction. The whole property is built
// inside one scene batch. Skipped subtrees are returned as diagnostics; an
// error means the property itself could not be created.
func (p *Parser) ParseProperty(title string, negated bool, roots []Node) (model.BlockID, []Diagnostic, error) {
	var (
		id    model.BlockID
		diags []Diagnostic
	)
	err := p.scene.Batch(func() error {
		var err error
		id, err = p.scene.AddProperty(title, model.QuantifierFor(negated))
		if err != nil {
			return fmt.Errorf("parse property %q: %w", title, err)
		}
		w := walker{p: p, negated: negated}
		w.tree(id, roots, model.KindOr, "$")
		diags = w.diags
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return id, diags, nil
}

// ParseTree parses items under parent. An empty list adds nothing, a single
// item attaches directly to parent and several items are grouped under one
// connector of the given kind. Queries take their negation from the
// property that owns parent.
func (p *Parser) ParseTree(parent model.BlockID, items []Node, connective model.BlockKind) ([]Diagnostic, error) {
	if !connective.IsConnector() {
		return nil, fmt.Errorf("parse tree: %s is not a connector kind: %w", connective, model.ErrInvalidPayload)
	}
	negated, err := p.negatedContext(parent)
	if err != nil {
		return nil, fmt.Errorf("parse tree: %w", err)
	}
	w := walker{p: p, negated: negated}
	_ = p.scene.Batch(func() error {
		w.tree(parent, items, connective, "$")
		return nil
	})
	return w.diags, nil
}

// negatedContext walks up to the owning property. A ForAll property is the
// negated (refutation) form.
func (p *Parser) negatedContext(id model.BlockID) (bool, error) {
	for id != model.NoParent {
		b, err := p.scene.Block(id)
		if err != nil {
			return false, err
		}
		if prop := b.Property(); prop != nil {
			return prop.Quantifier == model.ForAll, nil
		}
		id = b.ParentID
	}
	return false, nil
}

type walker struct {
	p       *Parser
	negated bool
	diags   []Diagnostic
}

func (w *walker) tree(parent model.BlockID, items []Node, connective model.BlockKind, path string) {
	switch len(items) {
	case 0:
		return
	case 1:
		w.node(parent, items[0], path+"[0]")
		return
	}

	conn, err := w.p.scene.AddConnector(parent, connective)
	if err != nil {
		w.report(path, "", err)
		return
	}
	for i, item := range items {
		w.node(conn, item, path+"["+strconv.Itoa(i)+"]")
	}
}

func (w *walker) node(parent model.BlockID, n Node, path string) {
	if err := n.Err(); err != nil {
		w.report(path, n.Tag, fmt.Errorf("%v: %w", err, model.ErrMalformedPlanNode))
		return
	}

	switch n.Tag {
	case TagQuery:
		for i, sub := range n.Subqueries {
			if _, err := w.p.scene.AddQuery(parent, w.negated, SourceRef(sub)); err != nil {
				w.report(path+".queries["+strconv.Itoa(i)+"]", n.Tag, err)
				return
			}
		}
	case TagDisjunct:
		w.tree(parent, n.Children, model.KindOr, path+".disjuncts")
	case TagConjunct:
		w.tree(parent, n.Children, model.KindAnd, path+".conjuncts")
	}
}

func (w *walker) report(path string, tag Tag, err error) {
	d := Diagnostic{Path: path, Tag: tag, Err: err}
	w.diags = append(w.diags, d)
	w.p.logger.Warn("skipping plan node", "path", path, "tag", tag, "error", err)
}

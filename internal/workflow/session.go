// Package workflow hosts one verification workflow: it loads a manifest,
// builds the block graph from each property's plan, keeps layout and edge
// curves current, and applies verifier results.
//
// A Session is not safe for concurrent use. Verify consumes verifier
// output on the calling goroutine so every engine call stays on it.
package workflow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/alfredjeanlab/proofgraph/internal/events"
	"github.com/alfredjeanlab/proofgraph/internal/idgen"
	"github.com/alfredjeanlab/proofgraph/internal/layout"
	"github.com/alfredjeanlab/proofgraph/internal/model"
	"github.com/alfredjeanlab/proofgraph/internal/plan"
	"github.com/alfredjeanlab/proofgraph/internal/route"
	"github.com/alfredjeanlab/proofgraph/internal/scene"
	"github.com/alfredjeanlab/proofgraph/internal/source"
	"github.com/alfredjeanlab/proofgraph/internal/status"
	"github.com/alfredjeanlab/proofgraph/internal/verifier"
)

// Options configure a Session. Zero values pick defaults: the standard
// layout, a no-op publisher, local files only, a fresh run ID and
// slog.Default.
type Options struct {
	Layout    layout.Config
	Publisher events.Publisher
	Store     source.Store
	RunID     string
	Logger    *slog.Logger
}

// Session owns the scene of one workflow and the engines attached to it.
type Session struct {
	Scene  *scene.Scene
	Parser *plan.Parser
	Layout *layout.Engine
	Status *status.Propagator
	Router *route.Router
	RunID  string

	store     source.Store
	forwarder *events.Forwarder
	logger    *slog.Logger
	detach    []func()
}

// NewSession builds a session. Scene changes are published with ctx until
// Close.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	if opts.Layout == (layout.Config{}) {
		opts.Layout = layout.DefaultConfig()
	}
	if err := opts.Layout.Validate(); err != nil {
		return nil, err
	}
	if opts.Publisher == nil {
		opts.Publisher = &events.NoopPublisher{}
	}
	if opts.Store == nil {
		opts.Store = source.FileStore{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RunID == "" {
		id, err := idgen.NewRunID()
		if err != nil {
			return nil, err
		}
		opts.RunID = id
	}

	logger := opts.Logger.With("run", opts.RunID)
	sc := scene.New()
	s := &Session{
		Scene:     sc,
		Parser:    plan.NewParser(sc, logger),
		Layout:    layout.New(opts.Layout),
		Status:    status.New(sc, logger),
		Router:    route.NewRouter(sc, opts.Layout),
		RunID:     opts.RunID,
		store:     opts.Store,
		forwarder: events.NewForwarder(sc, opts.Publisher, opts.RunID, logger),
		logger:    logger,
	}
	s.detach = append(s.detach,
		s.Layout.Attach(sc),
		s.Router.Attach(),
		s.forwarder.Attach(ctx),
	)
	return s, nil
}

// Close detaches the layout, router and event forwarder.
func (s *Session) Close() {
	for i := len(s.detach) - 1; i >= 0; i-- {
		s.detach[i]()
	}
	s.detach = nil
}

// Load clears the scene and rebuilds it from every property of m. Plans
// are always parsed from scratch. Skipped plan nodes are returned and
// published as diagnostics; an error means a plan could not be read and
// the scene is left cleared.
func (s *Session) Load(ctx context.Context, m *Manifest) ([]plan.Diagnostic, error) {
	docs := make([]*plan.Document, len(m.Properties))
	for i, p := range m.Properties {
		doc, err := s.readPlan(ctx, m.Resolve(p.Plan))
		if err != nil {
			s.Scene.Clear()
			return nil, fmt.Errorf("property %q: %w", p.Title, err)
		}
		docs[i] = doc
	}

	var diags []plan.Diagnostic
	err := s.Scene.Batch(func() error {
		s.Scene.Clear()
		for i, p := range m.Properties {
			_, ds, err := s.Parser.ParseProperty(p.Title, p.Negated(), docs[i].Roots)
			if err != nil {
				return err
			}
			for _, d := range ds {
				s.forwarder.PublishDiagnostic(ctx, p.Title, d.Path, string(d.Tag), d.Err)
			}
			diags = append(diags, ds...)
		}
		return nil
	})
	if err != nil {
		return diags, err
	}
	if err := s.Layout.Apply(s.Scene); err != nil {
		return diags, err
	}

	s.logger.Info("workflow loaded", "properties", len(m.Properties), "blocks", s.Scene.Len(), "diagnostics", len(diags))
	return diags, nil
}

func (s *Session) readPlan(ctx context.Context, location string) (*plan.Document, error) {
	data, err := source.ReadAll(ctx, s.store, location)
	if err != nil {
		return nil, err
	}
	doc, err := plan.Decode(bytes.NewReader(data), plan.FormatFromPath(location))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return doc, nil
}

// Apply records one verifier result. A witness reference on a resolved
// result adds a witness block under the query unless it already has one.
func (s *Session) Apply(r verifier.Result) (model.BlockID, error) {
	id, err := s.Status.UpdateBySequence(r.Query, r.Outcome)
	if err != nil {
		return 0, err
	}
	if r.Witness == "" || !r.Outcome.IsResolved() {
		return id, nil
	}
	children, err := s.Scene.Children(id)
	if err != nil {
		return id, err
	}
	if len(children) == 0 {
		if _, err := s.Scene.AddWitness(id, r.Witness); err != nil {
			return id, err
		}
	}
	return id, nil
}

// Replay applies every result of a JSONL stream. Results for unknown
// queries are logged and skipped. It returns how many were applied.
func (s *Session) Replay(r io.Reader) (int, error) {
	results, err := verifier.ReadResults(r)
	applied := 0
	for _, res := range results {
		if s.applyLogged(res) {
			applied++
		}
	}
	return applied, err
}

// Verify runs the verifier and applies each result as it arrives. onResult,
// if set, is called after every applied result.
func (s *Session) Verify(ctx context.Context, r *verifier.Runner, onResult func(verifier.Result)) error {
	run := *r
	if run.Logger == nil {
		run.Logger = s.logger
	}
	results, errc := run.Run(ctx)
	for res := range results {
		if s.applyLogged(res) && onResult != nil {
			onResult(res)
		}
	}
	return <-errc
}

func (s *Session) applyLogged(res verifier.Result) bool {
	if _, err := s.Apply(res); err != nil {
		s.logger.Warn("skipping result", "query", res.Query, "outcome", res.Outcome, "error", err)
		return false
	}
	return true
}

// SaveSnapshot writes the JSON snapshot to location.
func (s *Session) SaveSnapshot(ctx context.Context, location string) error {
	data, err := s.Snapshot().JSON()
	if err != nil {
		return err
	}
	return s.store.Save(ctx, location, data)
}

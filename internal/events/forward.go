package events

import (
	"context"
	"log/slog"

	"github.com/alfredjeanlab/proofgraph/internal/model"
	"github.com/alfredjeanlab/proofgraph/internal/scene"
)

// Forwarder publishes scene changes for one run. Publish failures are
// logged and never reach the scene.
type Forwarder struct {
	scene  *scene.Scene
	pub    Publisher
	runID  string
	logger *slog.Logger
}

// NewForwarder returns a forwarder from s to pub. A nil logger uses
// slog.Default.
func NewForwarder(s *scene.Scene, pub Publisher, runID string, logger *slog.Logger) *Forwarder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forwarder{scene: s, pub: pub, runID: runID, logger: logger}
}

// Attach subscribes to the scene. Events are published with ctx until the
// returned function is called.
func (f *Forwarder) Attach(ctx context.Context) func() {
	return f.scene.Subscribe(func(c scene.Change) {
		topic, ev := f.event(c)
		if ev == nil {
			return
		}
		f.publish(ctx, topic, ev)
	})
}

// PublishDiagnostic reports a skipped plan node.
func (f *Forwarder) PublishDiagnostic(ctx context.Context, property, path, tag string, err error) {
	f.publish(ctx, TopicWorkflowDiagnostic, PlanDiagnostic{
		RunID:    f.runID,
		Property: property,
		Path:     path,
		Tag:      tag,
		Error:    err.Error(),
	})
}

func (f *Forwarder) publish(ctx context.Context, topic string, ev any) {
	if err := f.pub.Publish(ctx, topic, ev); err != nil {
		f.logger.Warn("failed to publish event", "topic", topic, "run", f.runID, "error", err)
	}
}

func (f *Forwarder) event(c scene.Change) (string, any) {
	switch c.Kind {
	case scene.ChangeAdded:
		return TopicBlockAdded, BlocksAdded{RunID: f.runID, Blocks: f.snapshots(c.Blocks), Parents: c.Parents}
	case scene.ChangeConnected:
		return TopicBlockConnected, BlocksConnected{RunID: f.runID, Blocks: f.snapshots(c.Blocks), Parents: c.Parents}
	case scene.ChangeRemoved:
		return TopicBlockRemoved, BlocksRemoved{RunID: f.runID, BlockIDs: c.Blocks, Parents: c.Parents}
	case scene.ChangeMoved:
		return TopicBlockMoved, BlocksMoved{RunID: f.runID, Blocks: f.snapshots(c.Blocks)}
	case scene.ChangeStatus:
		return TopicBlockStatus, StatusChanged{RunID: f.runID, Blocks: f.snapshots(c.Blocks)}
	case scene.ChangeCleared:
		return TopicWorkflowCleared, WorkflowCleared{RunID: f.runID}
	}
	return "", nil
}

// snapshots skips ids removed later in the same batch.
func (f *Forwarder) snapshots(ids []model.BlockID) []BlockSnapshot {
	out := make([]BlockSnapshot, 0, len(ids))
	for _, id := range ids {
		b, err := f.scene.Block(id)
		if err != nil {
			continue
		}
		out = append(out, Snapshot(b))
	}
	return out
}

package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alfredjeanlab/proofgraph/internal/model"
)

// Event topic constants
const (
	TopicBlockAdded     = "proofgraph.block.added"
	TopicBlockConnected = "proofgraph.block.connected"
	TopicBlockRemoved   = "proofgraph.block.removed"
	TopicBlockMoved     = "proofgraph.block.moved"
	TopicBlockStatus    = "proofgraph.block.status"

	// Workflow lifecycle events
	TopicWorkflowCleared    = "proofgraph.workflow.cleared"
	TopicWorkflowDiagnostic = "proofgraph.workflow.diagnostic"

	// TopicAll matches every proofgraph subject.
	TopicAll = "proofgraph.>"
)

// BlockSnapshot is the wire view of a block.
type BlockSnapshot struct {
	ID       model.BlockID   `json:"id"`
	Kind     model.BlockKind `json:"kind"`
	Title    string          `json:"title"`
	Status   model.Status    `json:"status"`
	ParentID model.BlockID   `json:"parent_id"`
	Position model.Position  `json:"position"`
	Sequence int             `json:"sequence,omitempty"` // queries only
}

// Snapshot copies the fields of b that are published.
func Snapshot(b *model.Block) BlockSnapshot {
	s := BlockSnapshot{
		ID:       b.ID,
		Kind:     b.Kind,
		Title:    b.Title,
		Status:   b.Status,
		ParentID: b.ParentID,
		Position: b.Position,
	}
	if q := b.Query(); q != nil {
		s.Sequence = q.Sequence
	}
	return s
}

// Event types

type BlocksAdded struct {
	RunID   string          `json:"run_id"`
	Blocks  []BlockSnapshot `json:"blocks"`
	Parents []model.BlockID `json:"parents"`
}

type BlocksConnected struct {
	RunID   string          `json:"run_id"`
	Blocks  []BlockSnapshot `json:"blocks"`
	Parents []model.BlockID `json:"parents"`
}

type BlocksRemoved struct {
	RunID    string          `json:"run_id"`
	BlockIDs []model.BlockID `json:"block_ids"`
	Parents  []model.BlockID `json:"parents"`
}

type BlocksMoved struct {
	RunID  string          `json:"run_id"`
	Blocks []BlockSnapshot `json:"blocks"`
}

type StatusChanged struct {
	RunID  string          `json:"run_id"`
	Blocks []BlockSnapshot `json:"blocks"`
}

type WorkflowCleared struct {
	RunID string `json:"run_id"`
}

type PlanDiagnostic struct {
	RunID    string `json:"run_id"`
	Property string `json:"property"`
	Path     string `json:"path"`
	Tag      string `json:"tag"`
	Error    string `json:"error"`
}

// Decode unmarshals a payload received on topic into its event type.
func Decode(topic string, data []byte) (any, error) {
	var ev any
	switch topic {
	case TopicBlockAdded:
		ev = &BlocksAdded{}
	case TopicBlockConnected:
		ev = &BlocksConnected{}
	case TopicBlockRemoved:
		ev = &BlocksRemoved{}
	case TopicBlockMoved:
		ev = &BlocksMoved{}
	case TopicBlockStatus:
		ev = &StatusChanged{}
	case TopicWorkflowCleared:
		ev = &WorkflowCleared{}
	case TopicWorkflowDiagnostic:
		ev = &PlanDiagnostic{}
	default:
		return nil, fmt.Errorf("unknown event topic %q", topic)
	}
	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("decoding %s event: %w", topic, err)
	}
	return ev, nil
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

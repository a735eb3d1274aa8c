package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alfredjeanlab/proofgraph/internal/events"
	"github.com/alfredjeanlab/proofgraph/internal/ui"
	"github.com/alfredjeanlab/proofgraph/internal/workflow"
)

func palette() ui.Palette {
	return ui.PaletteFor(os.Stdout)
}

// printSession writes the graph as a tree, or as a snapshot with --json.
func printSession(w io.Writer, s *workflow.Session) error {
	if jsonOutput {
		data, err := s.Snapshot().JSON()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return ui.RenderTree(w, s.Scene, palette())
}

// watchEvents prints messages until ctx ends or ch closes. A non-empty run
// filters events to that run.
func watchEvents(ctx context.Context, w io.Writer, ch <-chan events.Message, run string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			ev, err := msg.Event()
			if err != nil {
				logger.Warn("skipping event", "topic", msg.Topic, "error", err)
				continue
			}
			if run != "" && eventRun(ev) != run {
				continue
			}
			if jsonOutput {
				fmt.Fprintf(w, "{\"topic\":%q,\"event\":%s}\n", msg.Topic, msg.Data)
				continue
			}
			fmt.Fprintln(w, formatEvent(msg.Topic, ev))
		}
	}
}

func eventRun(ev any) string {
	switch e := ev.(type) {
	case *events.BlocksAdded:
		return e.RunID
	case *events.BlocksConnected:
		return e.RunID
	case *events.BlocksRemoved:
		return e.RunID
	case *events.BlocksMoved:
		return e.RunID
	case *events.StatusChanged:
		return e.RunID
	case *events.WorkflowCleared:
		return e.RunID
	case *events.PlanDiagnostic:
		return e.RunID
	}
	return ""
}

// formatEvent renders one event as a single line.
func formatEvent(topic string, ev any) string {
	var detail string
	switch e := ev.(type) {
	case *events.BlocksAdded:
		detail = blockList(e.Blocks, func(b events.BlockSnapshot) string { return b.Title })
	case *events.BlocksConnected:
		detail = blockList(e.Blocks, func(b events.BlockSnapshot) string { return b.Title })
	case *events.BlocksRemoved:
		ids := make([]string, len(e.BlockIDs))
		for i, id := range e.BlockIDs {
			ids[i] = fmt.Sprint(id)
		}
		detail = strings.Join(ids, ", ")
	case *events.BlocksMoved:
		detail = blockList(e.Blocks, func(b events.BlockSnapshot) string {
			return fmt.Sprintf("%s (%g, %g)", b.Title, b.Position.X, b.Position.Y)
		})
	case *events.StatusChanged:
		detail = blockList(e.Blocks, func(b events.BlockSnapshot) string {
			return fmt.Sprintf("%s %s", b.Title, ui.Palette{}.Status(b.Status))
		})
	case *events.WorkflowCleared:
		detail = "cleared"
	case *events.PlanDiagnostic:
		detail = fmt.Sprintf("%s %s (%s): %s", e.Property, e.Path, e.Tag, e.Error)
	default:
		data, _ := json.Marshal(ev)
		detail = string(data)
	}
	return fmt.Sprintf("%-28s %s", topic, detail)
}

func blockList(blocks []events.BlockSnapshot, label func(events.BlockSnapshot) string) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = label(b)
	}
	return strings.Join(parts, ", ")
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/alfredjeanlab/proofgraph/internal/events"
	"github.com/alfredjeanlab/proofgraph/internal/model"
)

const testPlan = `{"queryMetaData":{"tag":"QueryMetaData","contents":{"tag":"Disjunct","contents":{"unDisjunctAll":[
  {"tag":"Query","contents":{"queries":{"unDisjunctAll":["a.vnnlib"]}}},
  {"tag":"Query","contents":{"queries":{"unDisjunctAll":["b.vnnlib"]}}}
]}}}}`

func writeWorkflow(t *testing.T) (dir, manifest string) {
	t.Helper()
	dir = t.TempDir()
	files := map[string]string{
		"plan.json": testPlan,
		"results.jsonl": `{"query":2,"outcome":"disproven","witness":"cex.npy"}
`,
		"wf.toml": `
name = "demo"
results = "results.jsonl"

[[property]]
title = "robust"
plan = "plan.json"
`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir, filepath.Join(dir, "wf.toml")
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PROOFGRAPH_NATS_URL", "")
	t.Setenv("PROOFGRAPH_LOG_LEVEL", "error")
	t.Setenv("NO_COLOR", "1")
	jsonOutput, runID = false, ""
	t.Cleanup(func() {
		reset := func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
		rootCmd.PersistentFlags().VisitAll(reset)
		for _, c := range rootCmd.Commands() {
			c.Flags().VisitAll(reset)
		}
	})

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestShow(t *testing.T) {
	_, manifest := writeWorkflow(t)

	out, err := execute(t, "show", manifest)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"[unknown] robust forall", "└── [unknown] OR", "¬Query 1 a.vnnlib"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestApply_WritesSnapshot(t *testing.T) {
	dir, manifest := writeWorkflow(t)
	snap := filepath.Join(dir, "out", "snapshot.json")

	out, err := execute(t, "apply", manifest, "--out", snap)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !strings.Contains(out, "[disproven] robust") {
		t.Errorf("property not disproven:\n%s", out)
	}
	if !strings.Contains(out, "Counter Example cex.npy") {
		t.Errorf("witness missing:\n%s", out)
	}

	data, err := os.ReadFile(snap)
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	var decoded struct {
		Blocks []struct {
			Kind model.BlockKind `json:"kind"`
		} `json:"blocks"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Blocks) != 5 {
		t.Errorf("snapshot blocks = %d, want 5", len(decoded.Blocks))
	}
}

func TestApply_MissingResults(t *testing.T) {
	dir, _ := writeWorkflow(t)
	manifest := filepath.Join(dir, "bare.toml")
	if err := os.WriteFile(manifest, []byte("[[property]]\nplan = \"plan.json\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "apply", manifest)
	if err == nil || !strings.Contains(err.Error(), "no results file") {
		t.Errorf("err = %v, want missing results error", err)
	}
}

func TestVerify_Shell(t *testing.T) {
	_, manifest := writeWorkflow(t)

	out, err := execute(t, "verify", manifest, "--shell",
		`printf '{"query":1,"outcome":"verified"}\n{"query":2,"outcome":"verified"}\n'`)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !strings.Contains(out, "Query 1 [verified]") {
		t.Errorf("progress line missing:\n%s", out)
	}
	if !strings.Contains(out, "[verified] OR") {
		t.Errorf("connector not verified:\n%s", out)
	}
}

func TestVerify_FailureStillPrints(t *testing.T) {
	_, manifest := writeWorkflow(t)

	out, err := execute(t, "verify", manifest, "--shell", `echo '{"query":1,"outcome":"disproven"}'; exit 2`)
	if err == nil || !strings.Contains(err.Error(), "code 2") {
		t.Errorf("err = %v, want exit code 2", err)
	}
	if !strings.Contains(out, "[disproven] robust") {
		t.Errorf("applied result not shown:\n%s", out)
	}
}

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		name  string
		topic string
		ev    any
		want  string
	}{
		{
			"Added", events.TopicBlockAdded,
			&events.BlocksAdded{Blocks: []events.BlockSnapshot{{Title: "OR"}, {Title: "Query 1"}}},
			"OR, Query 1",
		},
		{
			"Status", events.TopicBlockStatus,
			&events.StatusChanged{Blocks: []events.BlockSnapshot{{Title: "Query 1", Status: model.StatusVerified}}},
			"Query 1 [verified]",
		},
		{
			"Moved", events.TopicBlockMoved,
			&events.BlocksMoved{Blocks: []events.BlockSnapshot{{Title: "p", Position: model.Position{X: -110, Y: 120}}}},
			"p (-110, 120)",
		},
		{
			"Removed", events.TopicBlockRemoved,
			&events.BlocksRemoved{BlockIDs: []model.BlockID{3, 4}},
			"3, 4",
		},
		{
			"Diagnostic", events.TopicWorkflowDiagnostic,
			&events.PlanDiagnostic{Property: "p", Path: "$[1]", Tag: "Bogus", Error: "malformed"},
			"p $[1] (Bogus): malformed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatEvent(tt.topic, tt.ev)
			if !strings.HasPrefix(got, tt.topic) || !strings.HasSuffix(got, tt.want) {
				t.Errorf("formatEvent = %q, want suffix %q", got, tt.want)
			}
		})
	}
}

func TestWatchEvents_FiltersRun(t *testing.T) {
	logger = slog.New(slog.DiscardHandler)
	jsonOutput = false

	mine, _ := json.Marshal(events.WorkflowCleared{RunID: "run-a"})
	other, _ := json.Marshal(events.WorkflowCleared{RunID: "run-b"})
	ch := make(chan events.Message, 4)
	ch <- events.Message{Topic: events.TopicWorkflowCleared, Data: other}
	ch <- events.Message{Topic: "proofgraph.unknown", Data: []byte(`{}`)}
	ch <- events.Message{Topic: events.TopicWorkflowCleared, Data: mine}
	close(ch)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var buf bytes.Buffer
	if err := watchEvents(ctx, &buf, ch, "run-a"); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 || !strings.HasSuffix(lines[0], "cleared") {
		t.Errorf("output = %q, want one cleared line", buf.String())
	}
}

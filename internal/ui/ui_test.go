package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alfredjeanlab/proofgraph/internal/model"
	"github.com/alfredjeanlab/proofgraph/internal/scene"
)

func TestShouldUseColor(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"NoColor", map[string]string{"NO_COLOR": "1", "CLICOLOR_FORCE": "1"}, false},
		{"Force", map[string]string{"CLICOLOR_FORCE": "1"}, true},
		{"Disabled", map[string]string{"CLICOLOR": "0"}, false},
		// Test output is never a terminal.
		{"Default", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "")
			t.Setenv("CLICOLOR_FORCE", "")
			t.Setenv("CLICOLOR", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if got := ShouldUseColor(nil); got != tt.want {
				t.Errorf("ShouldUseColor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPalette(t *testing.T) {
	plain := Palette{}
	if got := plain.Status(model.StatusVerified); got != "[verified]" {
		t.Errorf("plain status = %q", got)
	}
	color := Palette{Color: true}
	got := color.Status(model.StatusDisproven)
	if !strings.HasPrefix(got, "\x1b[38;5;203m") || !strings.Contains(got, "[disproven]") {
		t.Errorf("colored status = %q", got)
	}
}

func TestRenderTree(t *testing.T) {
	s := scene.New()
	prop, _ := s.AddProperty("robust", model.ForAll)
	or, _ := s.AddConnector(prop, model.KindOr)
	q1, _ := s.AddQuery(or, true, "a.vnnlib")
	if _, err := s.AddQuery(or, true, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddWitness(q1, "cex.npy"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetStatus(q1, model.StatusDisproven); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := RenderTree(&buf, s, Palette{}); err != nil {
		t.Fatalf("RenderTree: %v", err)
	}
	want := strings.Join([]string{
		"[unknown] robust forall",
		"└── [unknown] OR",
		"    ├── [disproven] ¬Query 1 a.vnnlib",
		"    │   └── Counter Example cex.npy",
		"    └── [unknown] ¬Query 2",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("tree:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderTree_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTree(&buf, scene.New(), Palette{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "no properties") {
		t.Errorf("got %q", buf.String())
	}
}

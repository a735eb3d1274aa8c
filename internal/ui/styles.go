package ui

import (
	"fmt"

	"github.com/alfredjeanlab/proofgraph/internal/model"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent   = 74  // blue
	colorMuted    = 245 // medium gray
	colorVerified = 114 // green
	colorRefuted  = 203 // red
)

// Palette styles terminal output. The zero value renders plain text.
type Palette struct {
	Color bool
}

func (p Palette) paint(code int, s string) string {
	if !p.Color {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// Accent returns s in the accent (blue) color.
func (p Palette) Accent(s string) string { return p.paint(colorAccent, s) }

// Muted returns s in the muted (gray) color.
func (p Palette) Muted(s string) string { return p.paint(colorMuted, s) }

// Status renders a status badge such as "[verified]".
func (p Palette) Status(s model.Status) string {
	badge := "[" + string(s) + "]"
	switch s {
	case model.StatusVerified:
		return p.paint(colorVerified, badge)
	case model.StatusDisproven:
		return p.paint(colorRefuted, badge)
	}
	return p.Muted(badge)
}

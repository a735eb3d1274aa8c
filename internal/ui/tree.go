package ui

import (
	"fmt"
	"io"

	"github.com/alfredjeanlab/proofgraph/internal/model"
	"github.com/alfredjeanlab/proofgraph/internal/scene"
)

const (
	branchMid  = "├── "
	branchLast = "└── "
	indentMid  = "│   "
	indentLast = "    "
)

// RenderTree writes every property of s as an ASCII tree with status
// badges.
func RenderTree(w io.Writer, s *scene.Scene, p Palette) error {
	props := s.Properties()
	if len(props) == 0 {
		_, err := fmt.Fprintln(w, p.Muted("(no properties)"))
		return err
	}
	for _, id := range props {
		b, err := s.Block(id)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s %s %s\n", p.Status(b.Status), p.Accent(b.Title), p.Muted(string(b.Property().Quantifier))); err != nil {
			return err
		}
		if err := renderChildren(w, s, p, b.Children, ""); err != nil {
			return err
		}
	}
	return nil
}

func renderChildren(w io.Writer, s *scene.Scene, p Palette, ids []model.BlockID, prefix string) error {
	for i, id := range ids {
		b, err := s.Block(id)
		if err != nil {
			return err
		}
		branch, indent := branchMid, indentMid
		if i == len(ids)-1 {
			branch, indent = branchLast, indentLast
		}
		if _, err := fmt.Fprintf(w, "%s%s%s\n", prefix, branch, Label(b, p)); err != nil {
			return err
		}
		if err := renderChildren(w, s, p, b.Children, prefix+indent); err != nil {
			return err
		}
	}
	return nil
}

// Label renders one block line without tree decoration.
func Label(b *model.Block, p Palette) string {
	switch b.Kind {
	case model.KindQuery:
		label := fmt.Sprintf("%s %s", p.Status(b.Status), b.Title)
		if ref := b.Query().SourceRef; ref != "" {
			label += " " + p.Muted(ref)
		}
		return label
	case model.KindWitness:
		label := b.Title
		if ref := b.Witness().DataRef; ref != "" {
			label += " " + p.Muted(ref)
		}
		return label
	case model.KindAnd, model.KindOr:
		return fmt.Sprintf("%s %s", p.Status(b.Status), p.Accent(b.Title))
	}
	return fmt.Sprintf("%s %s", p.Status(b.Status), b.Title)
}

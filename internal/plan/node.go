// Package plan decodes proof plans and turns them into scene blocks.
package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Tag identifies the kind of a plan node.
type Tag string

const (
	TagQuery    Tag = "Query"
	TagDisjunct Tag = "Disjunct"
	TagConjunct Tag = "Conjunct"
)

// IsValid reports whether t is a recognized node tag.
func (t Tag) IsValid() bool {
	switch t {
	case TagQuery, TagDisjunct, TagConjunct:
		return true
	}
	return false
}

// Node is one element of a plan tree.
//
// Query nodes carry opaque subquery payloads, one per Query block.
// Disjunct and Conjunct nodes carry child nodes. Nodes with an unrecognized
// tag, or whose contents do not match their tag, decode without error and
// keep the raw contents so the parser can report them.
type Node struct {
	Tag        Tag
	Subqueries []json.RawMessage
	Children   []Node
	Raw        json.RawMessage

	err error
}

// Query builds a Query node whose subqueries are the given references.
func Query(refs ...string) Node {
	n := Node{Tag: TagQuery, Subqueries: make([]json.RawMessage, len(refs))}
	for i, ref := range refs {
		n.Subqueries[i], _ = json.Marshal(ref)
	}
	return n
}

// Disjunct builds a Disjunct node.
func Disjunct(children ...Node) Node {
	return Node{Tag: TagDisjunct, Children: children}
}

// Conjunct builds a Conjunct node.
func Conjunct(children ...Node) Node {
	return Node{Tag: TagConjunct, Children: children}
}

// Err returns why the node is malformed, or nil.
func (n Node) Err() error {
	if n.err != nil {
		return n.err
	}
	if !n.Tag.IsValid() {
		return fmt.Errorf("unrecognized tag %q", n.Tag)
	}
	return nil
}

type wireNode struct {
	Tag      Tag             `json:"tag"`
	Contents json.RawMessage `json:"contents,omitempty"`
}

type disjunctAll struct {
	UnDisjunctAll []json.RawMessage `json:"unDisjunctAll"`
}

type queryContents struct {
	Queries disjunctAll `json:"queries"`
}

type conjunctAll struct {
	UnConjunctAll []json.RawMessage `json:"unConjunctAll"`
}

// decodeNodes decodes each element of a child list on its own, so one
// malformed element never takes its siblings down with it.
func decodeNodes(raws []json.RawMessage) []Node {
	if raws == nil {
		return nil
	}
	nodes := make([]Node, len(raws))
	for i, raw := range raws {
		_ = nodes[i].UnmarshalJSON(raw)
	}
	return nodes
}

// UnmarshalJSON decodes the tagged wire form {"tag": ..., "contents": ...}.
// It never fails: anything that is not a well-formed node yields a Node
// whose Err reports why.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		*n = Node{Raw: append(json.RawMessage(nil), data...), err: fmt.Errorf("not a plan node: %w", err)}
		return nil
	}
	*n = Node{Tag: w.Tag, Raw: w.Contents}

	if len(w.Contents) == 0 {
		if w.Tag.IsValid() {
			n.err = fmt.Errorf("%s node has no contents", w.Tag)
		}
		return nil
	}

	switch w.Tag {
	case TagQuery:
		var c queryContents
		if err := json.Unmarshal(w.Contents, &c); err != nil {
			n.err = fmt.Errorf("decode query contents: %w", err)
			return nil
		}
		n.Subqueries = c.Queries.UnDisjunctAll
	case TagDisjunct:
		var c disjunctAll
		if err := json.Unmarshal(w.Contents, &c); err != nil {
			n.err = fmt.Errorf("decode disjunct contents: %w", err)
			return nil
		}
		n.Children = decodeNodes(c.UnDisjunctAll)
	case TagConjunct:
		var c conjunctAll
		if err := json.Unmarshal(w.Contents, &c); err != nil {
			n.err = fmt.Errorf("decode conjunct contents: %w", err)
			return nil
		}
		n.Children = decodeNodes(c.UnConjunctAll)
	}
	return nil
}

// MarshalJSON encodes the node in its tagged wire form.
func (n Node) MarshalJSON() ([]byte, error) {
	var contents any
	switch n.Tag {
	case TagQuery:
		subs := n.Subqueries
		if subs == nil {
			subs = []json.RawMessage{}
		}
		contents = map[string]any{"queries": map[string]any{"unDisjunctAll": subs}}
	case TagDisjunct:
		contents = map[string]any{"unDisjunctAll": nonNil(n.Children)}
	case TagConjunct:
		contents = map[string]any{"unConjunctAll": nonNil(n.Children)}
	default:
		if len(n.Raw) > 0 {
			contents = n.Raw
		}
	}
	return json.Marshal(struct {
		Tag      Tag `json:"tag"`
		Contents any `json:"contents,omitempty"`
	}{n.Tag, contents})
}

func nonNil(nodes []Node) []Node {
	if nodes == nil {
		return []Node{}
	}
	return nodes
}

// SourceRef renders a subquery payload as a reference string: JSON strings
// are unquoted, anything else is kept as compact JSON.
func SourceRef(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

package plan

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a plan document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the document format from a file name. Anything that
// is not .yaml or .yml is read as JSON, which covers .vcl-plan files.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Document is a decoded plan. Roots is the top-level list, which is an
// implicit disjunction.
type Document struct {
	Roots []Node
}

type wireDocument struct {
	QueryMetaData struct {
		Contents struct {
			Contents disjunctAll `json:"contents"`
		} `json:"contents"`
	} `json:"queryMetaData"`
}

// Decode reads a plan document.
func Decode(r io.Reader, format Format) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}

	switch format {
	case FormatJSON, "":
	case FormatYAML:
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported plan format %q", format)
	}

	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &Document{Roots: decodeNodes(w.QueryMetaData.Contents.Contents.UnDisjunctAll)}, nil
}

// Encode writes doc in the JSON wire form accepted by Decode.
func Encode(w io.Writer, doc *Document) error {
	var wd struct {
		QueryMetaData struct {
			Contents struct {
				Contents struct {
					UnDisjunctAll []Node `json:"unDisjunctAll"`
				} `json:"contents"`
			} `json:"contents"`
		} `json:"queryMetaData"`
	}
	wd.QueryMetaData.Contents.Contents.UnDisjunctAll = nonNil(doc.Roots)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(wd)
}

// yamlToJSON re-encodes a YAML document as JSON so both formats share the
// tagged-node decoder.
func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode plan yaml: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("convert plan yaml: %w", err)
	}
	return out, nil
}

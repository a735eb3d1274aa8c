package workflow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/alfredjeanlab/proofgraph/internal/model"
	"github.com/alfredjeanlab/proofgraph/internal/source"
)

// PropertySpec names one property and the plan that proves it.
type PropertySpec struct {
	Title      string           `toml:"title" yaml:"title"`
	Plan       string           `toml:"plan" yaml:"plan"`
	Quantifier model.Quantifier `toml:"quantifier" yaml:"quantifier"`
}

// Negated reports whether the property is checked by refutation. ForAll
// properties are, and an empty quantifier means ForAll.
func (p PropertySpec) Negated() bool {
	return p.Quantifier == "" || p.Quantifier == model.ForAll
}

// Manifest lists the properties of a verification workflow.
type Manifest struct {
	Name       string         `toml:"name" yaml:"name"`
	Results    string         `toml:"results" yaml:"results"` // optional JSONL results to replay
	Properties []PropertySpec `toml:"property" yaml:"property"`

	location string
}

// ManifestFormat picks the manifest decoder from a location's extension.
func ManifestFormat(location string) string {
	switch strings.ToLower(path.Ext(location)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "toml"
}

// DecodeManifest reads a manifest in the given format ("toml" or "yaml").
func DecodeManifest(r io.Reader, format string) (*Manifest, error) {
	var m Manifest
	switch format {
	case "toml":
		md, err := toml.NewDecoder(r).Decode(&m)
		if err != nil {
			return nil, fmt.Errorf("decode manifest: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode manifest: unknown keys %v", undecoded)
		}
	case "yaml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode manifest: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifest reads a manifest from store. Relative plan and result
// locations resolve against the manifest's own location.
func LoadManifest(ctx context.Context, store source.Store, location string) (*Manifest, error) {
	data, err := source.ReadAll(ctx, store, location)
	if err != nil {
		return nil, err
	}
	m, err := DecodeManifest(bytes.NewReader(data), ManifestFormat(location))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	m.location = location
	return m, nil
}

// Validate checks that every property names a plan and a known quantifier.
func (m *Manifest) Validate() error {
	if len(m.Properties) == 0 {
		return fmt.Errorf("manifest: no properties")
	}
	for i, p := range m.Properties {
		if p.Plan == "" {
			return fmt.Errorf("manifest: property %d (%q): plan is required", i, p.Title)
		}
		if p.Quantifier != "" && !p.Quantifier.IsValid() {
			return fmt.Errorf("manifest: property %d (%q): invalid quantifier %q", i, p.Title, p.Quantifier)
		}
	}
	return nil
}

// Resolve turns a location from the manifest into one the store can open.
func (m *Manifest) Resolve(location string) string {
	if m.location == "" || source.IsS3(location) || filepath.IsAbs(location) {
		return location
	}
	if source.IsS3(m.location) {
		rest := strings.TrimPrefix(m.location, "s3://")
		return "s3://" + path.Join(path.Dir(rest), location)
	}
	return filepath.Join(filepath.Dir(m.location), location)
}

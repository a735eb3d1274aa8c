package model

// Payload is the kind-specific data carried by a block. The unexported
// marker method restricts implementations to this package.
type Payload interface {
	Clone() Payload
	payload()
}

// PropertyData is carried by property blocks.
type PropertyData struct {
	Quantifier Quantifier `json:"quantifier"`
	Formula    string     `json:"formula,omitempty"`
}

func (d *PropertyData) Clone() Payload { c := *d; return &c }
func (d *PropertyData) payload()       {}

// QueryData is carried by query blocks. SourceRef is opaque to the engine;
// the host owns what it points at (query file path or text).
type QueryData struct {
	Sequence  int    `json:"sequence"`
	Negated   bool   `json:"negated"`
	SourceRef string `json:"source_ref,omitempty"`
}

func (d *QueryData) Clone() Payload { c := *d; return &c }
func (d *QueryData) payload()       {}

// WitnessData is carried by witness blocks. A counterexample is a witness
// disproving a ForAll query.
type WitnessData struct {
	IsCounterexample bool   `json:"is_counterexample"`
	DataRef          string `json:"data_ref,omitempty"`
}

func (d *WitnessData) Clone() Payload { c := *d; return &c }
func (d *WitnessData) payload()       {}

// ConnectorData is carried by logical And/Or blocks.
type ConnectorData struct{}

func (d *ConnectorData) Clone() Payload { return &ConnectorData{} }
func (d *ConnectorData) payload()       {}

// PayloadMatches reports whether p is the payload type expected for kind.
func PayloadMatches(kind BlockKind, p Payload) bool {
	switch kind {
	case KindProperty:
		_, ok := p.(*PropertyData)
		return ok
	case KindQuery:
		_, ok := p.(*QueryData)
		return ok
	case KindWitness:
		_, ok := p.(*WitnessData)
		return ok
	case KindAnd, KindOr:
		_, ok := p.(*ConnectorData)
		return ok
	}
	return false
}

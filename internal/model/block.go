package model

// BlockID identifies a block within a Scene. IDs are assigned at insertion
// and are never reused until the scene is cleared.
type BlockID int

// EdgeID identifies an edge within a Scene.
type EdgeID int

// NoParent marks a block that is not attached to any parent.
const NoParent BlockID = -1

// BlockKind categorizes a block in the workflow tree.
type BlockKind string

const (
	KindProperty BlockKind = "property"
	KindQuery    BlockKind = "query"
	KindWitness  BlockKind = "witness"
	KindAnd      BlockKind = "and"
	KindOr       BlockKind = "or"
)

// String returns the string representation of the kind.
func (k BlockKind) String() string {
	return string(k)
}

// IsValid checks whether the kind is a known value.
func (k BlockKind) IsValid() bool {
	switch k {
	case KindProperty, KindQuery, KindWitness, KindAnd, KindOr:
		return true
	}
	return false
}

// IsConnector reports whether the kind is a logical And/Or block.
func (k BlockKind) IsConnector() bool {
	return k == KindAnd || k == KindOr
}

// HasInput reports whether blocks of this kind carry an Input socket.
func (k BlockKind) HasInput() bool {
	return k != KindProperty
}

// HasOutput reports whether blocks of this kind carry an Output socket.
func (k BlockKind) HasOutput() bool {
	return k != KindWitness
}

// Accepts reports whether a block of kind k may be the parent of a block of
// kind child.
func (k BlockKind) Accepts(child BlockKind) bool {
	switch k {
	case KindProperty, KindAnd, KindOr:
		return child == KindQuery || child.IsConnector()
	case KindQuery:
		return child == KindWitness
	}
	return false
}

// Status is the verification outcome of a block.
type Status string

const (
	StatusUnknown   Status = "unknown"
	StatusVerified  Status = "verified"
	StatusDisproven Status = "disproven"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusUnknown, StatusVerified, StatusDisproven:
		return true
	}
	return false
}

// IsResolved reports whether the status is a definite outcome.
func (s Status) IsResolved() bool {
	return s == StatusVerified || s == StatusDisproven
}

// Quantifier is the top-level quantifier of a property.
type Quantifier string

const (
	ForAll Quantifier = "forall"
	Exists Quantifier = "exists"
)

// String returns the string representation of the quantifier.
func (q Quantifier) String() string {
	return string(q)
}

// IsValid checks whether the quantifier is a known value.
func (q Quantifier) IsValid() bool {
	return q == ForAll || q == Exists
}

// QuantifierFor returns the quantifier of a property whose queries were
// negated for refutation-based checking. Negated queries belong to ForAll
// properties.
func QuantifierFor(negated bool) Quantifier {
	if negated {
		return ForAll
	}
	return Exists
}

// SocketDirection is the direction of a connection point on a block.
type SocketDirection string

const (
	Input  SocketDirection = "input"
	Output SocketDirection = "output"
)

// String returns the string representation of the direction.
func (d SocketDirection) String() string {
	return string(d)
}

// Position is a block's coordinate in scene space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Socket is a connection point owned by exactly one block. Edges are
// referenced by id; the Scene owns them.
type Socket struct {
	Direction SocketDirection `json:"direction"`
	Block     BlockID         `json:"block"`
	Edges     []EdgeID        `json:"edges,omitempty"`
}

// Block is a node in the workflow tree.
type Block struct {
	ID       BlockID   `json:"id"`
	Kind     BlockKind `json:"kind"`
	Title    string    `json:"title"`
	Position Position  `json:"position"`
	Status   Status    `json:"status"`
	ParentID BlockID   `json:"parent_id"`
	Children []BlockID `json:"children,omitempty"`

	Input  *Socket `json:"input,omitempty"`
	Output *Socket `json:"output,omitempty"`

	Data Payload `json:"data,omitempty"`
}

// HasParent reports whether the block is attached to a parent.
func (b *Block) HasParent() bool {
	return b.ParentID != NoParent
}

// Query returns the query payload, or nil if the block is not a query.
func (b *Block) Query() *QueryData {
	d, _ := b.Data.(*QueryData)
	return d
}

// Property returns the property payload, or nil if the block is not a property.
func (b *Block) Property() *PropertyData {
	d, _ := b.Data.(*PropertyData)
	return d
}

// Witness returns the witness payload, or nil if the block is not a witness.
func (b *Block) Witness() *WitnessData {
	d, _ := b.Data.(*WitnessData)
	return d
}

// Socket returns the block's socket in the given direction, or nil.
func (b *Block) Socket(dir SocketDirection) *Socket {
	if dir == Input {
		return b.Input
	}
	return b.Output
}

// Clone returns a deep copy of the block safe to hand to callers.
func (b *Block) Clone() *Block {
	c := *b
	c.Children = append([]BlockID(nil), b.Children...)
	if b.Input != nil {
		in := *b.Input
		in.Edges = append([]EdgeID(nil), b.Input.Edges...)
		c.Input = &in
	}
	if b.Output != nil {
		out := *b.Output
		out.Edges = append([]EdgeID(nil), b.Output.Edges...)
		c.Output = &out
	}
	if b.Data != nil {
		c.Data = b.Data.Clone()
	}
	return &c
}

// Edge is a directed connector from a parent's Output socket to a child's
// Input socket.
type Edge struct {
	ID   EdgeID  `json:"id"`
	From BlockID `json:"from"`
	To   BlockID `json:"to"`
}

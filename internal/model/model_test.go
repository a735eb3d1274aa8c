package model

import (
	"errors"
	"testing"
)

func TestBlockKind_IsValid(t *testing.T) {
	for _, tc := range []struct {
		kind BlockKind
		want bool
	}{
		{KindProperty, true},
		{KindQuery, true},
		{KindWitness, true},
		{KindAnd, true},
		{KindOr, true},
		{BlockKind(""), false},
		{BlockKind("xor"), false},
	} {
		if got := tc.kind.IsValid(); got != tc.want {
			t.Errorf("BlockKind(%q).IsValid() = %v, want %v", tc.kind, got, tc.want)
		}
	}
}

func TestBlockKind_Sockets(t *testing.T) {
	for _, tc := range []struct {
		kind       BlockKind
		wantInput  bool
		wantOutput bool
	}{
		{KindProperty, false, true},
		{KindQuery, true, true},
		{KindWitness, true, false},
		{KindAnd, true, true},
		{KindOr, true, true},
	} {
		if got := tc.kind.HasInput(); got != tc.wantInput {
			t.Errorf("%s.HasInput() = %v, want %v", tc.kind, got, tc.wantInput)
		}
		if got := tc.kind.HasOutput(); got != tc.wantOutput {
			t.Errorf("%s.HasOutput() = %v, want %v", tc.kind, got, tc.wantOutput)
		}
	}
}

func TestBlockKind_Accepts(t *testing.T) {
	for _, tc := range []struct {
		parent BlockKind
		child  BlockKind
		want   bool
	}{
		{KindProperty, KindQuery, true},
		{KindProperty, KindOr, true},
		{KindProperty, KindWitness, false},
		{KindProperty, KindProperty, false},
		{KindOr, KindAnd, true},
		{KindAnd, KindQuery, true},
		{KindQuery, KindWitness, true},
		{KindQuery, KindQuery, false},
		{KindWitness, KindWitness, false},
	} {
		if got := tc.parent.Accepts(tc.child); got != tc.want {
			t.Errorf("%s.Accepts(%s) = %v, want %v", tc.parent, tc.child, got, tc.want)
		}
	}
}

func TestStatus_IsResolved(t *testing.T) {
	for _, tc := range []struct {
		status Status
		want   bool
	}{
		{StatusUnknown, false},
		{StatusVerified, true},
		{StatusDisproven, true},
		{Status("pending"), false},
	} {
		if got := tc.status.IsResolved(); got != tc.want {
			t.Errorf("Status(%q).IsResolved() = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestQuantifierFor(t *testing.T) {
	if got := QuantifierFor(true); got != ForAll {
		t.Errorf("QuantifierFor(true) = %q, want %q", got, ForAll)
	}
	if got := QuantifierFor(false); got != Exists {
		t.Errorf("QuantifierFor(false) = %q, want %q", got, Exists)
	}
}

func TestValidateBlock(t *testing.T) {
	for _, tc := range []struct {
		name    string
		kind    BlockKind
		data    Payload
		wantErr bool
	}{
		{"Property", KindProperty, &PropertyData{Quantifier: ForAll}, false},
		{"Query", KindQuery, &QueryData{Sequence: 1}, false},
		{"Witness", KindWitness, &WitnessData{}, false},
		{"Or", KindOr, &ConnectorData{}, false},
		{"MissingPayload", KindQuery, nil, true},
		{"MismatchedPayload", KindWitness, &QueryData{}, true},
		{"BadQuantifier", KindProperty, &PropertyData{Quantifier: "most"}, true},
		{"NegativeSequence", KindQuery, &QueryData{Sequence: -3}, true},
		{"UnknownKind", BlockKind("xor"), &ConnectorData{}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateBlock(tc.kind, tc.data)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidPayload) {
					t.Errorf("error %v does not match ErrInvalidPayload", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestBlock_CloneIsDeep(t *testing.T) {
	b := &Block{
		ID:       3,
		Kind:     KindQuery,
		ParentID: 1,
		Children: []BlockID{4},
		Input:    &Socket{Direction: Input, Block: 3, Edges: []EdgeID{2}},
		Output:   &Socket{Direction: Output, Block: 3, Edges: []EdgeID{3}},
		Data:     &QueryData{Sequence: 7, Negated: true},
	}

	c := b.Clone()
	c.Children[0] = 99
	c.Input.Edges[0] = 99
	c.Query().Sequence = 100

	if b.Children[0] != 4 {
		t.Errorf("Children shared with clone")
	}
	if b.Input.Edges[0] != 2 {
		t.Errorf("Input edges shared with clone")
	}
	if b.Query().Sequence != 7 {
		t.Errorf("payload shared with clone")
	}
}

func TestBlock_PayloadAccessors(t *testing.T) {
	b := &Block{Kind: KindWitness, Data: &WitnessData{IsCounterexample: true}}
	if b.Witness() == nil || !b.Witness().IsCounterexample {
		t.Errorf("Witness() = %+v, want counterexample payload", b.Witness())
	}
	if b.Query() != nil {
		t.Errorf("Query() on witness = %+v, want nil", b.Query())
	}
	if b.Property() != nil {
		t.Errorf("Property() on witness = %+v, want nil", b.Property())
	}
}

package mock

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/oxjest/mockgraph/runtime/value"
)

// Metadata describes one visited value. A node with Ref set and no Type is a
// back-reference to the node registered under that refId.
type Metadata struct {
	Type    Category
	RefID   *int
	Ref     *int
	Members []Member
	Value   value.Value
	Name    *string

	// PriorBehavior is the implementation configured on a function that was
	// already a stub when it was mirrored.
	PriorBehavior value.CallFunc
}

// Member is one named slot of a node. Members keep the order in which the
// builder visited them; generation must follow the same order.
type Member struct {
	Name string
	Node *Metadata
}

func intPtr(i int) *int { return &i }

// IsRef reports whether md is a back-reference node.
func (md *Metadata) IsRef() bool {
	return md.Ref != nil && md.Type == None
}

// Member returns the child node stored under name.
func (md *Metadata) Member(name string) (*Metadata, bool) {
	for _, m := range md.Members {
		if m.Name == name {
			return m.Node, true
		}
	}
	return nil, false
}

// MemberNames returns slot names in visit order.
func (md *Metadata) MemberNames() []string {
	names := make([]string, len(md.Members))
	for i, m := range md.Members {
		names[i] = m.Name
	}
	return names
}

// Walk visits md and every descendant in pre-order. path is the slot path from md.
func (md *Metadata) Walk(fn func(path []string, node *Metadata) bool) {
	md.walk(nil, fn)
}

func (md *Metadata) walk(path []string, fn func([]string, *Metadata) bool) bool {
	if !fn(path, md) {
		return false
	}
	for _, m := range md.Members {
		if !m.Node.walk(append(path[:len(path):len(path)], m.Name), fn) {
			return false
		}
	}
	return true
}

// metadataJSON is the wire shape of a node.
type metadataJSON struct {
	Type             Category        `json:"type,omitempty"`
	RefID            *int            `json:"refId,omitempty"`
	Ref              *int            `json:"ref,omitempty"`
	Members          json.RawMessage `json:"members,omitempty"`
	Value            json.RawMessage `json:"value,omitempty"`
	Name             *string         `json:"name,omitempty"`
	HasPriorBehavior bool            `json:"hasPriorBehavior,omitempty"`
}

// MarshalJSON implements json.Marshaler. Members are written as an object in
// visit order.
func (md *Metadata) MarshalJSON() ([]byte, error) {
	out := metadataJSON{
		Type:             md.Type,
		RefID:            md.RefID,
		Ref:              md.Ref,
		Name:             md.Name,
		HasPriorBehavior: md.PriorBehavior != nil,
	}

	if len(md.Members) > 0 {
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, m := range md.Members {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(m.Name)
			if err != nil {
				return nil, err
			}
			child, err := json.Marshal(m.Node)
			if err != nil {
				return nil, fmt.Errorf("member %q: %w", m.Name, err)
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(child)
		}
		buf.WriteByte('}')
		out.Members = buf.Bytes()
	}

	switch md.Type {
	case CategoryConstant, CategoryCollection:
		raw, err := encodeLeaf(md.Value)
		if err != nil {
			return nil, err
		}
		out.Value = raw
	}

	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler, preserving member order.
// Collections decode as fresh empty collections of the same class and symbols
// as fresh symbols; prior behaviour is never restored.
func (md *Metadata) UnmarshalJSON(data []byte) error {
	var in metadataJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*md = Metadata{
		Type:  in.Type,
		RefID: in.RefID,
		Ref:   in.Ref,
		Name:  in.Name,
	}

	if len(in.Members) > 0 && string(in.Members) != "null" {
		members, err := decodeMembers(in.Members)
		if err != nil {
			return err
		}
		md.Members = members
	}

	switch md.Type {
	case CategoryConstant, CategoryCollection:
		v, err := decodeLeaf(md.Type, in.Value)
		if err != nil {
			return err
		}
		md.Value = v
	case CategoryNull:
		md.Value = value.Null
	case CategoryUndefined:
		md.Value = value.Undefined
	}

	return nil
}

func decodeMembers(raw json.RawMessage) ([]Member, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("members: expected object, got %v", tok)
	}

	var members []Member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("members: expected key, got %v", tok)
		}
		child := &Metadata{}
		if err := dec.Decode(child); err != nil {
			return nil, fmt.Errorf("member %q: %w", name, err)
		}
		members = append(members, Member{Name: name, Node: child})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return members, nil
}

// leafJSON encodes the payloads that have no direct JSON form.
type leafJSON struct {
	Symbol     *string         `json:"$symbol,omitempty"`
	Number     string          `json:"$number,omitempty"`
	Boxed      json.RawMessage `json:"$boxed,omitempty"`
	Collection value.Class     `json:"$collection,omitempty"`
	Size       *int            `json:"size,omitempty"`
}

func encodeLeaf(v value.Value) (json.RawMessage, error) {
	switch x := v.(type) {
	case *value.Symbol:
		desc := x.Description()
		return json.Marshal(leafJSON{Symbol: &desc})
	case *value.Object:
		if x == nil {
			return json.RawMessage("null"), nil
		}
		if prim := x.Primitive(); prim != nil {
			inner, err := encodeLeaf(prim)
			if err != nil {
				return nil, err
			}
			return json.Marshal(leafJSON{Boxed: inner})
		}
		size := x.Size()
		return json.Marshal(leafJSON{Collection: x.Class(), Size: &size})
	case float64:
		if name, ok := nonFinite(x); ok {
			return json.Marshal(leafJSON{Number: name})
		}
	case float32:
		if name, ok := nonFinite(float64(x)); ok {
			return json.Marshal(leafJSON{Number: name})
		}
	}
	return json.Marshal(v)
}

// nonFinite names the numbers JSON cannot carry.
func nonFinite(f float64) (string, bool) {
	switch {
	case math.IsNaN(f):
		return "NaN", true
	case math.IsInf(f, 1):
		return "Infinity", true
	case math.IsInf(f, -1):
		return "-Infinity", true
	}
	return "", false
}

func decodeLeaf(category Category, raw json.RawMessage) (value.Value, error) {
	if len(raw) == 0 {
		return value.Undefined, nil
	}
	if raw[0] != '{' {
		var prim any
		if err := json.Unmarshal(raw, &prim); err != nil {
			return nil, err
		}
		return prim, nil
	}

	var leaf leafJSON
	if err := json.Unmarshal(raw, &leaf); err != nil {
		return nil, err
	}
	switch {
	case leaf.Symbol != nil:
		return value.NewSymbol(*leaf.Symbol), nil
	case leaf.Number != "":
		switch leaf.Number {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
		return nil, fmt.Errorf("unknown number %q", leaf.Number)
	case len(leaf.Boxed) > 0:
		prim, err := decodeLeaf(CategoryConstant, leaf.Boxed)
		if err != nil {
			return nil, err
		}
		return value.NewBoxed(prim)
	case category == CategoryCollection:
		switch leaf.Collection {
		case value.ClassMap:
			return value.NewMap(), nil
		case value.ClassWeakMap:
			return value.NewWeakMap(), nil
		case value.ClassSet:
			return value.NewSet(), nil
		}
		return nil, fmt.Errorf("unknown collection class %q", leaf.Collection)
	}
	return nil, fmt.Errorf("cannot decode %s payload %s", category, raw)
}

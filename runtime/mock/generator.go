package mock

import (
	"fmt"
	"strings"

	"github.com/oxjest/mockgraph/runtime/value"
)

// generator owns the state of a single generate pass.
type generator struct {
	refs map[int]value.Value
	path []string
}

// GenerateMock rebuilds a mirrored value from md. Back-references must point
// at refIds generated earlier in member order; anything else is reported as
// an invariant violation.
func GenerateMock(md *Metadata) (value.Value, error) {
	g := &generator{
		refs: make(map[int]value.Value),
		path: []string{rootPath},
	}
	return g.generate(md)
}

func (g *generator) fail(code string, kind error, format string, args ...any) error {
	return newError(PhaseGenerate, code, kind, strings.Join(g.path, "."), fmt.Sprintf(format, args...))
}

// allocate creates the instance for a node without filling its members.
func (g *generator) allocate(md *Metadata) (value.Value, error) {
	switch md.Type {
	case CategoryObject:
		return value.NewObject(), nil
	case CategoryArray:
		return value.NewArray(), nil
	case CategoryRegExp:
		return value.MustRegExp("", ""), nil
	case CategoryConstant, CategoryCollection:
		return md.Value, nil
	case CategoryNull:
		if md.Value == nil {
			return value.Null, nil
		}
		return md.Value, nil
	case CategoryUndefined:
		return value.Undefined, nil
	case CategoryFunction:
		name := ""
		if md.Name != nil {
			name = *md.Name
		}
		stub := NewStub(name)
		if md.PriorBehavior != nil {
			stub.MockImplementation(md.PriorBehavior)
		}
		return stub.Func(), nil
	}
	return nil, g.fail(CodeUnknownCategory, ErrUnknownCategory, "category %q", md.Type)
}

func holdsMembers(c Category) bool {
	return c == CategoryObject || c == CategoryFunction || c == CategoryRegExp
}

func (g *generator) generate(md *Metadata) (value.Value, error) {
	if md == nil {
		return nil, g.fail(CodeMalformedTree, ErrMalformedTree, "nil node")
	}

	if md.IsRef() {
		instance, ok := g.refs[*md.Ref]
		if !ok {
			return nil, g.fail(CodeDanglingRef, ErrDanglingRef, "ref %d", *md.Ref)
		}
		return instance, nil
	}

	instance, err := g.allocate(md)
	if err != nil {
		return nil, err
	}

	// Stored before members so self and sibling references resolve to the
	// instance under construction.
	if md.RefID != nil {
		g.refs[*md.RefID] = instance
	}

	if len(md.Members) == 0 {
		return instance, nil
	}

	target, ok := instance.(*value.Object)
	if !ok || target == nil || !holdsMembers(md.Type) {
		return nil, g.fail(CodeMalformedTree, ErrMalformedTree, "%s node cannot hold members", md.Type)
	}

	for _, m := range md.Members {
		g.path = append(g.path, m.Name)
		child, err := g.generate(m.Node)
		if err != nil {
			return nil, err
		}
		if _, err := target.Set(m.Name, child); err != nil {
			return nil, g.fail(CodeMalformedTree, ErrMalformedTree, "assigning slot: %v", err)
		}
		g.path = g.path[:len(g.path)-1]
	}

	return instance, nil
}

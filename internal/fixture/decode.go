package fixture

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oxjest/mockgraph/runtime/value"
)

// Directive keys. A mapping holding one of these is decoded as the value the
// directive names instead of a plain object.
const (
	keyFn        = "$fn"
	keyClass     = "$class"
	keyRegExp    = "$regexp"
	keySet       = "$set"
	keyMap       = "$map"
	keyRef       = "$ref"
	keyUndefined = "$undefined"
	keyBoxed     = "$boxed"
	keyDate      = "$date"
	keyBigInt    = "$bigint"
)

var directives = []string{keyFn, keyClass, keyRegExp, keySet, keyMap, keyRef, keyUndefined, keyBoxed, keyDate, keyBigInt}

// builder turns YAML nodes into values. Objects are recorded by dotted path
// before their members are built, so a $ref may name an ancestor.
type builder struct {
	nodes map[string]*value.Object
}

func newBuilder() *builder {
	return &builder{nodes: make(map[string]*value.Object)}
}

type nodeError struct {
	path string
	line int
	err  error
}

func (e *nodeError) Error() string {
	path := e.path
	if path == "" {
		path = "exports"
	}
	return fmt.Sprintf("%s (line %d): %v", path, e.line, e.err)
}

func (e *nodeError) Unwrap() error { return e.err }

func fail(n *yaml.Node, path string, err error) error {
	var ne *nodeError
	if errors.As(err, &ne) {
		return err
	}
	return &nodeError{path: path, line: n.Line, err: err}
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// pairs returns the key/value node pairs of a mapping in document order.
func pairs(n *yaml.Node) ([][2]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: expected mapping", ErrInvalidFixture)
	}
	out := make([][2]*yaml.Node, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, [2]*yaml.Node{n.Content[i], n.Content[i+1]})
	}
	return out, nil
}

func field(n *yaml.Node, key string) *yaml.Node {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func directive(n *yaml.Node) string {
	for _, d := range directives {
		if field(n, d) != nil {
			return d
		}
	}
	return ""
}

// exports builds the root. A mapping root becomes a module namespace, or
// interop exports with accessor bindings when esModule is set.
func (b *builder) exports(n *yaml.Node, esModule bool) (value.Value, error) {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode || directive(n) != "" {
		if esModule {
			return nil, fail(n, "", fmt.Errorf("%w: esModule exports must be a mapping", ErrInvalidFixture))
		}
		return b.build(n, "")
	}

	var root *value.Object
	if esModule {
		root = value.NewInteropExports()
	} else {
		root = value.NewModuleNamespace()
	}
	b.nodes[""] = root

	kvs, _ := pairs(n)
	for _, kv := range kvs {
		name := kv[0].Value
		v, err := b.build(kv[1], name)
		if err != nil {
			return nil, err
		}
		if esModule {
			bound := v
			root.DefineExport(name, func() value.Value { return bound })
		} else {
			root.Bind(name, v)
		}
	}
	return root, nil
}

func (b *builder) build(n *yaml.Node, path string) (value.Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return b.build(n.Alias, path)
	case yaml.ScalarNode:
		v, err := scalar(n)
		if err != nil {
			return nil, fail(n, path, err)
		}
		return v, nil
	case yaml.SequenceNode:
		arr := value.NewArray()
		b.nodes[path] = arr
		for i, item := range n.Content {
			v, err := b.build(item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			arr.Push(v)
		}
		return arr, nil
	case yaml.MappingNode:
		if d := directive(n); d != "" {
			v, err := b.directive(d, n, path)
			if err != nil {
				return nil, fail(n, path, err)
			}
			return v, nil
		}
		obj := value.NewObject()
		b.nodes[path] = obj
		if err := b.members(obj, n, path, false); err != nil {
			return nil, err
		}
		return obj, nil
	}
	return nil, fail(n, path, fmt.Errorf("%w: unexpected node kind %d", ErrInvalidFixture, n.Kind))
}

// members builds every pair of n onto target. hidden members are defined the
// way class bodies define them: non-enumerable.
func (b *builder) members(target *value.Object, n *yaml.Node, path string, hidden bool) error {
	kvs, err := pairs(n)
	if err != nil {
		return fail(n, path, err)
	}
	for _, kv := range kvs {
		name := kv[0].Value
		v, err := b.build(kv[1], join(path, name))
		if err != nil {
			return err
		}
		if hidden {
			target.DefineDataProperty(name, v, true, false, true)
		} else if _, err := target.Set(name, v); err != nil {
			return fail(kv[1], join(path, name), err)
		}
	}
	return nil
}

func scalar(n *yaml.Node) (value.Value, error) {
	switch n.Tag {
	case "!!null":
		return value.Null, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return f, nil
	}
	return n.Value, nil
}

func (b *builder) directive(d string, n *yaml.Node, path string) (value.Value, error) {
	arg := field(n, d)

	switch d {
	case keyRef:
		target, ok := b.nodes[arg.Value]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnresolvedRef, arg.Value)
		}
		return target, nil

	case keyUndefined:
		return value.Undefined, nil

	case keyFn:
		return b.function(n, arg.Value, path)

	case keyClass:
		return b.class(n, arg.Value, path)

	case keyRegExp:
		flags := ""
		if f := field(n, "flags"); f != nil {
			flags = f.Value
		}
		re, err := value.NewRegExp(arg.Value, flags)
		if err != nil {
			return nil, err
		}
		b.nodes[path] = re
		return re, nil

	case keySet:
		if arg.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("%w: $set expects a sequence", ErrInvalidFixture)
		}
		set := value.NewSet()
		b.nodes[path] = set
		for i, item := range arg.Content {
			v, err := b.build(item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			set.Add(v)
		}
		return set, nil

	case keyMap:
		kvs, err := pairs(arg)
		if err != nil {
			return nil, err
		}
		m := value.NewMap()
		b.nodes[path] = m
		for _, kv := range kvs {
			v, err := b.build(kv[1], join(path, kv[0].Value))
			if err != nil {
				return nil, err
			}
			m.Put(kv[0].Value, v)
		}
		return m, nil

	case keyBoxed:
		prim, err := scalar(arg)
		if err != nil {
			return nil, err
		}
		return value.NewBoxed(prim)

	case keyDate:
		t, err := time.Parse(time.RFC3339, arg.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: $date: %v", ErrInvalidFixture, err)
		}
		return value.NewDate(t), nil

	case keyBigInt:
		i, ok := new(big.Int).SetString(strings.TrimSpace(arg.Value), 10)
		if !ok {
			return nil, fmt.Errorf("%w: $bigint %q", ErrInvalidFixture, arg.Value)
		}
		return i, nil
	}
	return nil, fmt.Errorf("%w: unknown directive %s", ErrInvalidFixture, d)
}

// function builds {$fn: name, returns: v, throws: msg, async, generator, props}.
func (b *builder) function(n *yaml.Node, name, path string) (*value.Object, error) {
	var ret value.Value = value.Undefined
	if r := field(n, "returns"); r != nil {
		v, err := b.build(r, join(path, "<returns>"))
		if err != nil {
			return nil, err
		}
		ret = v
	}

	impl := func(value.Value, []value.Value) (value.Value, error) { return ret, nil }
	if t := field(n, "throws"); t != nil {
		msg := t.Value
		impl = func(value.Value, []value.Value) (value.Value, error) {
			return value.Undefined, errors.New(msg)
		}
	}

	async, generator := flag(n, "async"), flag(n, "generator")
	var fn *value.Object
	switch {
	case async && generator:
		fn = value.NewAsyncGeneratorFunction(name, 0, impl)
	case async:
		fn = value.NewAsyncFunction(name, 0, impl)
	case generator:
		fn = value.NewGeneratorFunction(name, 0, impl)
	default:
		fn = value.NewFunction(name, 0, impl)
	}
	b.nodes[path] = fn

	if props := field(n, "props"); props != nil {
		if err := b.members(fn, props, path, false); err != nil {
			return nil, err
		}
	}
	return fn, nil
}

// class builds {$class: Name, static: {...}, methods: {...}}. A method given
// as a plain value becomes a method returning that value.
func (b *builder) class(n *yaml.Node, name, path string) (*value.Object, error) {
	cls := value.NewClass(name, nil)
	b.nodes[path] = cls
	proto := value.Prototype(cls)
	protoPath := join(path, "prototype")
	b.nodes[protoPath] = proto

	if methods := field(n, "methods"); methods != nil {
		kvs, err := pairs(methods)
		if err != nil {
			return nil, err
		}
		for _, kv := range kvs {
			mName, mPath := kv[0].Value, join(protoPath, kv[0].Value)
			if directive(kv[1]) == keyFn {
				fn, err := b.function(kv[1], mName, mPath)
				if err != nil {
					return nil, err
				}
				proto.DefineDataProperty(mName, fn, true, false, true)
				continue
			}
			ret, err := b.build(kv[1], join(mPath, "<returns>"))
			if err != nil {
				return nil, err
			}
			b.nodes[mPath] = value.DefineMethod(proto, mName, 0, func(value.Value, []value.Value) (value.Value, error) {
				return ret, nil
			})
		}
	}

	if static := field(n, "static"); static != nil {
		if err := b.members(cls, static, path, true); err != nil {
			return nil, err
		}
	}
	return cls, nil
}

func flag(n *yaml.Node, key string) bool {
	f := field(n, key)
	if f == nil {
		return false
	}
	var v bool
	_ = f.Decode(&v)
	return v
}

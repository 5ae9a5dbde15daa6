package value

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// InteropMarker is the own slot transpiled modules set to flag that their
// accessor-defined exports are ordinary bindings.
const InteropMarker = "__esModule"

// NewObject creates an empty plain object.
func NewObject() *Object {
	return newObject(ClassObject, ObjectPrototype)
}

// NewObjectWithProto creates an empty plain object with the given prototype.
// A nil proto creates a dictionary object.
func NewObjectWithProto(proto *Object) *Object {
	return newObject(ClassObject, proto)
}

// NewModuleNamespace creates a module namespace object. Namespaces have no
// prototype and expose their bindings as data slots.
func NewModuleNamespace() *Object {
	return newObject(ClassModule, nil)
}

// Bind sets an export binding on a module namespace.
func (o *Object) Bind(name string, v Value) {
	if p, ok := o.props[name]; ok && !p.accessor {
		p.Value = v
		return
	}
	o.define(name, &Property{Value: v, Writable: true, Enumerable: true})
}

// NewInteropExports creates the exports object of a transpiled module: a plain
// object carrying the interop marker whose exports are added with DefineExport.
func NewInteropExports() *Object {
	o := NewObject()
	o.DefineDataProperty(InteropMarker, true, false, false, false)
	return o
}

// NewArray creates an array holding elems.
func NewArray(elems ...Value) *Object {
	o := newObject(ClassArray, ArrayPrototype)
	o.elements = append([]Value{}, elems...)
	return o
}

// Len returns the number of array elements.
func (o *Object) Len() int { return len(o.elements) }

// Elements returns a copy of the array's elements.
func (o *Object) Elements() []Value {
	out := make([]Value, len(o.elements))
	copy(out, o.elements)
	return out
}

// Index returns element i, or Undefined when out of range.
func (o *Object) Index(i int) Value {
	if i < 0 || i >= len(o.elements) {
		return Undefined
	}
	return o.elements[i]
}

// Push appends elements to an array.
func (o *Object) Push(vs ...Value) {
	o.elements = append(o.elements, vs...)
}

// NewBoxed wraps a primitive number, string, boolean or symbol.
func NewBoxed(prim Value) (*Object, error) {
	var class Class
	switch Tag(prim) {
	case "Number":
		class = ClassNumber
	case "String":
		class = ClassString
	case "Boolean":
		class = ClassBoolean
	case "Symbol":
		class = ClassSymbol
	default:
		return nil, fmt.Errorf("cannot box %s", Describe(prim))
	}
	o := newObject(class, ObjectPrototype)
	o.primitive = prim
	return o, nil
}

// NewRegExp compiles a pattern. Supported flags are g, i, m and s.
func NewRegExp(source, flags string) (*Object, error) {
	var prefix strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			prefix.WriteRune(f)
		case 'g', 'y', 'u':
		default:
			return nil, fmt.Errorf("invalid regexp flag %q", f)
		}
	}
	expr := source
	if prefix.Len() > 0 {
		expr = "(?" + prefix.String() + ")" + source
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid regexp /%s/: %w", source, err)
	}
	if source == "" {
		source = "(?:)"
	}
	o := newObject(ClassRegExp, RegExpPrototype)
	o.pattern = re
	o.source = source
	o.flags = flags
	o.DefineDataProperty("lastIndex", float64(0), true, false, false)
	o.DefineDataProperty("source", source, false, false, true)
	o.DefineDataProperty("global", strings.ContainsRune(flags, 'g'), false, false, true)
	o.DefineDataProperty("ignoreCase", strings.ContainsRune(flags, 'i'), false, false, true)
	o.DefineDataProperty("multiline", strings.ContainsRune(flags, 'm'), false, false, true)
	return o, nil
}

// MustRegExp is NewRegExp that panics on an invalid pattern.
func MustRegExp(source, flags string) *Object {
	o, err := NewRegExp(source, flags)
	if err != nil {
		panic(err)
	}
	return o
}

// Pattern returns the compiled pattern of a regexp, or nil.
func (o *Object) Pattern() *regexp.Regexp { return o.pattern }

// Source returns a regexp's source text.
func (o *Object) Source() string { return o.source }

// Flags returns a regexp's flags.
func (o *Object) Flags() string { return o.flags }

func installRegExpBuiltins() {
	builtin(RegExpPrototype, "test", 1, func(this Value, args []Value) (Value, error) {
		o, ok := this.(*Object)
		if !ok || o == nil || o.pattern == nil {
			return false, nil
		}
		s, _ := arg(args, 0).(string)
		return o.pattern.MatchString(s), nil
	})
	builtin(RegExpPrototype, "exec", 1, func(this Value, args []Value) (Value, error) {
		o, ok := this.(*Object)
		if !ok || o == nil || o.pattern == nil {
			return Null, nil
		}
		s, _ := arg(args, 0).(string)
		m := o.pattern.FindStringSubmatch(s)
		if m == nil {
			return Null, nil
		}
		out := make([]Value, len(m))
		for i, g := range m {
			out[i] = g
		}
		return NewArray(out...), nil
	})
	builtin(RegExpPrototype, "toString", 0, func(this Value, _ []Value) (Value, error) {
		return Describe(this), nil
	})
}

// NewDate creates a date object.
func NewDate(t time.Time) *Object {
	o := newObject(ClassDate, DatePrototype)
	o.primitive = t
	return o
}

// NewError creates an error object with an own message slot.
func NewError(message string) *Object {
	o := newObject(ClassError, ErrorPrototype)
	o.DefineDataProperty("message", message, true, false, true)
	return o
}

// NewPromise creates a settled promise placeholder holding v.
func NewPromise(v Value) *Object {
	o := newObject(ClassPromise, PromisePrototype)
	o.primitive = v
	return o
}

package value

import (
	"errors"
	"fmt"
	"regexp"
)

// Class is the builtin class tag of an object.
type Class string

const (
	ClassObject                 Class = "Object"
	ClassModule                 Class = "Module"
	ClassArray                  Class = "Array"
	ClassFunction               Class = "Function"
	ClassAsyncFunction          Class = "AsyncFunction"
	ClassGeneratorFunction      Class = "GeneratorFunction"
	ClassAsyncGeneratorFunction Class = "AsyncGeneratorFunction"
	ClassNumber                 Class = "Number"
	ClassString                 Class = "String"
	ClassBoolean                Class = "Boolean"
	ClassSymbol                 Class = "Symbol"
	ClassMap                    Class = "Map"
	ClassWeakMap                Class = "WeakMap"
	ClassSet                    Class = "Set"
	ClassWeakSet                Class = "WeakSet"
	ClassRegExp                 Class = "RegExp"
	ClassDate                   Class = "Date"
	ClassError                  Class = "Error"
	ClassPromise                Class = "Promise"
)

// Callable reports whether objects of this class can be called.
func (c Class) Callable() bool {
	switch c {
	case ClassFunction, ClassAsyncFunction, ClassGeneratorFunction, ClassAsyncGeneratorFunction:
		return true
	}
	return false
}

// ErrNotCallable is returned when calling a value that has no call behaviour.
var ErrNotCallable = errors.New("value is not callable")

// CallFunc is the behaviour behind a function object. A non-nil error is a
// thrown value.
type CallFunc func(this Value, args []Value) (Value, error)

// Property is an own property descriptor. A property is either a data
// property (Value, Writable) or an accessor (Getter, Setter).
type Property struct {
	Value        Value
	Getter       *Object
	Setter       *Object
	Writable     bool
	Enumerable   bool
	Configurable bool
	accessor     bool
}

// IsAccessor reports whether the property is defined by a getter/setter pair.
func (p Property) IsAccessor() bool { return p.accessor }

// Object is every non-primitive value.
type Object struct {
	class Class
	proto *Object

	keys  []string
	props map[string]*Property

	call      CallFunc
	primitive Value

	pattern *regexp.Regexp
	source  string
	flags   string

	elements []Value
	entries  *entries

	host map[any]any
}

func newObject(class Class, proto *Object) *Object {
	return &Object{
		class: class,
		proto: proto,
		props: make(map[string]*Property),
	}
}

// Class returns the object's class tag.
func (o *Object) Class() Class { return o.class }

// Proto returns the prototype, or nil at the end of the chain.
func (o *Object) Proto() *Object { return o.proto }

// SetProto replaces the prototype link. Cycles are rejected.
func (o *Object) SetProto(p *Object) error {
	for cur := p; cur != nil; cur = cur.proto {
		if cur == o {
			return fmt.Errorf("cyclic prototype chain through %s", o.describe())
		}
	}
	o.proto = p
	return nil
}

// OwnKeys returns own property names in definition order.
func (o *Object) OwnKeys() []string {
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// HasOwn reports whether name is an own property.
func (o *Object) HasOwn(name string) bool {
	_, ok := o.props[name]
	return ok
}

// GetOwnProperty returns a copy of the own property descriptor for name.
func (o *Object) GetOwnProperty(name string) (Property, bool) {
	p, ok := o.props[name]
	if !ok {
		return Property{}, false
	}
	return *p, true
}

func (o *Object) ownData(name string) (Value, bool) {
	p, ok := o.props[name]
	if !ok || p.accessor {
		return Undefined, false
	}
	return p.Value, true
}

func (o *Object) define(name string, p *Property) {
	if _, exists := o.props[name]; !exists {
		o.keys = append(o.keys, name)
	}
	o.props[name] = p
}

// DefineDataProperty defines or replaces an own data property. Redefining a
// non-configurable property fails.
func (o *Object) DefineDataProperty(name string, v Value, writable, enumerable, configurable bool) bool {
	if cur, ok := o.props[name]; ok && !cur.Configurable {
		if cur.accessor || !cur.Writable {
			return false
		}
		cur.Value = v
		return true
	}
	o.define(name, &Property{
		Value:        v,
		Writable:     writable,
		Enumerable:   enumerable,
		Configurable: configurable,
	})
	return true
}

// DefineAccessorProperty defines or replaces an own accessor property.
func (o *Object) DefineAccessorProperty(name string, getter, setter *Object, enumerable, configurable bool) bool {
	if cur, ok := o.props[name]; ok && !cur.Configurable {
		return false
	}
	o.define(name, &Property{
		Getter:       getter,
		Setter:       setter,
		Enumerable:   enumerable,
		Configurable: configurable,
		accessor:     true,
	})
	return true
}

// DefineExport defines an enumerable accessor whose getter reads the current
// binding, the shape transpilers use for interop exports.
func (o *Object) DefineExport(name string, get func() Value) bool {
	getter := NewFunction("get "+name, 0, func(Value, []Value) (Value, error) {
		return get(), nil
	})
	return o.DefineAccessorProperty(name, getter, nil, true, false)
}

// Lookup finds name on the object or its prototype chain and returns the
// descriptor together with the object that owns it.
func (o *Object) Lookup(name string) (Property, *Object, bool) {
	for cur := o; cur != nil; cur = cur.proto {
		if p, ok := cur.props[name]; ok {
			return *p, cur, true
		}
	}
	return Property{}, nil, false
}

// Get reads name through the prototype chain, invoking getters with o as the
// receiver. Missing properties read as Undefined.
func (o *Object) Get(name string) (Value, error) {
	p, _, ok := o.Lookup(name)
	if !ok {
		return Undefined, nil
	}
	if !p.accessor {
		return p.Value, nil
	}
	if p.Getter == nil {
		return Undefined, nil
	}
	v, err := Call(p.Getter, o)
	if err != nil {
		return Undefined, fmt.Errorf("getter %q: %w", name, err)
	}
	return v, nil
}

// Set assigns name on the object. Own accessors call their setter, own data
// properties honour the writable flag and missing properties are created as
// ordinary writable, enumerable, configurable data. The boolean reports
// whether the assignment took effect.
func (o *Object) Set(name string, v Value) (bool, error) {
	p, ok := o.props[name]
	if !ok {
		o.define(name, &Property{Value: v, Writable: true, Enumerable: true, Configurable: true})
		return true, nil
	}
	if p.accessor {
		if p.Setter == nil {
			return false, nil
		}
		if _, err := Call(p.Setter, o, v); err != nil {
			return false, fmt.Errorf("setter %q: %w", name, err)
		}
		return true, nil
	}
	if !p.Writable {
		return false, nil
	}
	p.Value = v
	return true, nil
}

// Delete removes a configurable own property.
func (o *Object) Delete(name string) bool {
	p, ok := o.props[name]
	if !ok {
		return true
	}
	if !p.Configurable {
		return false
	}
	delete(o.props, name)
	for i, k := range o.keys {
		if k == name {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// HostData returns embedder data stored under key.
func (o *Object) HostData(key any) (any, bool) {
	v, ok := o.host[key]
	return v, ok
}

// SetHostData stores embedder data under key. Host data is invisible to
// property enumeration.
func (o *Object) SetHostData(key, v any) {
	if o.host == nil {
		o.host = make(map[any]any)
	}
	o.host[key] = v
}

// Callable reports whether the object has call behaviour.
func (o *Object) Callable() bool { return o.call != nil }

// Primitive returns the wrapped primitive of a boxed value, or nil.
func (o *Object) Primitive() Value { return o.primitive }

// Call invokes fn with the given receiver and arguments.
func Call(fn Value, this Value, args ...Value) (Value, error) {
	obj, ok := fn.(*Object)
	if !ok || obj == nil || obj.call == nil {
		return Undefined, fmt.Errorf("%s: %w", Describe(fn), ErrNotCallable)
	}
	if args == nil {
		args = []Value{}
	}
	return obj.call(this, args)
}

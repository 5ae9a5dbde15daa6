package value

func newFunction(class Class, name string, length int, fn CallFunc) *Object {
	if fn == nil {
		fn = func(Value, []Value) (Value, error) { return Undefined, nil }
	}
	o := newObject(class, FunctionPrototype)
	o.call = fn
	o.DefineDataProperty("length", float64(length), false, false, true)
	o.DefineDataProperty("name", name, false, false, true)
	return o
}

// NewFunction creates a strict-mode function with own name and length.
// A nil fn returns Undefined.
func NewFunction(name string, length int, fn CallFunc) *Object {
	return newFunction(ClassFunction, name, length, fn)
}

// NewSloppyFunction creates a non-strict function, which additionally owns
// the legacy arguments and caller slots.
func NewSloppyFunction(name string, length int, fn CallFunc) *Object {
	o := newFunction(ClassFunction, name, length, fn)
	o.DefineDataProperty("arguments", Null, false, false, false)
	o.DefineDataProperty("caller", Null, false, false, false)
	return o
}

// NewAsyncFunction creates an async function.
func NewAsyncFunction(name string, length int, fn CallFunc) *Object {
	return newFunction(ClassAsyncFunction, name, length, fn)
}

// NewGeneratorFunction creates a generator function. Generator functions own
// a prototype object for the generators they produce.
func NewGeneratorFunction(name string, length int, fn CallFunc) *Object {
	o := newFunction(ClassGeneratorFunction, name, length, fn)
	o.DefineDataProperty("prototype", NewObject(), true, false, false)
	return o
}

// NewAsyncGeneratorFunction creates an async generator function.
func NewAsyncGeneratorFunction(name string, length int, fn CallFunc) *Object {
	o := newFunction(ClassAsyncGeneratorFunction, name, length, fn)
	o.DefineDataProperty("prototype", NewObject(), true, false, false)
	return o
}

// NewClass creates a constructor function whose prototype object points back
// through its constructor slot. Static members belong on the returned
// function; instance methods belong on Prototype(cls).
func NewClass(name string, ctor CallFunc) *Object {
	cls := newFunction(ClassFunction, name, 0, ctor)
	proto := NewObject()
	proto.DefineDataProperty("constructor", cls, true, false, true)
	cls.DefineDataProperty("prototype", proto, false, false, false)
	return cls
}

// Prototype returns the object stored in fn's own prototype slot, or nil.
func Prototype(fn *Object) *Object {
	v, ok := fn.ownData("prototype")
	if !ok {
		return nil
	}
	p, _ := v.(*Object)
	return p
}

// DefineMethod installs a non-enumerable method, the way class bodies do.
func DefineMethod(target *Object, name string, length int, fn CallFunc) *Object {
	m := NewFunction(name, length, fn)
	target.DefineDataProperty(name, m, true, false, true)
	return m
}

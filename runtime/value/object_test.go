package value

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTag(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"nil", nil, "Undefined"},
		{"undefined", Undefined, "Undefined"},
		{"null", Null, "Null"},
		{"number", 5.0, "Number"},
		{"int", 3, "Number"},
		{"string", "x", "String"},
		{"bool", true, "Boolean"},
		{"symbol", NewSymbol("s"), "Symbol"},
		{"bigint", big.NewInt(1), "BigInt"},
		{"object", NewObject(), "Object"},
		{"module", NewModuleNamespace(), "Module"},
		{"array", NewArray(), "Array"},
		{"function", NewFunction("f", 0, nil), "Function"},
		{"async", NewAsyncFunction("f", 0, nil), "AsyncFunction"},
		{"regexp", MustRegExp("a", ""), "RegExp"},
		{"map", NewMap(), "Map"},
		{"set", NewSet(), "Set"},
		{"date", NewDate(time.Unix(0, 0)), "Date"},
		{"foreign", struct{}{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tag(tt.in))
		})
	}
}

func TestObject_SetAndGet(t *testing.T) {
	o := NewObject()

	ok, err := o.Set("count", 5.0)
	require.NoError(t, err)
	assert.True(t, ok)

	v, err := o.Get("count")
	require.NoError(t, err)
	assert.Equal(t, 5.0, v)

	missing, err := o.Get("missing")
	require.NoError(t, err)
	assert.True(t, IsUndefined(missing))

	assert.Equal(t, []string{"count"}, o.OwnKeys())
}

func TestObject_NonWritableRejectsAssignment(t *testing.T) {
	o := NewObject()
	o.DefineDataProperty("fixed", "a", false, true, false)

	ok, err := o.Set("fixed", "b")
	require.NoError(t, err)
	assert.False(t, ok)

	v, _ := o.Get("fixed")
	assert.Equal(t, "a", v)
	assert.False(t, o.Delete("fixed"))
}

func TestObject_GetInvokesGetterWithReceiver(t *testing.T) {
	base := NewObject()
	getter := NewFunction("get who", 0, func(this Value, _ []Value) (Value, error) {
		return this, nil
	})
	base.DefineAccessorProperty("who", getter, nil, true, true)

	child := NewObjectWithProto(base)
	v, err := child.Get("who")
	require.NoError(t, err)
	assert.Same(t, child, v)
}

func TestObject_GetterErrorPropagates(t *testing.T) {
	o := NewObject()
	boom := errors.New("boom")
	o.DefineAccessorProperty("bad", NewFunction("get bad", 0, func(Value, []Value) (Value, error) {
		return nil, boom
	}), nil, true, true)

	_, err := o.Get("bad")
	assert.ErrorIs(t, err, boom)
}

func TestObject_SetProtoRejectsCycle(t *testing.T) {
	a := NewObject()
	b := NewObjectWithProto(a)
	assert.Error(t, a.SetProto(b))
}

func TestFunction_OwnSlots(t *testing.T) {
	fn := NewFunction("greet", 2, nil)
	assert.Equal(t, []string{"length", "name"}, fn.OwnKeys())
	assert.Same(t, FunctionPrototype, fn.Proto())

	sloppy := NewSloppyFunction("legacy", 0, nil)
	assert.True(t, sloppy.HasOwn("arguments"))
	assert.True(t, sloppy.HasOwn("caller"))
}

func TestClass_PrototypeBackReference(t *testing.T) {
	cls := NewClass("Greeter", nil)
	proto := Prototype(cls)
	require.NotNil(t, proto)

	ctor, err := proto.Get("constructor")
	require.NoError(t, err)
	assert.Same(t, cls, ctor)
}

func TestCall(t *testing.T) {
	add := NewFunction("add", 2, func(_ Value, args []Value) (Value, error) {
		return args[0].(float64) + args[1].(float64), nil
	})

	out, err := Call(add, Undefined, 1.0, 2.0)
	require.NoError(t, err)
	assert.Equal(t, 3.0, out)

	_, err = Call(NewObject(), Undefined)
	assert.ErrorIs(t, err, ErrNotCallable)
}

func TestFunctionPrototype_Builtins(t *testing.T) {
	fn := NewFunction("who", 0, func(this Value, _ []Value) (Value, error) {
		return this, nil
	})
	recv := NewObject()

	call, err := fn.Get("call")
	require.NoError(t, err)
	out, err := Call(call, fn, recv)
	require.NoError(t, err)
	assert.Same(t, recv, out)

	bind, _ := fn.Get("bind")
	bound, err := Call(bind, fn, recv)
	require.NoError(t, err)
	out, err = Call(bound, Undefined)
	require.NoError(t, err)
	assert.Same(t, recv, out)
}

func TestRegExp(t *testing.T) {
	re, err := NewRegExp("h(i+)", "gi")
	require.NoError(t, err)

	global, _ := re.Get("global")
	assert.Equal(t, true, global)

	test, _ := re.Get("test")
	matched, err := Call(test, re, "HIII")
	require.NoError(t, err)
	assert.Equal(t, true, matched)

	empty := MustRegExp("", "")
	assert.Equal(t, "(?:)", empty.Source())

	_, err = NewRegExp("(", "")
	assert.Error(t, err)
	_, err = NewRegExp("a", "x")
	assert.Error(t, err)
}

func TestModuleNamespace(t *testing.T) {
	ns := NewModuleNamespace()
	ns.Bind("value", 1.0)
	ns.Bind("value", 2.0)

	assert.Nil(t, ns.Proto())
	v, _ := ns.Get("value")
	assert.Equal(t, 2.0, v)
}

func TestInteropExports(t *testing.T) {
	current := "first"
	exports := NewInteropExports()
	exports.DefineExport("binding", func() Value { return current })

	p, ok := exports.GetOwnProperty("binding")
	require.True(t, ok)
	assert.True(t, p.IsAccessor())

	current = "second"
	v, err := exports.Get("binding")
	require.NoError(t, err)
	assert.Equal(t, "second", v)

	marker, _ := exports.Get(InteropMarker)
	assert.True(t, Truthy(marker))
}

func TestCollections(t *testing.T) {
	set := NewSet("a", "a", 1.0, 1)
	assert.Equal(t, 2, set.Size())
	assert.True(t, set.Has(1.0))

	m := NewMap()
	key := NewObject()
	m.Put(key, "v")
	v, ok := m.MapGet(key)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
	assert.Equal(t, 1, m.Size())
}

func TestBoxed(t *testing.T) {
	n, err := NewBoxed(5.0)
	require.NoError(t, err)
	assert.Equal(t, ClassNumber, n.Class())
	assert.Equal(t, 5.0, n.Primitive())

	_, err = NewBoxed(NewObject())
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "undefined", Describe(Undefined))
	assert.Equal(t, `"x"`, Describe("x"))
	assert.Equal(t, "[Function: greet]", Describe(NewFunction("greet", 0, nil)))
	assert.Equal(t, "/a+/g", Describe(MustRegExp("a+", "g")))
	assert.Equal(t, "[1, \"b\"]", Describe(NewArray(1.0, "b")))
	assert.Equal(t, "Set(1)", Describe(NewSet("a")))
}

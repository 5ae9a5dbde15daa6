package value

import (
	"strings"
)

// Root prototypes. They are created once per process and never mirrored.
var (
	ObjectPrototype   *Object
	FunctionPrototype *Object
	ArrayPrototype    *Object
	RegExpPrototype   *Object
	MapPrototype      *Object
	SetPrototype      *Object
	ErrorPrototype    *Object
	PromisePrototype  *Object
	DatePrototype     *Object
)

func init() {
	ObjectPrototype = newObject(ClassObject, nil)
	FunctionPrototype = newObject(ClassFunction, ObjectPrototype)
	FunctionPrototype.call = func(Value, []Value) (Value, error) { return Undefined, nil }

	ArrayPrototype = newObject(ClassArray, ObjectPrototype)
	RegExpPrototype = newObject(ClassObject, ObjectPrototype)
	MapPrototype = newObject(ClassObject, ObjectPrototype)
	SetPrototype = newObject(ClassObject, ObjectPrototype)
	ErrorPrototype = newObject(ClassObject, ObjectPrototype)
	PromisePrototype = newObject(ClassObject, ObjectPrototype)
	DatePrototype = newObject(ClassObject, ObjectPrototype)

	installObjectBuiltins()
	installFunctionBuiltins()
	installArrayBuiltins()
	installRegExpBuiltins()
	installCollectionBuiltins()
	ErrorPrototype.DefineDataProperty("name", "Error", true, false, true)
	ErrorPrototype.DefineDataProperty("message", "", true, false, true)
}

func builtin(target *Object, name string, length int, fn CallFunc) {
	target.DefineDataProperty(name, NewFunction(name, length, fn), true, false, true)
}

func arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}

func installObjectBuiltins() {
	builtin(ObjectPrototype, "hasOwnProperty", 1, func(this Value, args []Value) (Value, error) {
		o, ok := this.(*Object)
		if !ok || o == nil {
			return false, nil
		}
		name, _ := arg(args, 0).(string)
		return o.HasOwn(name), nil
	})
	builtin(ObjectPrototype, "toString", 0, func(this Value, _ []Value) (Value, error) {
		return "[object " + Tag(this) + "]", nil
	})
	builtin(ObjectPrototype, "valueOf", 0, func(this Value, _ []Value) (Value, error) {
		if o, ok := this.(*Object); ok && o != nil && o.primitive != nil {
			return o.primitive, nil
		}
		return this, nil
	})
}

func installFunctionBuiltins() {
	builtin(FunctionPrototype, "call", 1, func(this Value, args []Value) (Value, error) {
		var rest []Value
		if len(args) > 1 {
			rest = args[1:]
		}
		return Call(this, arg(args, 0), rest...)
	})
	builtin(FunctionPrototype, "apply", 2, func(this Value, args []Value) (Value, error) {
		var rest []Value
		if list, ok := arg(args, 1).(*Object); ok && list != nil && list.class == ClassArray {
			rest = list.Elements()
		}
		return Call(this, arg(args, 0), rest...)
	})
	builtin(FunctionPrototype, "bind", 1, func(this Value, args []Value) (Value, error) {
		target, ok := this.(*Object)
		if !ok || target == nil || target.call == nil {
			return Undefined, ErrNotCallable
		}
		boundThis := arg(args, 0)
		var bound []Value
		if len(args) > 1 {
			bound = append(bound, args[1:]...)
		}
		name, _ := target.ownData("name")
		s, _ := name.(string)
		return NewFunction("bound "+s, 0, func(_ Value, more []Value) (Value, error) {
			all := append(append([]Value{}, bound...), more...)
			return target.call(boundThis, all)
		}), nil
	})
	builtin(FunctionPrototype, "toString", 0, func(this Value, _ []Value) (Value, error) {
		return Describe(this), nil
	})
}

func installArrayBuiltins() {
	builtin(ArrayPrototype, "push", 1, func(this Value, args []Value) (Value, error) {
		o, ok := this.(*Object)
		if !ok || o == nil || o.class != ClassArray {
			return Undefined, nil
		}
		o.Push(args...)
		return float64(o.Len()), nil
	})
	builtin(ArrayPrototype, "join", 1, func(this Value, args []Value) (Value, error) {
		o, ok := this.(*Object)
		if !ok || o == nil {
			return "", nil
		}
		sep, isString := arg(args, 0).(string)
		if !isString {
			sep = ","
		}
		parts := make([]string, 0, o.Len())
		for _, e := range o.elements {
			if s, ok := e.(string); ok {
				parts = append(parts, s)
				continue
			}
			parts = append(parts, Describe(e))
		}
		return strings.Join(parts, sep), nil
	})
}

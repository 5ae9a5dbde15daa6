package value

import (
	"math"
	"reflect"
)

// entries is the ordered storage behind Map, WeakMap, Set and WeakSet.
type entries struct {
	keys []Value
	vals []Value
}

func (e *entries) len() int { return len(e.keys) }

func (e *entries) find(k Value) int {
	for i, cur := range e.keys {
		if sameValueZero(cur, k) {
			return i
		}
	}
	return -1
}

func sameValueZero(a, b Value) bool {
	if IsUndefined(a) && IsUndefined(b) {
		return true
	}
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		if math.IsNaN(fa) && math.IsNaN(fb) {
			return true
		}
		return fa == fb
	}
	if !isComparable(a) || !isComparable(b) {
		return false
	}
	return a == b
}

func isComparable(v Value) bool {
	t := reflect.TypeOf(v)
	return t == nil || t.Comparable()
}

func toFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}

func newCollection(class Class, proto *Object) *Object {
	o := newObject(class, proto)
	o.entries = &entries{}
	return o
}

// NewMap creates an empty keyed collection.
func NewMap() *Object { return newCollection(ClassMap, MapPrototype) }

// NewWeakMap creates an empty weakly keyed collection.
func NewWeakMap() *Object { return newCollection(ClassWeakMap, MapPrototype) }

// NewSet creates a set holding vals.
func NewSet(vals ...Value) *Object {
	o := newCollection(ClassSet, SetPrototype)
	for _, v := range vals {
		o.Add(v)
	}
	return o
}

// NewWeakSet creates an empty weak set.
func NewWeakSet() *Object { return newCollection(ClassWeakSet, SetPrototype) }

// Size returns the number of entries in a collection.
func (o *Object) Size() int {
	if o.entries == nil {
		return 0
	}
	return o.entries.len()
}

// Has reports whether a collection contains key k.
func (o *Object) Has(k Value) bool {
	return o.entries != nil && o.entries.find(k) >= 0
}

// Put stores k -> v in a map.
func (o *Object) Put(k, v Value) {
	if o.entries == nil {
		return
	}
	if i := o.entries.find(k); i >= 0 {
		o.entries.vals[i] = v
		return
	}
	o.entries.keys = append(o.entries.keys, k)
	o.entries.vals = append(o.entries.vals, v)
}

// Add inserts v into a set.
func (o *Object) Add(v Value) {
	o.Put(v, v)
}

// MapGet reads key k from a map.
func (o *Object) MapGet(k Value) (Value, bool) {
	if o.entries == nil {
		return Undefined, false
	}
	i := o.entries.find(k)
	if i < 0 {
		return Undefined, false
	}
	return o.entries.vals[i], true
}

// Keys returns the collection's keys in insertion order.
func (o *Object) Keys() []Value {
	if o.entries == nil {
		return nil
	}
	out := make([]Value, len(o.entries.keys))
	copy(out, o.entries.keys)
	return out
}

func installCollectionBuiltins() {
	self := func(this Value) *Object {
		o, _ := this.(*Object)
		if o == nil || o.entries == nil {
			return nil
		}
		return o
	}
	builtin(MapPrototype, "get", 1, func(this Value, args []Value) (Value, error) {
		if o := self(this); o != nil {
			v, _ := o.MapGet(arg(args, 0))
			return v, nil
		}
		return Undefined, nil
	})
	builtin(MapPrototype, "set", 2, func(this Value, args []Value) (Value, error) {
		if o := self(this); o != nil {
			o.Put(arg(args, 0), arg(args, 1))
		}
		return this, nil
	})
	builtin(MapPrototype, "has", 1, func(this Value, args []Value) (Value, error) {
		o := self(this)
		return o != nil && o.Has(arg(args, 0)), nil
	})
	builtin(SetPrototype, "add", 1, func(this Value, args []Value) (Value, error) {
		if o := self(this); o != nil {
			o.Add(arg(args, 0))
		}
		return this, nil
	})
	builtin(SetPrototype, "has", 1, func(this Value, args []Value) (Value, error) {
		o := self(this)
		return o != nil && o.Has(arg(args, 0)), nil
	})
}

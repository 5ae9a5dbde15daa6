package mock

import (
	"github.com/oxjest/mockgraph/runtime/value"
)

// StopPrototypes end a slot walk. Their builtin machinery is never mirrored.
var StopPrototypes = []*value.Object{
	value.ObjectPrototype,
	value.FunctionPrototype,
	value.RegExpPrototype,
}

// reservedSlots holds, per receiver category, the names owned by the host.
var reservedSlots = map[Category]map[string]struct{}{
	CategoryFunction: {
		"arguments": {},
		"caller":    {},
		"callee":    {},
		"name":      {},
		"length":    {},
	},
	CategoryRegExp: {
		"source":     {},
		"global":     {},
		"ignoreCase": {},
		"multiline":  {},
	},
}

// IsReserved reports whether name belongs to the host for receivers of category c.
func IsReserved(c Category, name string) bool {
	_, ok := reservedSlots[c][name]
	return ok
}

func isStopPrototype(o *value.Object) bool {
	for _, stop := range StopPrototypes {
		if o == stop {
			return true
		}
	}
	return false
}

// hasInteropMarker reports whether o flags itself as transpiled module exports.
// A marker that cannot be read counts as absent.
func hasInteropMarker(o *value.Object) bool {
	v, err := o.Get(value.InteropMarker)
	return err == nil && value.Truthy(v)
}

// Slots returns the names of obj that should be mirrored, walking from obj up
// its prototype chain until a stop prototype. Names appear once, in order of
// first discovery.
func Slots(obj *value.Object) []string {
	if obj == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var slots []string

	for level := obj; level != nil && !isStopPrototype(level); level = level.Proto() {
		category := Classify(level)
		interop := hasInteropMarker(level)

		for _, name := range level.OwnKeys() {
			if IsReserved(category, name) {
				continue
			}
			prop, ok := level.GetOwnProperty(name)
			if !ok || (prop.IsAccessor() && !interop) {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			slots = append(slots, name)
		}
	}

	return slots
}

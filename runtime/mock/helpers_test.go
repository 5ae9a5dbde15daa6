package mock

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxjest/mockgraph/runtime/value"
)

func greetFunc() *value.Object {
	return value.NewFunction("greet", 0, func(value.Value, []value.Value) (value.Value, error) {
		return "Hello, world!", nil
	})
}

// greeterModule mirrors tests/greeter: a function export and a class export
// with a static and an instance method.
func greeterModule() *value.Object {
	greeter := value.NewClass("Greeter", nil)
	value.DefineMethod(greeter, "greetStatic", 0, func(value.Value, []value.Value) (value.Value, error) {
		return "Hello from static method!", nil
	})
	value.DefineMethod(value.Prototype(greeter), "greet", 0, func(value.Value, []value.Value) (value.Value, error) {
		return "Hello from class method!", nil
	})

	ns := value.NewModuleNamespace()
	ns.Bind("greet", greetFunc())
	ns.Bind("Greeter", greeter)
	return ns
}

func get(t *testing.T, v value.Value, path ...string) value.Value {
	t.Helper()
	cur := v
	for _, name := range path {
		obj, ok := cur.(*value.Object)
		require.Truef(t, ok, "%s is not an object", name)
		next, err := obj.Get(name)
		require.NoError(t, err)
		cur = next
	}
	return cur
}

// shape returns the nested own slot names of v as sorted dotted paths,
// skipping stub bookkeeping and the host-owned slots of functions and regexps.
func shape(v value.Value) []string {
	var out []string
	seen := make(map[*value.Object]bool)
	var walk func(prefix string, v value.Value)
	walk = func(prefix string, v value.Value) {
		obj, ok := v.(*value.Object)
		if !ok || obj == nil || seen[obj] {
			return
		}
		seen[obj] = true
		if obj.Class() == value.ClassArray {
			return
		}
		category := Classify(obj)
		for _, name := range Slots(obj) {
			if IsStub(obj) && len(name) >= len(BookkeepingPrefix) && name[:len(BookkeepingPrefix)] == BookkeepingPrefix {
				continue
			}
			if IsReserved(category, name) {
				continue
			}
			child, err := obj.Get(name)
			if err != nil || Classify(child) == None {
				continue
			}
			path := prefix + name
			out = append(out, path)
			walk(path+".", child)
		}
	}
	walk("", v)
	sort.Strings(out)
	return out
}

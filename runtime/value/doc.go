// Package value models the runtime values that the mirroring engine reflects over.
//
// # Overview
//
// Values are plain Go values. Primitives are represented directly:
//
//   - numbers: float64 (every Go integer and float kind is also accepted as a Number)
//   - strings: string
//   - booleans: bool
//   - symbols: *Symbol
//   - big integers: *big.Int
//   - the sentinels Undefined and Null
//
// Every heap value is an *Object. An object carries a Class tag, an optional
// prototype link, ordered own properties (data or accessor) and a handful of
// internal slots: call behaviour for functions, the wrapped primitive for boxed
// values, the compiled pattern for regexps, elements for arrays and entries for
// keyed collections.
//
// # Intrinsics
//
// The package owns a small set of root prototypes (ObjectPrototype,
// FunctionPrototype, RegExpPrototype, ArrayPrototype, MapPrototype, SetPrototype)
// that carry builtin methods. Consumers that walk prototype chains use these as
// stop markers.
//
// # Example
//
//	greet := value.NewFunction("greet", 0, func(this value.Value, args []value.Value) (value.Value, error) {
//		return "Hello, world!", nil
//	})
//	exports := value.NewModuleNamespace()
//	exports.Bind("greet", greet)
//
//	out, _ := value.Call(greet, value.Undefined)
//	fmt.Println(out) // Hello, world!
//
// Objects are not safe for concurrent mutation; treat a graph as owned by one
// goroutine at a time.
package value

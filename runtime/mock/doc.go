// Package mock mirrors runtime value graphs, replacing every function with an
// observable stub.
//
// # Overview
//
// Mirroring runs in two passes:
//
//   - BuildMetadata walks a value and produces a *Metadata tree. Objects,
//     arrays, regexps and functions are registered with a refId before their
//     slots are visited; meeting a registered value again yields a
//     back-reference node, which is how cycles terminate and sharing is kept.
//   - GenerateMock walks the tree in the same order and allocates a fresh
//     graph: empty objects, empty arrays, empty regexps and new stubs, with
//     constants, collections, null and undefined passed through untouched.
//
// CreateMockFactory composes the two passes behind a function that returns an
// independent mirror every time it is called.
//
// # Slots
//
// Slots walks an object's prototype chain up to ObjectPrototype,
// FunctionPrototype or RegExpPrototype. Names the host reserves for functions
// (arguments, caller, callee, name, length) and regexps (source, global,
// ignoreCase, multiline) are skipped, as are accessors unless the object
// carries the interop marker. Slots of an existing stub whose name starts
// with BookkeepingPrefix are never mirrored.
//
// # Example
//
//	factory, err := mock.CreateMockFactory(exports)
//	if err != nil {
//		return err
//	}
//	mirrored, err := factory()
//	if err != nil {
//		return err
//	}
//	greet, _ := mirrored.(*value.Object).Get("greet")
//	stub, _ := mock.AsStub(greet)
//	stub.MockReturnValueOnce("Hello from mocked module!")
//
// # JSON
//
// Metadata trees are JSON-serialisable for logging and caching. Members keep
// their visit order on the wire. Collections and symbols decode as fresh
// values and stub implementations are not carried.
package mock

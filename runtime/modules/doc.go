// Package modules resolves module specifiers to exports, substituting mocks
// where a test asked for them.
//
// A Registry holds the real exports of every registered module and an
// optional mock per specifier. Require returns what a consumer would see:
//
//	reg := modules.NewRegistry(logger)
//	reg.Register("./greeter", greeterExports)
//	reg.Mock("./greeter", nil) // automock from the registered exports
//
//	exports, _ := reg.Require("./greeter")   // mirrored graph of stubs
//	real, _ := reg.RequireActual("./greeter") // always the registered exports
//
// Results of Require are cached per generation, so repeated loads see the
// same stubs. ResetModules starts a new generation.
//
// Mock evicts a cached load immediately. DoMock leaves an existing load in
// place until the next ResetModules, which matches consumers that imported
// the module before the mock was declared.
package modules

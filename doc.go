// fixturegen generates cached test fixtures from annotated functions.
//
// A //fixture:register directive in a function's doc comment registers
// the function's return value as a lazily-initialized fixture shared by
// later tests. The directive arguments are an identifier and an optional
// type annotation; comment lines after the directive become the generated
// slot's documentation:
//
//	//fixture:register serverAddr: string
//	// serverAddr is the base address of the shared test server.
//	func startServer() (string, error) { ... }
//
// fixturegen emits a test file declaring the slot and a test entry point:
//
//	var serverAddr = fixture.NewE[string](startServer)
//
//	func TestStartServer(t *testing.T) {
//		serverAddr.Run(t)
//	}
//
// Whichever test touches serverAddr first runs startServer exactly once;
// the rest share the cached value, so results do not depend on test
// order. A failing initializer fails TestStartServer, and any other test
// reading the slot afterwards panics instead of seeing a zero value.
//
// Functions may return a bare value, nothing at all (a setup fixture), or
// a value followed by up to three error results; deeper error nesting is
// rejected at generation time.
//
// Example:
//
//	fixturegen -o fixtures_gen_test.go .
package main

// Package fixture backs code generated by the fixturegen command with
// process-wide, lazily-initialized test fixtures.
//
// A Slot holds the result of one annotated function. Whichever test (or
// direct Get call) touches the slot first runs the function; every other
// caller blocks until that single run finishes and then shares the cached
// value. A slot whose initializer failed stays failed for the life of the
// process: the generated test reports the error through the normal test
// failure channel, and any later Get call panics instead of handing out a
// zero value that would mask the original failure.
//
// Generated code looks like:
//
//	var serverAddr = fixture.NewE(startServer)
//
//	func TestStartServer(t *testing.T) {
//		serverAddr.Run(t)
//	}
//
// and any other test can read the fixture regardless of execution order:
//
//	func TestClientTalksToServer(t *testing.T) {
//		resp, err := http.Get(serverAddr.Get() + "/healthz")
//		// ...
//	}
//
// Slots hand out the cached value itself, never a way to replace it. As
// with all shared test state, don't mutate fixtures; execution order and
// timing will eventually make such tests flaky.
package fixture

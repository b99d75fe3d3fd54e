// Package framework contains the low-level implementation of end-to-end test infrastructure
// for a functions host. The base package contains shared types such as Logger; other
// components are in the subpackages harness, ldtest and retry.
//
// The general model is:
//
// 1. The test harness controls one or more host processes. Each host loads the function
// app found in a script directory, and the harness talks to it only through HTTP requests
// against the routes that app declares.
//
// 2. There is a general notion of a test context which is similar to Go's testing.T,
// allowing pieces of test logic to be associated with a test identifier and to accumulate
// success/failure results.
//
// 3. Test bodies that depend on eventually-consistent behavior of the host (cold starts,
// storage propagation) can be retried as a whole with a bounded policy. Only the failure of
// the last attempt is reported.
//
// The domain-specific code that knows what is being tested is responsible for choosing the
// script directories, the requests to send, and the assertions to make on the responses.
package framework

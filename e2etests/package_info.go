// Package e2etests contains the end-to-end test suites and their supporting API.
//
// Each suite targets one or more fixture script directories. Tests get the host for a
// script directory from the HostProvider in the global test configuration, send requests
// to its function routes, and make assertions on the responses. Assertions that can be
// affected by host startup or storage propagation delays run inside retryable subtests.
//
// Infrastructure that is not specific to functions, such as the test context and the host
// process lifecycle, is in the lower-level framework packages.
package e2etests

package ldtest

import "github.com/funcworker/worker-e2e-tests/framework"

// TestConfiguration contains the settings for a test run.
type TestConfiguration struct {
	// Filter, if set, determines which tests are run.
	Filter Filter

	// TestLogger receives notifications of test progress. If nil, nothing is reported.
	TestLogger TestLogger

	// Context is an arbitrary value that is made available to every test through
	// T.Context(). Domain-specific test code uses it to reach shared resources such as the
	// host pool.
	Context interface{}

	// Capabilities is the set of features that the environment under test supports.
	Capabilities framework.Capabilities
}

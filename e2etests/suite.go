package e2etests

import (
	"github.com/funcworker/worker-e2e-tests/framework"
	"github.com/funcworker/worker-e2e-tests/framework/harness"
	"github.com/funcworker/worker-e2e-tests/framework/ldtest"
	"github.com/funcworker/worker-e2e-tests/framework/retry"
)

// CapabilityBlobStorage means that the hosts have a working storage connection. Blob tests
// are skipped without it.
const CapabilityBlobStorage = "blob-storage"

// AllCapabilities lists every capability that some test checks for.
var AllCapabilities = framework.Capabilities{CapabilityBlobStorage}

// HostProvider returns the host for a script directory. *harness.HostPool implements it.
type HostProvider interface {
	Host(scriptDir string) (*harness.Host, error)
}

// E2ETestContext is the value of TestConfiguration.Context for these suites.
type E2ETestContext struct {
	Hosts       HostProvider
	RetryPolicy retry.Policy
}

func RunTestSuite(
	hosts HostProvider,
	policy retry.Policy,
	filter ldtest.Filter,
	testLogger ldtest.TestLogger,
	capabilities framework.Capabilities,
) ldtest.Results {
	config := ldtest.TestConfiguration{
		Filter:       filter,
		TestLogger:   testLogger,
		Capabilities: capabilities,
		Context: E2ETestContext{
			Hosts:       hosts,
			RetryPolicy: policy,
		},
	}
	return ldtest.Run(config, func(t *ldtest.T) {
		t.Run("blob functions", DoBlobFunctionTests)
		t.Run("blueprint functions", DoBlueprintFunctionTests)
	})
}

func requireContext(t *ldtest.T) E2ETestContext {
	if c, ok := t.Context().(E2ETestContext); ok {
		return c
	}
	panic("E2ETestContext was not included in the global test configuration!" +
		" This is a basic mistake in the initialization logic.")
}

// runRetryable runs a retryable subtest with the policy from the test context.
func runRetryable(t *ldtest.T, name string, action func(*ldtest.T)) {
	t.RunRetryable(name, requireContext(t).RetryPolicy, action)
}

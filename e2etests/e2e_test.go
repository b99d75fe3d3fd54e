package e2etests

import (
	"os"
	"testing"

	"github.com/funcworker/worker-e2e-tests/framework"
	"github.com/funcworker/worker-e2e-tests/framework/harness"
	"github.com/funcworker/worker-e2e-tests/framework/ldtest"
	"github.com/funcworker/worker-e2e-tests/framework/retry"
	"github.com/funcworker/worker-e2e-tests/funcapp"

	"github.com/stretchr/testify/require"
)

const (
	scriptsRootEnvVar = "E2E_SCRIPTS_ROOT"
	hostConfigEnvVar  = "E2E_HOST_CONFIG"
)

// goTestLogger reports suite results through a testing.T.
type goTestLogger struct {
	t *testing.T
}

func (g goTestLogger) TestStarted(id ldtest.TestID) {}

func (g goTestLogger) TestError(id ldtest.TestID, err error) {
	g.t.Errorf("%s: %s", id, err)
}

func (g goTestLogger) TestFinished(id ldtest.TestID, failed bool, debugOutput framework.CapturedOutput) {
	if failed {
		for _, m := range debugOutput {
			g.t.Logf("%s: [%s] %s", id, m.Time.Format("15:04:05.000"), m.Message)
		}
	}
}

func (g goTestLogger) TestSkipped(id ldtest.TestID, reason string) {
	if reason != "" {
		g.t.Logf("%s: skipped: %s", id, reason)
	}
}

// TestEndToEnd runs the suites against real hosts. The script directories must have been
// generated with "funcapp generate" into $E2E_SCRIPTS_ROOT; $E2E_HOST_CONFIG may name a
// host configuration file. Blob tests need the storage connection in AzureWebJobsStorage.
func TestEndToEnd(t *testing.T) {
	scriptsRoot := os.Getenv(scriptsRootEnvVar)
	if scriptsRoot == "" {
		t.Skipf("%s is not set", scriptsRootEnvVar)
	}
	var config harness.HostConfig
	if path := os.Getenv(hostConfigEnvVar); path != "" {
		var err error
		config, err = harness.LoadHostConfig(path)
		require.NoError(t, err)
	}
	config.ScriptsRoot = scriptsRoot

	var capabilities framework.Capabilities
	if os.Getenv(funcapp.DefaultConnection) != "" {
		capabilities = append(capabilities, CapabilityBlobStorage)
	}

	pool := harness.NewHostPool(config, nil, nil)
	defer func() { require.NoError(t, pool.Close()) }()

	RunTestSuite(pool, retry.DefaultPolicy(), nil, goTestLogger{t}, capabilities)
}

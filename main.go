package main

import (
	"fmt"
	"log"
	"os"

	"github.com/funcworker/worker-e2e-tests/e2etests"
	"github.com/funcworker/worker-e2e-tests/framework"
	"github.com/funcworker/worker-e2e-tests/framework/harness"
	"github.com/funcworker/worker-e2e-tests/framework/ldtest"
)

func main() {
	var params commandParams
	if !params.Read(os.Args, os.Stderr) {
		os.Exit(1)
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	config, err := params.loadHostConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid host configuration: %s\n", err)
		os.Exit(1)
	}
	pool := harness.NewHostPool(config, mainDebugLogger, os.Stdout)
	capabilities := capabilities(config)
	policy := params.retryPolicy()

	fmt.Println()
	ldtest.PrintFilterDescription(os.Stdout, params.filters, capabilities, e2etests.AllCapabilities)

	fmt.Printf("Running test suite (retryable tests: %s)\n", policy)

	testLogger := &ldtest.ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}

	results := e2etests.RunTestSuite(pool, policy, params.filters.AsFilter, testLogger, capabilities)

	if err := pool.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error stopping hosts: %s\n", err)
	}

	fmt.Println()
	ldtest.PrintResults(os.Stdout, results)
	if !results.OK() {
		fmt.Println()
		fmt.Println("To run only the failed tests again:")
		fmt.Printf("  %s\n", params.rerunCommand(os.Args[0], results.Failures))
		os.Exit(1)
	}
}

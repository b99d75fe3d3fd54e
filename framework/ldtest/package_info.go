// Package ldtest provides a test context, T, that works like Go's testing.T but runs
// outside of the Go test runner: tests are organized into a tree of named subtests, each
// with its own captured debug output, and results are accumulated and reported through a
// TestLogger.
//
// Assertions from testify's assert and require packages can be used with a *T, since T
// implements their TestingT interface.
//
// A subtest created with RunRetryable is run as a whole up to a configured number of
// times; see T.RunRetryable.
package ldtest

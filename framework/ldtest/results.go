package ldtest

import "strings"

type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

type TestResult struct {
	TestID   TestID
	Errors   []error
	Skipped  bool
	Attempts int
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Count returns the number of tests that were run (not skipped) and the number that were
// skipped.
func (r Results) Count() (run, skipped int) {
	for _, t := range r.Tests {
		if t.Skipped {
			skipped++
		} else {
			run++
		}
	}
	return
}

type TestID struct {
	Path []string
}

// Plus returns a new TestID for a subtest of this one.
func (t TestID) Plus(name string) TestID {
	path := make([]string, 0, len(t.Path)+1)
	path = append(path, t.Path...)
	return TestID{Path: append(path, name)}
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

package ldtest

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/funcworker/worker-e2e-tests/framework"
)

var (
	failColor = color.New(color.FgRed, color.Bold)
	passColor = color.New(color.FgGreen)
	skipColor = color.New(color.FgYellow)
	infoColor = color.New(color.Faint)
)

// ConsoleTestLogger reports test progress as plain text, with colors if the output is a
// terminal.
type ConsoleTestLogger struct {
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool

	// Output is where the report is written. If nil, it is written to color.Output
	// (standard output).
	Output io.Writer
}

func (c *ConsoleTestLogger) out() io.Writer {
	if c.Output == nil {
		return color.Output
	}
	return c.Output
}

func (c *ConsoleTestLogger) TestStarted(id TestID) {
	_, _ = infoColor.Fprintf(c.out(), "[%s]\n", id)
}

func (c *ConsoleTestLogger) TestError(id TestID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		_, _ = failColor.Fprintf(c.out(), "  %s\n", line)
	}
}

func (c *ConsoleTestLogger) TestFinished(id TestID, failed bool, debugOutput framework.CapturedOutput) {
	if failed {
		_, _ = failColor.Fprintf(c.out(), "  FAILED: %s\n", id)
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		debugOutput.Dump(c.out(), "    DEBUG ")
	}
}

func (c *ConsoleTestLogger) TestSkipped(id TestID, reason string) {
	if reason == "" {
		_, _ = skipColor.Fprintf(c.out(), "  SKIPPED: %s\n", id)
	} else {
		_, _ = skipColor.Fprintf(c.out(), "  SKIPPED: %s (%s)\n", id, reason)
	}
}

// PrintResults writes a summary of the test run.
func PrintResults(out io.Writer, results Results) {
	run, skipped := results.Count()
	if results.OK() {
		_, _ = passColor.Fprintf(out, "All tests passed (%d run, %d skipped)\n", run, skipped)
		return
	}
	_, _ = failColor.Fprintf(out, "FAILED TESTS (%d of %d):\n", len(results.Failures), run)
	for _, f := range results.Failures {
		fmt.Fprintf(out, "  * %s\n", f.TestID)
		for _, e := range f.Errors {
			for _, line := range strings.Split(e.Error(), "\n") {
				fmt.Fprintf(out, "      %s\n", line)
			}
		}
	}
}

// PrintFilterDescription explains which tests may be skipped because of filters or missing
// capabilities.
func PrintFilterDescription(
	out io.Writer,
	filters RegexFilters,
	capabilities framework.Capabilities,
	allCapabilities []string,
) {
	if filters.IsDefined() {
		fmt.Fprintln(out, "Some tests will be skipped based on the filter criteria for this test run:")
		if filters.MustMatch.IsDefined() {
			fmt.Fprintf(out, "  skip any not matching %s\n", filters.MustMatch)
		}
		if filters.MustNotMatch.IsDefined() {
			fmt.Fprintf(out, "  skip any matching %s\n", filters.MustNotMatch)
		}
		fmt.Fprintln(out)
	}

	if missing := capabilities.Missing(allCapabilities); len(missing) > 0 {
		fmt.Fprintln(out, "Some tests may be skipped because the environment does not support the following capabilities:")
		fmt.Fprintf(out, "  %s\n", strings.Join(missing, ", "))
		fmt.Fprintln(out)
	}
}

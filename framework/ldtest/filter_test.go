package ldtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id(path ...string) TestID { return TestID{Path: path} }

func TestMustMatchSelectsParentsAndDescendants(t *testing.T) {
	var f RegexFilters
	require.NoError(t, f.MustMatch.Set("^blob functions$/str"))

	assert.True(t, f.AsFilter(id("blob functions")))
	assert.True(t, f.AsFilter(id("blob functions", "str round trip")))
	assert.True(t, f.AsFilter(id("blob functions", "str round trip", "deeper")))
	assert.False(t, f.AsFilter(id("blob functions", "bytes round trip")))
	assert.False(t, f.AsFilter(id("blueprint functions")))
}

func TestMustNotMatchUsesFullName(t *testing.T) {
	var f RegexFilters
	require.NoError(t, f.MustNotMatch.Set("trigger"))

	assert.True(t, f.AsFilter(id("blob functions")))
	assert.False(t, f.AsFilter(id("blob functions", "blob trigger")))
	assert.False(t, f.AsFilter(id("trigger tests", "anything")))
}

func TestNoFiltersMatchesEverything(t *testing.T) {
	var f RegexFilters
	assert.False(t, f.IsDefined())
	assert.True(t, f.AsFilter(id("x", "y")))
}

func TestInvalidRegexIsRejected(t *testing.T) {
	var l RegexList
	assert.Error(t, l.Set("("))
	assert.Error(t, l.Set("ok/("))
	assert.False(t, l.IsDefined())
}

func TestRegexListString(t *testing.T) {
	var l RegexList
	require.NoError(t, l.Set("a"))
	require.NoError(t, l.Set("b/c"))
	assert.Equal(t, `"a" or "b/c"`, l.String())
}

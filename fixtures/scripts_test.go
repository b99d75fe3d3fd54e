package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaths(t *testing.T) {
	assert.Equal(t, []string{
		"blob_functions/blob_functions_stein/generic",
		"blueprint_functions/functions_in_blueprint_only",
		"blueprint_functions/functions_in_both_blueprint_functionapp",
		"blueprint_functions/multiple_function_registers",
		"blueprint_functions/only_blueprint",
	}, Paths())
}

func TestLookup(t *testing.T) {
	s, ok := Lookup("blueprint_functions/only_blueprint")
	assert.True(t, ok)
	assert.Len(t, s.Blueprints, 1)
	assert.Empty(t, s.Apps)

	_, ok = Lookup("nope")
	assert.False(t, ok)
}

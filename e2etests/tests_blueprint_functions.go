package e2etests

import (
	"net/http"

	"github.com/funcworker/worker-e2e-tests/fixtures/blueprintfunctions"
	"github.com/funcworker/worker-e2e-tests/framework/ldtest"

	"github.com/stretchr/testify/assert"
)

func DoBlueprintFunctionTests(t *ldtest.T) {
	t.Run("functions in blueprint only", func(t *ldtest.T) {
		host := RequireHost(t, blueprintfunctions.FunctionsInBlueprintOnly)
		runRetryable(t, "default_template is served", func(t *ldtest.T) {
			RequireOK(t, host.Get(t, "default_template"))
		})
	})

	t.Run("functions in both blueprint and function app", func(t *ldtest.T) {
		host := RequireHost(t, blueprintfunctions.FunctionsInBoth)
		runRetryable(t, "both functions are served", func(t *ldtest.T) {
			RequireOK(t, host.Get(t, "default_template"))

			resp := host.Get(t, "return_http")
			RequireOK(t, resp)
			assert.Contains(t, resp.Text(), blueprintfunctions.HelloWorldHTML)
		})
	})

	t.Run("multiple function registers", func(t *ldtest.T) {
		host := RequireHost(t, blueprintfunctions.MultipleRegisters)
		runRetryable(t, "duplicate function is not served", func(t *ldtest.T) {
			assert.Equal(t, http.StatusNotFound, host.Get(t, "return_http").StatusCode)
		})
	})

	t.Run("only blueprint", func(t *ldtest.T) {
		host := RequireHost(t, blueprintfunctions.OnlyBlueprint)
		runRetryable(t, "unattached blueprint function is not served", func(t *ldtest.T) {
			assert.Equal(t, http.StatusNotFound, host.Get(t, "default_template").StatusCode)
		})
	})
}

// Package blueprintfunctions contains the fixture scripts that combine blueprints with
// function apps in different ways.
package blueprintfunctions

import (
	"fmt"
	"net/http"

	"github.com/funcworker/worker-e2e-tests/funcapp"
)

const (
	FunctionsInBlueprintOnly = "blueprint_functions/functions_in_blueprint_only"
	FunctionsInBoth          = "blueprint_functions/functions_in_both_blueprint_functionapp"
	MultipleRegisters        = "blueprint_functions/multiple_function_registers"
	OnlyBlueprint            = "blueprint_functions/only_blueprint"
)

// HelloWorldHTML is the body returned by return_http.
const HelloWorldHTML = "<h1>Hello World™</h1>"

const (
	greetingFormat  = "Hello, %s. This HTTP triggered function executed successfully."
	anonymousResult = "This HTTP triggered function executed successfully. " +
		"Pass a name in the query string or in the request body for a personalized response."
)

// NewBlueprint returns the blueprint shared by the scripts, which contains the stock
// HTTP template function default_template.
func NewBlueprint() *funcapp.Blueprint {
	return funcapp.NewBlueprint("bp").Route("default_template", defaultTemplate)
}

// Scripts returns the four blueprint scripts.
func Scripts() []funcapp.Script {
	inBlueprintOnly := funcapp.NewApp().RegisterBlueprint(NewBlueprint())

	inBoth := funcapp.NewApp().
		RegisterBlueprint(NewBlueprint()).
		Route("return_http", returnHTTP)

	multiple := funcapp.NewApp().
		RegisterBlueprint(NewBlueprint()).
		Route("return_http", returnHTTP).
		Route("return_http", returnHTTP)

	return []funcapp.Script{
		{Path: FunctionsInBlueprintOnly, Apps: []*funcapp.App{inBlueprintOnly}},
		{Path: FunctionsInBoth, Apps: []*funcapp.App{inBoth}},
		{Path: MultipleRegisters, Apps: []*funcapp.App{multiple}},
		{Path: OnlyBlueprint, Blueprints: []*funcapp.Blueprint{NewBlueprint()}},
	}
}

func defaultTemplate(inv *funcapp.Invocation) (interface{}, error) {
	req, err := inv.HTTPRequest()
	if err != nil {
		return nil, err
	}
	name, _ := req.Param("name")
	if name == "" && len(req.Body) > 0 {
		var body struct {
			Name string `json:"name"`
		}
		if req.JSON(&body) == nil {
			name = body.Name
		}
	}
	if name == "" {
		return funcapp.TextResponse(http.StatusOK, anonymousResult), nil
	}
	return funcapp.TextResponse(http.StatusOK, fmt.Sprintf(greetingFormat, name)), nil
}

func returnHTTP(*funcapp.Invocation) (interface{}, error) {
	return funcapp.NewHTTPResponse(http.StatusOK, "text/html", []byte(HelloWorldHTML)), nil
}

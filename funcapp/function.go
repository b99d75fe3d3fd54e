package funcapp

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/funcworker/worker-e2e-tests/servicedef"
)

// HandlerFunc is the body of a function. The returned value feeds the $return binding, if
// the function declares one; it may be a *HTTPResponse, a string, a []byte, an io.Reader,
// or any value that can be marshaled to JSON.
type HandlerFunc func(inv *Invocation) (interface{}, error)

// Function is one registration in an App or Blueprint.
type Function struct {
	Name     string
	Trigger  Binding
	Bindings []Binding
	Handler  HandlerFunc
}

// HTTPFunction returns a function with an HTTP trigger named "req" on the given route and
// an HTTP $return binding, plus any extra bindings. The function name is the route.
func HTTPFunction(route string, handler HandlerFunc, bindings ...Binding) Function {
	return Function{
		Name:     route,
		Trigger:  HTTPTrigger("req", route),
		Bindings: append([]Binding{HTTPOutput(servicedef.ReturnBindingName)}, bindings...),
		Handler:  handler,
	}
}

// AllBindings returns the trigger followed by the other bindings.
func (f Function) AllBindings() []Binding {
	return append([]Binding{f.Trigger}, f.Bindings...)
}

// Binding returns the binding with the given name.
func (f Function) Binding(name string) (Binding, bool) {
	for _, b := range f.AllBindings() {
		if b.Name == name {
			return b, true
		}
	}
	return Binding{}, false
}

// Route returns the HTTP route of the function, or "" if it is not HTTP-triggered.
func (f Function) Route() string {
	if f.Trigger.Type != TypeHTTPTrigger {
		return ""
	}
	if f.Trigger.Route == "" {
		return f.Name
	}
	return f.Trigger.Route
}

// Methods returns the HTTP methods accepted by an HTTP-triggered function.
func (f Function) Methods() []string {
	if len(f.Trigger.Methods) == 0 {
		return []string{http.MethodGet, http.MethodPost}
	}
	return f.Trigger.Methods
}

// Metadata returns the function.json content for the function.
func (f Function) Metadata() servicedef.FunctionMetadata {
	var m servicedef.FunctionMetadata
	for _, b := range f.AllBindings() {
		m.Bindings = append(m.Bindings, b.Metadata())
	}
	return m
}

func (f Function) validate() error {
	if f.Name == "" {
		return fmt.Errorf("%w: function has no name", ErrInvalidFunction)
	}
	if f.Handler == nil {
		return fmt.Errorf("%w: function %q has no handler", ErrInvalidFunction, f.Name)
	}
	if !f.Trigger.IsTrigger() {
		return fmt.Errorf("%w: function %q has no trigger", ErrInvalidFunction, f.Name)
	}
	for _, b := range f.Bindings {
		if b.IsTrigger() {
			return fmt.Errorf("%w: function %q has more than one trigger", ErrInvalidFunction, f.Name)
		}
	}
	names := make(map[string]bool)
	for _, b := range f.AllBindings() {
		if b.Name == "" {
			return fmt.Errorf("%w: function %q has a %s binding with no name", ErrInvalidFunction, f.Name, b.Type)
		}
		if names[strings.ToLower(b.Name)] {
			return fmt.Errorf("%w: function %q declares binding %q more than once", ErrInvalidFunction, f.Name, b.Name)
		}
		names[strings.ToLower(b.Name)] = true
		if b.IsReturn() && b.Direction != Out {
			return fmt.Errorf("%w: function %q has an input binding named %s", ErrInvalidFunction, f.Name, b.Name)
		}
	}
	return nil
}

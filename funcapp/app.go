// Package funcapp declares function apps as registration tables and serves them to a
// functions host through the custom handler protocol.
//
// An App is built with ordinary calls (Register, Route, RegisterBlueprint) when a program
// starts. Registration never fails; conflicts are detected when a Script is indexed, and a
// script that fails to index exposes no functions at all.
package funcapp

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateFunction = errors.New("duplicate function name")
	ErrDuplicateRoute    = errors.New("duplicate route")
	ErrInvalidFunction   = errors.New("invalid function")
	ErrNoApp             = errors.New("script declares no function app")
	ErrMultipleApps      = errors.New("script declares more than one function app")
	ErrUnknownFunction   = errors.New("unknown function")
	ErrUnknownBinding    = errors.New("unknown binding")
)

type registry struct {
	functions []Function
}

func (r *registry) register(f Function) {
	r.functions = append(r.functions, f)
}

// App is the registration table of one function app.
type App struct {
	registry
	blueprints []*Blueprint
}

// Blueprint is a named group of registrations. Its functions are only part of an app once
// the blueprint has been attached with App.RegisterBlueprint.
type Blueprint struct {
	registry
	Name string
}

func NewApp() *App {
	return &App{}
}

func NewBlueprint(name string) *Blueprint {
	return &Blueprint{Name: name}
}

// Register adds a function to the app.
func (a *App) Register(f Function) *App {
	a.register(f)
	return a
}

// Route registers an HTTP-triggered function whose name is the route.
func (a *App) Route(route string, handler HandlerFunc, bindings ...Binding) *App {
	return a.Register(HTTPFunction(route, handler, bindings...))
}

// RegisterBlueprint attaches a blueprint. Its functions are indexed after the app's own
// functions, in the order the blueprints were attached.
func (a *App) RegisterBlueprint(bp *Blueprint) *App {
	a.blueprints = append(a.blueprints, bp)
	return a
}

func (b *Blueprint) Register(f Function) *Blueprint {
	b.register(f)
	return b
}

func (b *Blueprint) Route(route string, handler HandlerFunc, bindings ...Binding) *Blueprint {
	return b.Register(HTTPFunction(route, handler, bindings...))
}

// Functions returns every function of the app, including those of attached blueprints,
// after checking that each is valid and that function names and routes are unique.
// Names and routes are compared without regard to case, as the host does.
func (a *App) Functions() ([]Function, error) {
	all := append([]Function(nil), a.functions...)
	for _, bp := range a.blueprints {
		all = append(all, bp.functions...)
	}
	names := make(map[string]bool)
	routes := make(map[string]string)
	for _, f := range all {
		if err := f.validate(); err != nil {
			return nil, err
		}
		name := strings.ToLower(f.Name)
		if names[name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateFunction, f.Name)
		}
		names[name] = true
		if route := strings.ToLower(f.Route()); route != "" {
			if other, ok := routes[route]; ok {
				return nil, fmt.Errorf("%w: %q is used by %q and %q", ErrDuplicateRoute, f.Route(), other, f.Name)
			}
			routes[route] = f.Name
		}
	}
	return all, nil
}

// Script is the content of one script directory: its path relative to the scripts root,
// and the apps and blueprints it declares.
type Script struct {
	Path       string
	Apps       []*App
	Blueprints []*Blueprint
}

// Index is the set of functions that a script exposes to the host.
type Index struct {
	Script    string
	functions []Function
	byName    map[string]int
}

// Index resolves the functions of a script. It requires exactly one app.
//
// The returned Index is never nil. If indexing fails it is empty, which is what the host
// sees for that script: no functions, so every route is a 404.
func (s Script) Index() (*Index, error) {
	ix := &Index{Script: s.Path, byName: make(map[string]int)}
	switch len(s.Apps) {
	case 0:
		return ix, fmt.Errorf("%s: %w", s.Path, ErrNoApp)
	case 1:
	default:
		return ix, fmt.Errorf("%s: %w", s.Path, ErrMultipleApps)
	}
	functions, err := s.Apps[0].Functions()
	if err != nil {
		return ix, fmt.Errorf("%s: %w", s.Path, err)
	}
	for i, f := range functions {
		ix.byName[strings.ToLower(f.Name)] = i
	}
	ix.functions = functions
	return ix, nil
}

// Functions returns the indexed functions in registration order.
func (ix *Index) Functions() []Function {
	return append([]Function(nil), ix.functions...)
}

// Function looks up a function by name, without regard to case.
func (ix *Index) Function(name string) (Function, error) {
	i, ok := ix.byName[strings.ToLower(name)]
	if !ok {
		return Function{}, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	return ix.functions[i], nil
}

// Len returns the number of indexed functions.
func (ix *Index) Len() int {
	return len(ix.functions)
}

// Package fixtures is the registry of every fixture script, keyed by script directory.
package fixtures

import (
	"sort"

	"github.com/funcworker/worker-e2e-tests/fixtures/blobfunctions"
	"github.com/funcworker/worker-e2e-tests/fixtures/blueprintfunctions"
	"github.com/funcworker/worker-e2e-tests/funcapp"
)

// Scripts returns all fixture scripts sorted by path. Each call builds fresh apps.
func Scripts() []funcapp.Script {
	scripts := append([]funcapp.Script{blobfunctions.Script()}, blueprintfunctions.Scripts()...)
	sort.Slice(scripts, func(i, j int) bool { return scripts[i].Path < scripts[j].Path })
	return scripts
}

// Lookup returns the fixture script for a script directory.
func Lookup(path string) (funcapp.Script, bool) {
	for _, s := range Scripts() {
		if s.Path == path {
			return s, true
		}
	}
	return funcapp.Script{}, false
}

// Paths returns the script directories of all fixtures, sorted.
func Paths() []string {
	var ret []string
	for _, s := range Scripts() {
		ret = append(ret, s.Path)
	}
	return ret
}

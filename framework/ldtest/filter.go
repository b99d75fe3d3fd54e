package ldtest

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter is a function that can determine whether to run a specific test or not.
type Filter func(TestID) bool

// RegexFilters selects tests by name. MustMatch patterns are split on "/" and matched one
// path element at a time, the way "go test -run" does, so that a pattern naming a nested
// test also selects its parents. MustNotMatch patterns are matched against the full test
// name, so excluding a parent excludes all of its subtests.
type RegexFilters struct {
	MustMatch    RegexList
	MustNotMatch RegexList
}

func (r RegexFilters) AsFilter(id TestID) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatchPath(id.Path)) &&
		!r.MustNotMatch.AnyMatch(id.String())
}

// IsDefined returns true if there are any patterns at all.
func (r RegexFilters) IsDefined() bool {
	return r.MustMatch.IsDefined() || r.MustNotMatch.IsDefined()
}

type pattern struct {
	source   string
	whole    *regexp.Regexp
	elements []*regexp.Regexp
}

type RegexList struct {
	patterns []pattern
}

func (r RegexList) String() string {
	var ss []string
	for _, p := range r.patterns {
		ss = append(ss, `"`+p.source+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser
func (r *RegexList) Set(value string) error {
	whole, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	p := pattern{source: value, whole: whole}
	for _, elem := range strings.Split(value, "/") {
		rx, err := regexp.Compile(elem)
		if err != nil {
			return fmt.Errorf("invalid regex %q in %q: %w", elem, value, err)
		}
		p.elements = append(p.elements, rx)
	}
	r.patterns = append(r.patterns, p)
	return nil
}

func (r RegexList) IsDefined() bool {
	return len(r.patterns) != 0
}

func (r RegexList) AnyMatch(s string) bool {
	for _, p := range r.patterns {
		if p.whole.MatchString(s) {
			return true
		}
	}
	return false
}

// AnyMatchPath returns true if any pattern matches the test path element by element. A
// path that is shorter than the pattern matches if all of its elements do, and a path that
// is longer matches if its first elements match the whole pattern.
func (r RegexList) AnyMatchPath(path []string) bool {
	for _, p := range r.patterns {
		if p.matchPath(path) {
			return true
		}
	}
	return false
}

func (p pattern) matchPath(path []string) bool {
	for i, elem := range path {
		if i >= len(p.elements) {
			return true
		}
		if !p.elements[i].MatchString(elem) {
			return false
		}
	}
	return true
}

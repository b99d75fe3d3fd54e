package framework

import "sort"

// Capabilities is a set of named features that the environment under test supports, such
// as "blob-storage" when a storage account connection has been configured for the hosts.
// Tests that need a capability skip themselves if it is absent.
type Capabilities []string

func (c Capabilities) Has(name string) bool {
	for _, value := range c {
		if value == name {
			return true
		}
	}
	return false
}

func (c Capabilities) HasAll(names ...string) bool {
	for _, n := range names {
		if !c.Has(n) {
			return false
		}
	}
	return true
}

// Missing returns the names in allNames that are not in the set, sorted.
func (c Capabilities) Missing(allNames []string) []string {
	var ret []string
	for _, n := range allNames {
		if !c.Has(n) {
			ret = append(ret, n)
		}
	}
	sort.Strings(ret)
	return ret
}

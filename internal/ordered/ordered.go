// Package ordered provides ordered, deterministic traversal of maps.
package ordered

import (
	"encoding/xml"
	"sort"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Keys returns the keys of m in ascending order.
func Keys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

// Range calls fn on each entry of m in ascending key order.
func Range[K constraints.Ordered, V any](m map[K]V, fn func(K, V)) {
	for _, k := range Keys(m) {
		fn(k, m[k])
	}
}

// Names returns the keys of m sorted by namespace, then local name.
func Names[V any](m map[xml.Name]V) []xml.Name {
	keys := maps.Keys(m)
	sort.Slice(keys, func(i, j int) bool { return Less(keys[i], keys[j]) })
	return keys
}

// RangeNames calls fn on each entry of m in the order of Names.
func RangeNames[V any](m map[xml.Name]V, fn func(xml.Name, V)) {
	for _, k := range Names(m) {
		fn(k, m[k])
	}
}

// Less orders qualified names by namespace, then local name.
func Less(a, b xml.Name) bool {
	if a.Space != b.Space {
		return a.Space < b.Space
	}
	return a.Local < b.Local
}

// Package dependency walks the graph of schema documents and the
// documents they refer to.
package dependency // import "github.com/CognitoIQ/go-xsd/internal/dependency"

import (
	"sync"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// insertUnique inserts x into set, preserving order. If x is already in set,
// it is not added. The augmented set is returned.
func insertUnique[T constraints.Ordered](set []T, x T) []T {
	i, found := slices.BinarySearch(set, x)
	if !found {
		set = slices.Insert(set, i, x)
	}
	return set
}

// A Graph is a collection of vertices and their dependencies. The zero
// value is an empty Graph.
type Graph[T constraints.Ordered] struct {
	once  sync.Once
	nodes map[T][]T
}

func (g *Graph[T]) init() {
	g.once.Do(func() { g.nodes = make(map[T][]T) })
}

// Add records that target depends on dependency.
func (g *Graph[T]) Add(target, dependency T) {
	g.init()
	g.nodes[target] = insertUnique(g.nodes[target], dependency)
}

// Reachable calls walk on every vertex reachable from root, including
// root itself, dependencies first. Every vertex is visited once, and
// cycles are skipped. The same Graph is always traversed in the same
// order.
func (g *Graph[T]) Reachable(root T, walk func(T)) {
	g.init()
	visited := map[T]bool{root: true}
	g.visit(walk, g.nodes[root], visited)
	walk(root)
}

func (g *Graph[T]) visit(fn func(T), targets []T, visited map[T]bool) {
	for _, tgt := range targets {
		if !visited[tgt] {
			visited[tgt] = true
			g.visit(fn, g.nodes[tgt], visited)
			fn(tgt)
		}
	}
}

package dependency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func reach[T int | string](g *Graph[T], root T) []T {
	var seen []T
	g.Reachable(root, func(v T) { seen = append(seen, v) })
	return seen
}

func TestReachable(t *testing.T) {
	var g Graph[string]
	g.Add("main.xsd", "types.xsd")
	g.Add("main.xsd", "elements.xsd")
	g.Add("elements.xsd", "types.xsd")
	g.Add("types.xsd", "common.xsd")
	g.Add("unrelated.xsd", "common.xsd")

	assert.Equal(t, []string{"common.xsd", "types.xsd", "elements.xsd", "main.xsd"}, reach(&g, "main.xsd"))
	assert.Equal(t, []string{"common.xsd", "types.xsd"}, reach(&g, "types.xsd"))
	assert.Equal(t, []string{"lonely.xsd"}, reach(&g, "lonely.xsd"))
}

func TestReachableSkipsCycles(t *testing.T) {
	var g Graph[int]
	g.Add(1, 2)
	g.Add(2, 3)
	g.Add(3, 1)
	g.Add(4, 1)
	g.Add(2, 2)

	assert.Equal(t, []int{1, 3, 2}, reach(&g, 2))
	assert.Equal(t, []int{3, 2, 1, 4}, reach(&g, 4))
}

func TestReachableVisitsOnce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "vertices")
		var g Graph[int]
		edges := rapid.SliceOf(rapid.SliceOfN(rapid.IntRange(0, n-1), 2, 2)).Draw(t, "edges")
		deps := make(map[int][]int)
		for _, e := range edges {
			g.Add(e[0], e[1])
			deps[e[0]] = append(deps[e[0]], e[1])
		}
		root := rapid.IntRange(0, n-1).Draw(t, "root")

		// breadth-first search for the expected set
		want := map[int]bool{root: true}
		queue := []int{root}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for _, d := range deps[v] {
				if !want[d] {
					want[d] = true
					queue = append(queue, d)
				}
			}
		}

		seen := reach(&g, root)
		got := make(map[int]bool)
		for _, v := range seen {
			if got[v] {
				t.Fatalf("%d visited twice: %v", v, seen)
			}
			got[v] = true
		}
		if len(got) != len(want) {
			t.Fatalf("visited %v, want %v", got, want)
		}
		for v := range want {
			if !got[v] {
				t.Fatalf("%d not visited: %v", v, seen)
			}
		}
		if seen[len(seen)-1] != root {
			t.Fatalf("root %d is not last in %v", root, seen)
		}
	})
}

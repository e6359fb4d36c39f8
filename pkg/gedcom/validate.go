package gedcom

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrCycle is returned by [Validate] when somebody is their own ancestor.
var ErrCycle = errors.New("relationship cycle")

// CycleError lists the persons that take part in a relationship cycle.
type CycleError struct {
	Persons []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCycle, strings.Join(e.Persons, ", "))
}

// Unwrap returns ErrCycle.
func (e *CycleError) Unwrap() error { return ErrCycle }

// Validate checks that the parent-to-child graph is acyclic. A parent who is
// also a child of the same family is reported as a cycle of one.
func Validate(g *Gedcom) error {
	ids := make(map[string]int64, len(g.order))
	for i, id := range g.order {
		ids[id] = int64(i)
	}

	dg := simple.NewDirectedGraph()
	for _, id := range ids {
		dg.AddNode(simple.Node(id))
	}
	for _, f := range g.Families() {
		for _, parent := range []string{f.Husband, f.Wife} {
			from, ok := ids[parent]
			if !ok {
				continue
			}
			for _, child := range f.Children {
				to, ok := ids[child]
				if !ok {
					continue
				}
				if from == to {
					return &CycleError{Persons: []string{parent}}
				}
				dg.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
			}
		}
	}

	if _, err := topo.Sort(dg); err != nil {
		var unorderable topo.Unorderable
		if !errors.As(err, &unorderable) || len(unorderable) == 0 {
			return fmt.Errorf("sort relationships: %w", err)
		}
		return &CycleError{Persons: names(g, unorderable[0])}
	}
	return nil
}

func names(g *Gedcom, nodes []graph.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, g.order[n.ID()])
	}
	slices.Sort(out)
	return out
}

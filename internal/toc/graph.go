package toc

import (
	"sort"
)

// Graph is the dependency graph merged from every user's outline. An entry
// depends on the entry before it in the same outline, the first entry on
// the root.
type Graph struct {
	depth    map[string]int
	parents  map[string]map[string]bool
	children map[string][]string
	nodes    []string
}

// NewGraph creates a graph holding only the root
func NewGraph() *Graph {
	return &Graph{
		depth:    map[string]int{RootID: DepthSection},
		parents:  make(map[string]map[string]bool),
		children: make(map[string][]string),
		nodes:    []string{RootID},
	}
}

// BuildGraph merges outlines in the given order
func BuildGraph(outlines ...Outline) *Graph {
	g := NewGraph()
	for _, o := range outlines {
		g.Add(o)
	}
	return g
}

// Add merges one outline into the graph. A later outline overrides the
// depth an earlier one gave the same id.
func (g *Graph) Add(o Outline) {
	prev := RootID
	for _, e := range o {
		if _, ok := g.depth[e.ID]; !ok {
			g.nodes = append(g.nodes, e.ID)
		}
		g.depth[e.ID] = e.Depth
		g.addEdge(prev, e.ID)
		prev = e.ID
	}
}

func (g *Graph) addEdge(parent, child string) {
	ps, ok := g.parents[child]
	if !ok {
		ps = make(map[string]bool)
		g.parents[child] = ps
	}
	if ps[parent] {
		return
	}
	ps[parent] = true
	g.children[parent] = append(g.children[parent], child)
}

// Depth returns the depth of a node, DepthSection for unknown ids
func (g *Graph) Depth(id string) int {
	if d, ok := g.depth[id]; ok {
		return d
	}
	return DepthSection
}

// Len returns the number of nodes including the root
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Order returns a topological order starting at the root. Ready entries
// are emitted before ready sections so that an entry follows the section
// that released it; ties within each class keep discovery order. Nodes that
// never become ready, because they sit on a cycle or depend on one, are
// left out and returned sorted as unreachable.
func (g *Graph) Order() (order []string, unreachable []string) {
	pending := make(map[string]int, len(g.parents))
	for child, ps := range g.parents {
		pending[child] = len(ps)
	}

	emitted := make(map[string]bool, len(g.nodes))
	sections := []string{RootID}
	var entries []string
	for len(sections) > 0 || len(entries) > 0 {
		var cur string
		// GroupOrder attaches an entry to the latest section, so a ready
		// entry must not wait behind another ready section
		if len(entries) > 0 {
			cur, entries = entries[0], entries[1:]
		} else {
			cur, sections = sections[0], sections[1:]
		}
		if emitted[cur] {
			continue
		}
		emitted[cur] = true
		order = append(order, cur)
		for _, next := range g.children[cur] {
			pending[next]--
			if pending[next] != 0 {
				continue
			}
			if g.Depth(next) == DepthEntry {
				entries = append(entries, next)
			} else {
				sections = append(sections, next)
			}
		}
	}

	for _, id := range g.nodes {
		if !emitted[id] {
			unreachable = append(unreachable, id)
		}
	}
	sort.Strings(unreachable)
	return order, unreachable
}

// Group is a section with the entries that follow it
type Group struct {
	ID      string   `json:"id"`
	Entries []string `json:"entries,omitempty"`
}

// GroupOrder folds a flat order into sections: a section starts a new
// group, an entry joins the most recent one.
func (g *Graph) GroupOrder(order []string) []Group {
	var groups []Group
	for _, id := range order {
		if g.Depth(id) == DepthEntry && len(groups) > 0 {
			last := &groups[len(groups)-1]
			last.Entries = append(last.Entries, id)
			continue
		}
		groups = append(groups, Group{ID: id})
	}
	return groups
}

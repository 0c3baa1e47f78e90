package flow

import (
	"fmt"
	"sort"
)

// Loop is a natural loop: a header block plus every block that reaches one
// of its back edges without passing through the header.
type Loop struct {
	Name      string
	Header    int
	BackEdges []Edge
	Blocks    []int
	Children  []*Loop
}

// FindLoops returns the outermost loops of g, each with its nested loops.
// Loops are named loop_1, loop_1.1, ... in header order.
func FindLoops(g *Graph) []*Loop {
	if len(g.Blocks) == 0 {
		return nil
	}

	backEdges := findBackEdges(g)
	if len(backEdges) == 0 {
		return nil
	}

	byHeader := make(map[int]*Loop)
	var loops []*Loop
	for _, e := range backEdges {
		l, ok := byHeader[e.To]
		if !ok {
			l = &Loop{Header: e.To}
			byHeader[e.To] = l
			loops = append(loops, l)
		}
		l.BackEdges = append(l.BackEdges, e)
	}

	bodies := make(map[*Loop]map[int]bool, len(loops))
	for _, l := range loops {
		body := naturalLoop(g, l)
		bodies[l] = body
		for b := range body {
			l.Blocks = append(l.Blocks, b)
		}
		sort.Ints(l.Blocks)
	}

	// Smaller loops first, so the first strict superset found is the
	// innermost enclosing loop.
	sort.SliceStable(loops, func(i, k int) bool {
		if len(loops[i].Blocks) == len(loops[k].Blocks) {
			return loops[i].Header < loops[k].Header
		}
		return len(loops[i].Blocks) < len(loops[k].Blocks)
	})

	var roots []*Loop
	for i, l := range loops {
		var parent *Loop
		for _, m := range loops[i+1:] {
			if m.Header != l.Header && bodies[m][l.Header] && containsAll(bodies[m], l.Blocks) {
				parent = m
				break
			}
		}
		if parent == nil {
			roots = append(roots, l)
		} else {
			parent.Children = append(parent.Children, l)
		}
	}

	nameLoops(roots, "loop_")
	return roots
}

func nameLoops(loops []*Loop, prefix string) {
	sort.Slice(loops, func(i, k int) bool { return loops[i].Header < loops[k].Header })
	for i, l := range loops {
		l.Name = fmt.Sprintf("%s%d", prefix, i+1)
		nameLoops(l.Children, l.Name+".")
	}
}

// findBackEdges returns edges whose target is on the DFS stack from the entry.
func findBackEdges(g *Graph) []Edge {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make([]int, len(g.Blocks))
	var edges []Edge

	var visit func(b int)
	visit = func(b int) {
		state[b] = onStack
		for _, s := range g.Blocks[b].Succs {
			switch state[s] {
			case unvisited:
				visit(s)
			case onStack:
				edges = append(edges, Edge{From: b, To: s})
			}
		}
		state[b] = done
	}
	visit(0)
	return edges
}

func naturalLoop(g *Graph, l *Loop) map[int]bool {
	body := map[int]bool{l.Header: true}
	var work []int
	for _, e := range l.BackEdges {
		if !body[e.From] {
			body[e.From] = true
			work = append(work, e.From)
		}
	}
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		for _, p := range g.Blocks[b].Preds {
			if !body[p] {
				body[p] = true
				work = append(work, p)
			}
		}
	}
	return body
}

func containsAll(set map[int]bool, blocks []int) bool {
	for _, b := range blocks {
		if !set[b] {
			return false
		}
	}
	return true
}

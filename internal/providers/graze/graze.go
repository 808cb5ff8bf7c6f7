// Package graze selects and filters elements for SELECT and SCRAPE.
package graze

import (
	"sort"

	"github.com/GriffinCanCode/scrapegoat/internal/dom"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/ast"
)

// Select applies g to scope. For SELECT scope is the document roots and
// matching scope elements are included; for SCRAPE scope is the current
// selection and only strict descendants are searched. The result is in
// document order without duplicates.
func Select(scope []dom.Node, g *ast.Graze) []dom.Node {
	out := Filter(Candidates(scope, g), g.Conditions)
	if g.Count > 0 && len(out) > g.Count {
		out = out[:g.Count]
	}
	return out
}

// Candidates collects the elements under scope whose tag passes g.
func Candidates(scope []dom.Node, g *ast.Graze) []dom.Node {
	var (
		out    []dom.Node
		seen   = make(map[dom.Node]bool)
		sorted = true
	)
	add := func(n dom.Node) {
		if n.IsRoot() || !g.Matches(n.Tag()) || seen[n] {
			return
		}
		if len(out) > 0 && !out[len(out)-1].Before(n) {
			sorted = false
		}
		seen[n] = true
		out = append(out, n)
	}

	for _, s := range scope {
		if g.Rebase {
			add(s)
		}
		s.Descendants(func(n dom.Node) bool {
			add(n)
			return true
		})
	}
	if !sorted {
		sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	}
	return out
}

// Filter keeps the candidates satisfying every condition. Positional
// conditions see each survivor's index among the elements that passed
// the other conditions, whatever their order in source.
func Filter(cands []dom.Node, conds []ast.Condition) []dom.Node {
	var plain, positional []ast.Condition
	for _, c := range conds {
		if c.Positional() {
			positional = append(positional, c)
		} else {
			plain = append(plain, c)
		}
	}

	kept := keep(cands, plain)
	return keep(kept, positional)
}

func keep(nodes []dom.Node, conds []ast.Condition) []dom.Node {
	if len(conds) == 0 {
		return nodes
	}
	total := len(nodes)
	out := make([]dom.Node, 0, total)
	for i, n := range nodes {
		if all(conds, n, i, total) {
			out = append(out, n)
		}
	}
	return out
}

func all(conds []ast.Condition, n dom.Node, index, total int) bool {
	for _, c := range conds {
		if !c.Eval(n, index, total) {
			return false
		}
	}
	return true
}

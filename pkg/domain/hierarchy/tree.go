// Package hierarchy builds the strict Epic → Spec → Story tree from a
// flat issue list and renders the repository issue index.
package hierarchy

import (
	"github.com/jcttech/specstack/pkg/domain/issue"
)

// Node is an issue with its resolved children.
type Node struct {
	Issue    issue.Issue
	Children []*Node
}

// ChildrenOfType filters the node's children by type, preserving order.
func (n *Node) ChildrenOfType(t issue.Type) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Issue.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// Tree is the assembled hierarchy. Epics without a parent become roots;
// issues whose parent cannot be found in the input set are dropped from
// the tree (the analysis passes report them separately).
type Tree struct {
	Epics    []*Node
	ByNumber map[int]*Node
}

// Build assembles the tree in two passes: first index every issue by
// number, then wire children to parents via the resolved parent link
// (structured field first, body marker fallback).
func Build(issues []issue.Issue) *Tree {
	tree := &Tree{ByNumber: make(map[int]*Node, len(issues))}

	nodes := make([]*Node, len(issues))
	for i := range issues {
		n := &Node{Issue: issues[i]}
		nodes[i] = n
		tree.ByNumber[issues[i].Number] = n
	}

	for _, n := range nodes {
		parent := n.Issue.ResolvedParent()
		if parent > 0 {
			if p, ok := tree.ByNumber[parent]; ok {
				p.Children = append(p.Children, n)
				continue
			}
		}
		if n.Issue.Type == issue.TypeEpic {
			tree.Epics = append(tree.Epics, n)
		}
	}

	return tree
}

// Count returns the number of issues reachable from the epic roots.
func (t *Tree) Count() int {
	count := 0
	for _, e := range t.Epics {
		count += 1 + countChildren(e)
	}
	return count
}

func countChildren(n *Node) int {
	count := len(n.Children)
	for _, c := range n.Children {
		count += countChildren(c)
	}
	return count
}

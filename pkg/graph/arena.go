package graph

import "github.com/Faultbox/gfztool/pkg/binio"

// NodeID indexes a record in an Arena.
type NodeID int

// NoParent marks a root node.
const NoParent NodeID = -1

// Node is one materialized record and its links.
type Node struct {
	ID       NodeID
	Offset   binio.Pointer
	Kind     string
	Record   Record
	Parent   NodeID
	Children []NodeID
}

// Arena is a flat table of every record materialized while reading a file.
// Repeated references to one offset produce independent nodes; At returns
// all of them.
type Arena struct {
	nodes    []*Node
	byOffset map[binio.Pointer][]NodeID
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{byOffset: make(map[binio.Pointer][]NodeID)}
}

func (a *Arena) add(offset binio.Pointer, rec Record, parent NodeID) NodeID {
	id := NodeID(len(a.nodes))
	a.nodes = append(a.nodes, &Node{
		ID:     id,
		Offset: offset,
		Kind:   KindOf(rec),
		Record: rec,
		Parent: parent,
	})
	a.byOffset[offset] = append(a.byOffset[offset], id)
	if parent != NoParent {
		p := a.nodes[parent]
		p.Children = append(p.Children, id)
	}
	return id
}

// Len returns the number of nodes.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// Node returns the node with the given id, or nil.
func (a *Arena) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(a.nodes) {
		return nil
	}
	return a.nodes[id]
}

// Nodes returns all nodes in materialization order.
func (a *Arena) Nodes() []*Node {
	return a.nodes
}

// At returns the ids of every node materialized from offset.
func (a *Arena) At(offset binio.Pointer) []NodeID {
	return a.byOffset[offset]
}

// Roots returns nodes without a parent.
func (a *Arena) Roots() []NodeID {
	var roots []NodeID
	for _, n := range a.nodes {
		if n.Parent == NoParent {
			roots = append(roots, n.ID)
		}
	}
	return roots
}

// Walk visits every node depth-first from the roots. Returning an error stops the walk.
func (a *Arena) Walk(fn func(n *Node, depth int) error) error {
	var visit func(id NodeID, depth int) error
	visit = func(id NodeID, depth int) error {
		n := a.nodes[id]
		if err := fn(n, depth); err != nil {
			return err
		}
		for _, child := range n.Children {
			if err := visit(child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range a.Roots() {
		if err := visit(root, 0); err != nil {
			return err
		}
	}
	return nil
}

// CountKinds returns how many nodes of each kind were materialized.
func (a *Arena) CountKinds() map[string]int {
	counts := make(map[string]int)
	for _, n := range a.nodes {
		counts[n.Kind]++
	}
	return counts
}

package aggregate

import (
	"taxaformer/internal/models"
	"taxaformer/internal/taxonomy"
)

// Node is a sunburst/Krona tree node. Value counts the sequences passing through it.
type Node struct {
	Name     string  `json:"name"`
	Value    int     `json:"value"`
	Children []*Node `json:"children,omitempty"`

	index map[string]int
}

func (n *Node) child(name string) *Node {
	if n.index == nil {
		n.index = make(map[string]int)
	}
	if i, ok := n.index[name]; ok {
		return n.Children[i]
	}
	c := &Node{Name: name}
	n.index[name] = len(n.Children)
	n.Children = append(n.Children, c)
	return c
}

// Hierarchy builds the rank tree rooted at "Life". Children keep first-seen order.
func Hierarchy(records []models.SequenceRecord) *Node {
	root := &Node{Name: "Life"}
	for _, r := range records {
		cur := root
		for label := range taxonomy.Labels(r.Taxonomy) {
			if label == "" {
				label = models.UnknownLabel
			}
			cur = cur.child(label)
			cur.Value++
		}
		if cur != root {
			root.Value++
		}
	}
	return root
}

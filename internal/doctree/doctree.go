package doctree

import "strings"

// Kind discriminates the variants of Node.
type Kind int

const (
	OtherNode Kind = iota // document, comment, doctype
	ElementNode
	TextNode
)

func (k Kind) String() string {
	switch k {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	default:
		return "other"
	}
}

// Node is one node of a parsed document tree.
//
// Tag and Children are meaningful only for ElementNode (Children is also
// populated for the document root), Text only for TextNode. Every node knows
// its parent and its position among the parent's children, so sibling walks
// are plain slice iteration.
type Node struct {
	Kind     Kind
	Tag      string
	Text     string
	Children []*Node

	parent *Node
	index  int
}

// NewElement builds a detached element node with the given children.
func NewElement(tag string, children ...*Node) *Node {
	n := &Node{Kind: ElementNode, Tag: strings.ToLower(tag)}
	for _, c := range children {
		n.Append(c)
	}
	return n
}

// NewText builds a detached text node.
func NewText(text string) *Node {
	return &Node{Kind: TextNode, Text: text}
}

// Append attaches c as the last child of n.
func (n *Node) Append(c *Node) {
	c.parent = n
	c.index = len(n.Children)
	n.Children = append(n.Children, c)
}

// Parent returns the node's parent, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// IsElement reports whether n is an element with the given lower-case tag.
func (n *Node) IsElement(tag string) bool {
	return n != nil && n.Kind == ElementNode && n.Tag == tag
}

// NextSiblings returns the nodes following n under the same parent, in
// document order. The returned slice aliases the parent's children and must
// not be modified.
func (n *Node) NextSiblings() []*Node {
	if n.parent == nil {
		return nil
	}
	return n.parent.Children[n.index+1:]
}

// TextContent concatenates the text of every descendant text node and trims
// surrounding whitespace.
func (n *Node) TextContent() string {
	var buf strings.Builder
	var collect func(*Node)
	collect = func(n *Node) {
		if n.Kind == TextNode {
			buf.WriteString(n.Text)
			return
		}
		for _, c := range n.Children {
			collect(c)
		}
	}
	collect(n)
	return strings.TrimSpace(buf.String())
}

// FindAll returns every descendant element with the given tag in document
// order. n itself is not considered.
func (n *Node) FindAll(tag string) []*Node {
	tag = strings.ToLower(tag)
	var out []*Node
	var walk func(*Node)
	walk = func(n *Node) {
		for _, c := range n.Children {
			if c.IsElement(tag) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

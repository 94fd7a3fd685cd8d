package render

import (
	"strings"
)

// FragmentTag marks a node that renders only its children
const FragmentTag = "#fragment"

// Attr is one element attribute. Order is preserved.
type Attr struct {
	Key string `json:"key"`
	Val string `json:"val"`
}

// Node is a resolved host tree: elements, text, and fragments.
// A node with an empty Tag is a text node.
type Node struct {
	Tag      string  `json:"tag,omitempty"`
	Text     string  `json:"text,omitempty"`
	Attrs    []Attr  `json:"attrs,omitempty"`
	Children []*Node `json:"children,omitempty"`
	Parent   *Node   `json:"-"`
}

// Element creates an element node and adopts children
func Element(tag string, attrs []Attr, children ...*Node) *Node {
	n := &Node{Tag: tag, Attrs: attrs}
	for _, c := range children {
		n.AddChild(c)
	}
	return n
}

// TextNode creates a text node
func TextNode(text string) *Node {
	return &Node{Text: text}
}

// Fragment groups children without a wrapping element
func Fragment(children ...*Node) *Node {
	return Element(FragmentTag, nil, children...)
}

// IsText reports whether n is a text node
func (n *Node) IsText() bool {
	return n.Tag == ""
}

// AddChild appends child. nil children are ignored.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		return
	}
	child.Parent = n
	n.Children = append(n.Children, child)
}

// Remove detaches n from its parent
func (n *Node) Remove() {
	if n.Parent == nil {
		return
	}
	children := n.Parent.Children[:0]
	for _, child := range n.Parent.Children {
		if child != n {
			children = append(children, child)
		}
	}
	n.Parent.Children = children
	n.Parent = nil
}

// GetAttribute retrieves an attribute value
func (n *Node) GetAttribute(name string) string {
	for _, a := range n.Attrs {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// SetAttribute sets or replaces an attribute value
func (n *Node) SetAttribute(name, value string) {
	for i, a := range n.Attrs {
		if a.Key == name {
			n.Attrs[i].Val = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: name, Val: value})
}

// TextContent concatenates all descendant text
func (n *Node) TextContent() string {
	var sb strings.Builder
	n.walk(func(c *Node) {
		if c.IsText() {
			sb.WriteString(c.Text)
		}
	})
	return sb.String()
}

// Query finds elements by a simple selector: #id, .class or tag
func (n *Node) Query(selector string) []*Node {
	var match func(*Node) bool
	switch {
	case strings.HasPrefix(selector, "#"):
		id := strings.TrimPrefix(selector, "#")
		match = func(e *Node) bool { return e.GetAttribute("id") == id }
	case strings.HasPrefix(selector, "."):
		class := strings.TrimPrefix(selector, ".")
		match = func(e *Node) bool { return hasClass(e.GetAttribute("class"), class) }
	default:
		match = func(e *Node) bool { return strings.EqualFold(e.Tag, selector) }
	}

	var result []*Node
	n.walk(func(c *Node) {
		if !c.IsText() && c.Tag != FragmentTag && match(c) {
			result = append(result, c)
		}
	})
	return result
}

func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}

func hasClass(classAttr, class string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == class {
			return true
		}
	}
	return false
}

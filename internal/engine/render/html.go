package render

import (
	"bytes"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// HTML serializes the tree. Text is escaped by the renderer.
func (n *Node) HTML() string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	for _, h := range n.toHTML() {
		if err := html.Render(&buf, h); err != nil {
			// Only reachable for malformed void elements, which toHTML never builds
			continue
		}
	}
	return buf.String()
}

func (n *Node) toHTML() []*html.Node {
	if n.IsText() {
		return []*html.Node{{Type: html.TextNode, Data: n.Text}}
	}
	if n.Tag == FragmentTag {
		var out []*html.Node
		for _, c := range n.Children {
			out = append(out, c.toHTML()...)
		}
		return out
	}

	a := atom.Lookup([]byte(n.Tag))
	h := &html.Node{Type: html.ElementNode, Data: n.Tag, DataAtom: a}
	for _, attr := range n.Attrs {
		h.Attr = append(h.Attr, html.Attribute{Key: attr.Key, Val: attr.Val})
	}
	if voidElements[n.Tag] {
		return []*html.Node{h}
	}
	for _, c := range n.Children {
		for _, ch := range c.toHTML() {
			h.AppendChild(ch)
		}
	}
	return []*html.Node{h}
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// ErrorPanel builds the error view shown in a render target
func ErrorPanel(err *types.ExecutionError) *Node {
	msg := err.Message
	if err.Name != "" {
		msg = err.Name + ": " + msg
	}
	return Element("div", []Attr{{Key: "class", Val: "error"}, {Key: "data-phase", Val: string(err.Phase)}},
		Element("strong", nil, TextNode("Error:")),
		TextNode(" "+msg),
	)
}

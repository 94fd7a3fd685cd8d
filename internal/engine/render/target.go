package render

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Target accepts rendered trees. Render(nil) clears the target.
type Target interface {
	Render(tree *Node)
}

// Listener is notified with sanitized HTML after every render
type Listener func(html string)

// HTMLTarget keeps the latest render as sanitized HTML
type HTMLTarget struct {
	mu        sync.RWMutex
	policy    *bluemonday.Policy
	tree      *Node
	html      string
	version   uint64
	listeners map[uint64]Listener
	nextID    uint64
}

// NewHTMLTarget creates a target using a UGC policy extended with the
// attributes snippets commonly produce
func NewHTMLTarget() *HTMLTarget {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class", "id", "data-phase").Globally()
	policy.AllowStyles(
		"padding", "margin", "background", "background-color", "color",
		"border", "border-radius", "text-align", "font-size", "font-weight",
		"font-family", "cursor", "display", "width", "height",
	).Globally()

	return &HTMLTarget{
		policy:    policy,
		listeners: make(map[uint64]Listener),
	}
}

// Render implements Target
func (t *HTMLTarget) Render(tree *Node) {
	sanitized := ""
	if tree != nil {
		sanitized = t.policy.Sanitize(tree.HTML())
	}

	t.mu.Lock()
	t.tree = tree
	t.html = sanitized
	t.version++
	listeners := make([]Listener, 0, len(t.listeners))
	for _, l := range t.listeners {
		listeners = append(listeners, l)
	}
	t.mu.Unlock()

	for _, l := range listeners {
		l(sanitized)
	}
}

// HTML returns the latest sanitized render
func (t *HTMLTarget) HTML() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.html
}

// Tree returns the latest unsanitized tree
func (t *HTMLTarget) Tree() *Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tree
}

// Version counts renders, including clears
func (t *HTMLTarget) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// Subscribe registers l and returns a function that removes it
func (t *HTMLTarget) Subscribe(l Listener) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = l
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	}
}

package panel

import (
	"fmt"
	"sync"
)

// Tree is an in-process panel host. It keeps every panel it created so the
// headless daemon and tests can inspect what a real UI would have drawn.
type Tree struct {
	mu     sync.Mutex
	panels map[string]*Node
	order  []string
}

func NewTree() *Tree {
	return &Tree{panels: make(map[string]*Node)}
}

// CreatePanel adds a live node. Names must be unique among live panels.
func (t *Tree) CreatePanel(parent, name string) (Panel, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.panels[name]; ok {
		return nil, fmt.Errorf("panel %q already exists", name)
	}
	n := &Node{
		tree:   t,
		name:   name,
		parent: parent,
		styles: make(map[string]string),
	}
	t.panels[name] = n
	t.order = append(t.order, name)
	return n, nil
}

// Get returns a live panel by name.
func (t *Tree) Get(name string) (*Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.panels[name]
	return n, ok
}

// Len returns the number of live panels.
func (t *Tree) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.panels)
}

// Names returns live panel names in creation order.
func (t *Tree) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.panels))
	for _, name := range t.order {
		if _, ok := t.panels[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

func (t *Tree) remove(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.panels, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Node is a panel held by a Tree.
type Node struct {
	tree   *Tree
	name   string
	parent string

	mu        sync.Mutex
	styles    map[string]string
	classes   []string
	deleted   bool
	mutations int
}

func (n *Node) Name() string   { return n.name }
func (n *Node) Parent() string { return n.parent }

func (n *Node) SetStyle(property, value string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.deleted {
		return
	}
	n.styles[property] = value
	n.mutations++
}

func (n *Node) AddClass(class string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.deleted {
		return
	}
	for _, c := range n.classes {
		if c == class {
			return
		}
	}
	n.classes = append(n.classes, class)
	n.mutations++
}

func (n *Node) Delete() {
	n.mu.Lock()
	if n.deleted {
		n.mu.Unlock()
		return
	}
	n.deleted = true
	n.mutations++
	n.mu.Unlock()

	n.tree.remove(n.name)
}

// Style returns the current value of a style property.
func (n *Node) Style(property string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.styles[property]
}

// Styles returns a copy of all set styles.
func (n *Node) Styles() map[string]string {
	n.mu.Lock()
	defer n.mu.Unlock()
	cp := make(map[string]string, len(n.styles))
	for k, v := range n.styles {
		cp[k] = v
	}
	return cp
}

func (n *Node) HasClass(class string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.classes {
		if c == class {
			return true
		}
	}
	return false
}

func (n *Node) Deleted() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.deleted
}

// Mutations counts accepted style, class and delete calls.
func (n *Node) Mutations() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.mutations
}

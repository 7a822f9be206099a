package vfs

import (
	"io/fs"
	"time"
)

// Kind distinguishes files from directories.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

func (k Kind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

const (
	defaultFileMode fs.FileMode = 0o644
	defaultDirMode  fs.FileMode = 0o755
)

type node struct {
	name     string
	kind     Kind
	mode     fs.FileMode
	modTime  time.Time
	content  []byte
	children *children
}

// children is an insertion ordered name -> node mapping.
type children struct {
	order []string
	items map[string]*node
}

func newChildren() *children {
	return &children{items: make(map[string]*node)}
}

func (c *children) get(name string) (*node, bool) {
	n, ok := c.items[name]
	return n, ok
}

func (c *children) put(n *node) {
	if _, ok := c.items[n.name]; !ok {
		c.order = append(c.order, n.name)
	}
	c.items[n.name] = n
}

func (c *children) delete(name string) {
	if _, ok := c.items[name]; !ok {
		return
	}
	delete(c.items, name)
	for i, v := range c.order {
		if v == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *children) len() int {
	return len(c.order)
}

func (c *children) each(fn func(*node) bool) {
	for _, name := range c.order {
		if !fn(c.items[name]) {
			return
		}
	}
}

func newNode(name string, kind Kind, now time.Time) *node {
	n := &node{name: name, kind: kind, modTime: now}
	if kind == KindDirectory {
		n.mode = defaultDirMode | fs.ModeDir
		n.children = newChildren()
	} else {
		n.mode = defaultFileMode
	}
	return n
}

func (n *node) isDir() bool {
	return n.kind == KindDirectory
}

// clone returns a deep copy of n named name.
func (n *node) clone(name string, now time.Time) *node {
	out := &node{name: name, kind: n.kind, mode: n.mode, modTime: now}
	if n.content != nil {
		out.content = append([]byte(nil), n.content...)
	}
	if n.children != nil {
		out.children = newChildren()
		n.children.each(func(child *node) bool {
			out.children.put(child.clone(child.name, now))
			return true
		})
	}
	return out
}

func (n *node) size() int64 {
	if !n.isDir() {
		return int64(len(n.content))
	}
	var total int64
	n.children.each(func(child *node) bool {
		total += child.size()
		return true
	})
	return total
}

// Info is a read-only snapshot of a node.
type Info struct {
	Name    string      `json:"name"`
	Path    string      `json:"path"`
	Kind    Kind        `json:"-"`
	Mode    fs.FileMode `json:"-"`
	Size    int64       `json:"size"`
	ModTime time.Time   `json:"modTime"`
}

func (i Info) IsDir() bool {
	return i.Kind == KindDirectory
}

func (n *node) info(path string) Info {
	return Info{
		Name:    n.name,
		Path:    path,
		Kind:    n.kind,
		Mode:    n.mode,
		Size:    n.size(),
		ModTime: n.modTime,
	}
}

// TreeNode is the JSON shape served to file-tree views.
type TreeNode struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Path     string      `json:"path"`
	Content  string      `json:"content,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

func (n *node) tree(path string) *TreeNode {
	out := &TreeNode{Name: n.name, Type: n.kind.String(), Path: path}
	if !n.isDir() {
		out.Content = string(n.content)
		return out
	}
	out.Children = make([]*TreeNode, 0, n.children.len())
	n.children.each(func(child *node) bool {
		out.Children = append(out.Children, child.tree(Join(path, child.name)))
		return true
	})
	return out
}

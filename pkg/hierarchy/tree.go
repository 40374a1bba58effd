package hierarchy

import (
	"github.com/l3aro/go-spygen/pkg/registry"
	"github.com/l3aro/go-spygen/pkg/types"
)

// TreeNode is one instance in the elaborated instantiation tree.
type TreeNode struct {
	Module     string      `json:"module" yaml:"module"`
	Alias      string      `json:"alias,omitempty" yaml:"alias,omitempty"`
	Path       string      `json:"path" yaml:"path"`
	Ports      int         `json:"ports" yaml:"ports"`
	Registers  int         `json:"registers" yaml:"registers"`
	Unresolved bool        `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
	Children   []*TreeNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// BuildTree expands the instantiation tree below top with the same rules as
// Flatten: unknown modules become unresolved leaves and a cycle is an error.
func BuildTree(reg *registry.Registry, top *types.ModuleRecord, rootToken string) (*TreeNode, error) {
	b := &treeBuilder{}
	if err := expand(reg, top, rootToken, b); err != nil {
		return nil, err
	}
	return b.root, nil
}

// treeBuilder keeps the nodes of the active path on a stack.
type treeBuilder struct {
	root  *TreeNode
	stack []*TreeNode
}

func (b *treeBuilder) add(node *TreeNode) {
	if len(b.stack) == 0 {
		b.root = node
		return
	}
	parent := b.stack[len(b.stack)-1]
	parent.Children = append(parent.Children, node)
}

func (b *treeBuilder) enter(m *types.ModuleRecord, alias, path string) {
	node := &TreeNode{
		Module:    m.Name,
		Alias:     alias,
		Path:      path,
		Ports:     len(m.Ports),
		Registers: len(m.Registers),
	}
	b.add(node)
	b.stack = append(b.stack, node)
}

func (b *treeBuilder) leave(*types.ModuleRecord) {
	b.stack = b.stack[:len(b.stack)-1]
}

func (b *treeBuilder) unresolved(_ *types.ModuleRecord, inst types.InstanceEdge, path string) {
	b.add(&TreeNode{Module: inst.Module, Alias: inst.Alias, Path: path, Unresolved: true})
}

// Walk visits n and its descendants in pre-order with their depth.
func (n *TreeNode) Walk(fn func(node *TreeNode, depth int)) {
	n.walk(fn, 0)
}

func (n *TreeNode) walk(fn func(*TreeNode, int), depth int) {
	fn(n, depth)
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

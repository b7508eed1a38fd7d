package transform

import (
	"fmt"

	"github.com/JarryShaw/walrus/internal/syntax"
)

// tempPrefix is reserved for generated helper names. User code that
// happens to use a matching identifier only shifts the counter; the
// allocator never reuses a name that appears anywhere in the file.
const tempPrefix = "_walrus_"

// Allocator hands out collision-free helper names. Counters run per
// scope so that the numbering of one function does not depend on how
// many helpers earlier functions needed.
type Allocator struct {
	used     map[string]bool
	counters map[*syntax.Internal]int
}

// NewAllocator records every identifier occurring in the tree, so that
// generated names can never collide with user code anywhere in the
// file.
func NewAllocator(tree *syntax.Tree) *Allocator {
	a := &Allocator{
		used:     make(map[string]bool),
		counters: make(map[*syntax.Internal]int),
	}
	syntax.Walk(tree.Root, func(n syntax.Node) bool {
		if leaf, ok := n.(*syntax.Leaf); ok && leaf.Kind() == syntax.KindName {
			a.used[leaf.Value] = true
		}
		return true
	})
	return a
}

// Reserve returns the next free helper name for the given scope and
// marks it taken for the whole file.
func (a *Allocator) Reserve(scope *syntax.Internal) string {
	n := a.counters[scope]
	for {
		name := fmt.Sprintf("%s%d", tempPrefix, n)
		n++
		if !a.used[name] {
			a.counters[scope] = n
			a.used[name] = true
			return name
		}
	}
}

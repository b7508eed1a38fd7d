package transform

import "github.com/JarryShaw/walrus/internal/syntax"

// Locate returns every assignment expression in the tree in post
// order, so nested occurrences come before the expressions that
// contain them and siblings keep their source order.
func Locate(tree *syntax.Tree) []*syntax.Internal {
	var out []*syntax.Internal
	locate(tree.Root, &out)
	return out
}

func locate(n syntax.Node, out *[]*syntax.Internal) {
	in, ok := n.(*syntax.Internal)
	if !ok {
		return
	}
	for _, ch := range in.Children() {
		locate(ch, out)
	}
	if in.Kind() == syntax.KindNamedExpr {
		*out = append(*out, in)
	}
}

// containsNamedExpr reports whether any assignment expression remains
// in the subtree. After a successful rewrite the node is gone, so a
// leftover one means an inner rewrite was refused.
func containsNamedExpr(n syntax.Node) bool {
	found := false
	syntax.Walk(n, func(node syntax.Node) bool {
		if in, ok := node.(*syntax.Internal); ok && in.Kind() == syntax.KindNamedExpr {
			found = true
			return false
		}
		return !found
	})
	return found
}

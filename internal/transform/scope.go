package transform

import (
	"github.com/JarryShaw/walrus/internal/syntax"
)

// enclosingScope finds the scope the hoisted binding lands in. It
// returns the nearest enclosing function definition and the keyword a
// helper function must use to rebind the name there, or the module
// root with "global" when no function encloses the anchor. Class
// bodies do not count: a binding introduced there is declared global,
// matching how the name would be rebound from a helper defined in the
// class body.
func enclosingScope(anchor syntax.Node, root *syntax.Internal) (*syntax.Internal, string) {
	for p := anchor.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == syntax.KindFuncDef {
			return p, "nonlocal"
		}
	}
	return root, "global"
}

// freeNames collects the identifiers an expression reads. Attribute
// names after a dot and keyword argument names are not reads and are
// skipped; anything else that looks like a name is included, which
// over-approximates harmlessly for nested scopes.
func freeNames(n syntax.Node) map[string]bool {
	out := make(map[string]bool)
	collectFree(n, out)
	return out
}

func collectFree(n syntax.Node, out map[string]bool) {
	switch v := n.(type) {
	case *syntax.Leaf:
		if v.Kind() == syntax.KindName {
			out[v.Value] = true
		}
	case *syntax.Internal:
		kids := v.Children()
		for i, ch := range kids {
			if v.Kind() == syntax.KindTrailer && i > 0 {
				if dot, ok := kids[i-1].(*syntax.Leaf); ok && dot.Value == "." {
					continue
				}
			}
			if v.Kind() == syntax.KindArgument && i == 0 && v.NumChildren() == 3 {
				if eq, ok := kids[1].(*syntax.Leaf); ok && eq.Value == "=" {
					continue
				}
			}
			collectFree(ch, out)
		}
	}
}

// targetNames collects every name bound by an assignment target,
// including tuple and list unpacking.
func targetNames(n syntax.Node) []string {
	var out []string
	syntax.Walk(n, func(node syntax.Node) bool {
		if leaf, ok := node.(*syntax.Leaf); ok && leaf.Kind() == syntax.KindName {
			out = append(out, leaf.Value)
		}
		return true
	})
	return out
}

// lambdaParams lists the parameter names of a lambda expression.
func lambdaParams(lambda *syntax.Internal) []string {
	var out []string
	for _, ch := range lambda.Children() {
		in, ok := ch.(*syntax.Internal)
		if !ok || in.Kind() != syntax.KindParamList {
			continue
		}
		for _, p := range in.Children() {
			switch v := p.(type) {
			case *syntax.Leaf:
				if v.Kind() == syntax.KindName {
					out = append(out, v.Value)
				}
			case *syntax.Internal:
				if v.Kind() == syntax.KindParam {
					if name, ok := v.Child(0).(*syntax.Leaf); ok {
						out = append(out, name.Value)
					}
				}
			}
		}
	}
	return out
}

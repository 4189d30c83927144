package syntax

// BottomUp folds an expression tree from the leaves up.
//
// For every node, Handle is consulted first; when it reports ok the node's
// result is taken as is (Handle decides itself which children to visit via
// the supplied recurse function). Otherwise every child is visited and the
// results are combined with Join.
type BottomUp[R any] struct {
	Handle func(e Exp, recurse func(Exp) R) (R, bool)
	Join   func(e Exp, children []R) R
}

// Visit folds e.
func (b *BottomUp[R]) Visit(e Exp) R {
	if b.Handle != nil {
		if r, ok := b.Handle(e, b.Visit); ok {
			return r
		}
	}

	children := e.Children()
	results := make([]R, len(children))

	for i, c := range children {
		results[i] = b.Visit(c)
	}

	return b.Join(e, results)
}

package syntax

// FreeVars returns the free variables of e in order of first occurrence.
func FreeVars(e Exp) []*Var {
	var out []*Var

	seen := map[string]bool{}

	var walk func(e Exp, bound map[string]int)
	walk = func(e Exp, bound map[string]int) {
		switch n := e.(type) {
		case *Var:
			if bound[n.Name] == 0 && !seen[n.Name] {
				seen[n.Name] = true
				out = append(out, n)
			}

			return
		case *Lambda:
			bound[n.Arg.Name]++
			walk(n.Body, bound)
			bound[n.Arg.Name]--

			return
		}

		for _, c := range e.Children() {
			walk(c, bound)
		}
	}
	walk(e, map[string]int{})

	return out
}

// Size counts the nodes of e.
func Size(e Exp) int {
	n := 1
	for _, c := range e.Children() {
		n += Size(c)
	}

	return n
}

// Subst replaces free occurrences of the named variables. Lambda binders that
// would capture a free variable of a replacement are renamed first.
func Subst(e Exp, m map[string]Exp) Exp {
	if len(m) == 0 {
		return e
	}

	switch n := e.(type) {
	case *Num, *BoolLit, *Str, *EmptyColl:
		return e
	case *Var:
		if r, ok := m[n.Name]; ok {
			return r
		}

		return e
	case *Lambda:
		return substLambda(n, m)
	case *BinOp:
		return &BinOp{Op: n.Op, L: Subst(n.L, m), R: Subst(n.R, m), T: n.T}
	case *UnaryOp:
		return &UnaryOp{Op: n.Op, E: Subst(n.E, m), T: n.T}
	case *Cond:
		return &Cond{If: Subst(n.If, m), Then: Subst(n.Then, m), Else: Subst(n.Else, m)}
	case *Singleton:
		return &Singleton{E: Subst(n.E, m), T: n.T}
	case *Filter:
		return &Filter{E: Subst(n.E, m), P: substLambda(n.P, m)}
	case *Map:
		return &Map{E: Subst(n.E, m), F: substLambda(n.F, m), T: n.T}
	case *FlatMap:
		return &FlatMap{E: Subst(n.E, m), F: substLambda(n.F, m), T: n.T}
	case *ArgMin:
		return &ArgMin{E: Subst(n.E, m), F: substLambda(n.F, m)}
	case *ArgMax:
		return &ArgMax{E: Subst(n.E, m), F: substLambda(n.F, m)}
	case *MakeMap:
		return &MakeMap{E: Subst(n.E, m), Value: substLambda(n.Value, m), T: n.T}
	case *MapGet:
		return &MapGet{Map: Subst(n.Map, m), Key: Subst(n.Key, m)}
	case *DropFront:
		return &DropFront{E: Subst(n.E, m)}
	case *DropBack:
		return &DropBack{E: Subst(n.E, m)}
	case *StateVar:
		return &StateVar{E: Subst(n.E, m)}
	case *Tuple:
		elems := make([]Exp, len(n.Elems))
		for i, x := range n.Elems {
			elems[i] = Subst(x, m)
		}

		return &Tuple{Elems: elems}
	case *TupleGet:
		return &TupleGet{E: Subst(n.E, m), Index: n.Index}
	case *GetField:
		return &GetField{E: Subst(n.E, m), Field: n.Field}
	}

	return e
}

func substLambda(l *Lambda, m map[string]Exp) *Lambda {
	inner := make(map[string]Exp, len(m))
	for k, v := range m {
		if k != l.Arg.Name {
			inner[k] = v
		}
	}

	if len(inner) == 0 {
		return l
	}

	arg := l.Arg
	if capturedBy(arg.Name, inner, l.Body) {
		fresh := FreshVar(arg.T)
		inner[arg.Name] = fresh
		arg = fresh
	}

	return &Lambda{Arg: arg, Body: Subst(l.Body, inner)}
}

// capturedBy reports whether binding name would capture a free variable of a
// replacement that actually lands inside body.
func capturedBy(name string, m map[string]Exp, body Exp) bool {
	free := map[string]bool{}
	for _, v := range FreeVars(body) {
		free[v.Name] = true
	}

	for k, r := range m {
		if !free[k] {
			continue
		}

		for _, v := range FreeVars(r) {
			if v.Name == name {
				return true
			}
		}
	}

	return false
}

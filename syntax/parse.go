package syntax

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Env declares the types of the free variables an expression may mention.
type Env map[string]Type

// Parse reads an expression in s-expression syntax and type-checks it against env.
//
//	(filter xs (lambda x (> x 0)))
//	(get (state (makemap xs (lambda k true))) y)
func Parse(src string, env Env) (Exp, error) {
	r := &reader{src: []rune(src)}

	s, err := r.read()
	if err != nil {
		return nil, err
	}

	r.skipWhitespace()

	if !r.eof() {
		return nil, fmt.Errorf("%w: unexpected trailing input at position %d", ErrInvalidExpression, r.pos+1)
	}

	el := &elaborator{env: env}

	return el.exp(s, nil)
}

// MustParse is Parse for expressions known to be valid; it panics on error.
func MustParse(src string, env Env) Exp {
	e, err := Parse(src, env)
	if err != nil {
		panic(err)
	}

	return e
}

type sexp struct {
	atom   string
	quoted bool
	list   []*sexp
	isList bool
	pos    int
}

type reader struct {
	src []rune
	pos int
}

func (r *reader) eof() bool  { return r.pos >= len(r.src) }
func (r *reader) peek() rune { return r.src[r.pos] }

func (r *reader) skipWhitespace() {
	for !r.eof() && unicode.IsSpace(r.peek()) {
		r.pos++
	}
}

func (r *reader) read() (*sexp, error) {
	r.skipWhitespace()

	if r.eof() {
		return nil, fmt.Errorf("%w: unexpected end of input", ErrInvalidExpression)
	}

	start := r.pos

	switch r.peek() {
	case '(':
		r.pos++

		s := &sexp{isList: true, pos: start}

		for {
			r.skipWhitespace()

			if r.eof() {
				return nil, fmt.Errorf("%w: missing ')' for '(' at position %d", ErrInvalidExpression, start+1)
			}

			if r.peek() == ')' {
				r.pos++
				return s, nil
			}

			child, err := r.read()
			if err != nil {
				return nil, err
			}

			s.list = append(s.list, child)
		}
	case ')':
		return nil, fmt.Errorf("%w: unexpected ')' at position %d", ErrInvalidExpression, start+1)
	case '"':
		return r.readString()
	}

	for !r.eof() && !unicode.IsSpace(r.peek()) && r.peek() != '(' && r.peek() != ')' {
		r.pos++
	}

	return &sexp{atom: string(r.src[start:r.pos]), pos: start}, nil
}

func (r *reader) readString() (*sexp, error) {
	start := r.pos
	r.pos++

	for !r.eof() {
		switch r.peek() {
		case '\\':
			r.pos += 2
			continue
		case '"':
			r.pos++

			v, err := strconv.Unquote(string(r.src[start:r.pos]))
			if err != nil {
				return nil, fmt.Errorf("%w: bad string literal at position %d", ErrInvalidExpression, start+1)
			}

			return &sexp{atom: v, quoted: true, pos: start}, nil
		}

		r.pos++
	}

	return nil, fmt.Errorf("%w: unterminated string at position %d", ErrInvalidExpression, start+1)
}

type scope struct {
	name   string
	v      *Var
	parent *scope
}

func (s *scope) lookup(name string) *Var {
	for ; s != nil; s = s.parent {
		if s.name == name {
			return s.v
		}
	}

	return nil
}

type elaborator struct {
	env Env
}

func errAt(s *sexp, format string, args ...any) error {
	return fmt.Errorf("%w: %s at position %d", ErrInvalidExpression, fmt.Sprintf(format, args...), s.pos+1)
}

func typeErrAt(s *sexp, format string, args ...any) error {
	return fmt.Errorf("%w: %s at position %d", ErrInvalidType, fmt.Sprintf(format, args...), s.pos+1)
}

func (el *elaborator) exp(s *sexp, sc *scope) (Exp, error) {
	if !s.isList {
		return el.atom(s, sc)
	}

	if len(s.list) == 0 || s.list[0].isList || s.list[0].quoted {
		return nil, errAt(s, "expected an operator")
	}

	form := s.list[0].atom
	args := s.list[1:]

	switch form {
	case "+", "-", "*":
		return el.arith(s, Op(form), args, sc)
	case "==", "!=", "<", "<=", ">", ">=":
		return el.compare(s, Op(form), args, sc)
	case "and", "or", "=>":
		return el.logic(s, Op(form), args, sc)
	case "in":
		xs, err := el.list(s, args, 2, sc)
		if err != nil {
			return nil, err
		}

		if !IsCollection(xs[1].Type()) || !SameType(ElemType(xs[1].Type()), xs[0].Type()) {
			return nil, typeErrAt(s, "in: %s is not a collection of %s", xs[1].Type(), xs[0].Type())
		}

		return &BinOp{Op: OpIn, L: xs[0], R: xs[1], T: Bool}, nil
	case "not", "neg", "sum", "distinct", "unique?", "all", "any", "len", "exists", "empty?", "the":
		return el.unary(s, UOp(form), args, sc)
	case "if":
		xs, err := el.list(s, args, 3, sc)
		if err != nil {
			return nil, err
		}

		if !SameType(xs[0].Type(), Bool) || !SameType(xs[1].Type(), xs[2].Type()) {
			return nil, typeErrAt(s, "if: ill-typed branches %s and %s", xs[1].Type(), xs[2].Type())
		}

		return &Cond{If: xs[0], Then: xs[1], Else: xs[2]}, nil
	case "empty":
		if len(args) != 1 || args[0].isList {
			return nil, errAt(s, "empty takes one type")
		}

		t, err := ParseType(args[0].atom)
		if err != nil {
			return nil, err
		}

		if !IsCollection(t) {
			return nil, typeErrAt(s, "empty: %s is not a collection type", t)
		}

		return &EmptyColl{T: t}, nil
	case "singleton":
		xs, err := el.list(s, args, 1, sc)
		if err != nil {
			return nil, err
		}

		return NewSingleton(xs[0]), nil
	case "filter", "map", "flatmap", "argmin", "argmax", "makemap":
		return el.higherOrder(s, form, args, sc)
	case "get":
		xs, err := el.list(s, args, 2, sc)
		if err != nil {
			return nil, err
		}

		m, ok := xs[0].Type().(*TMap)
		if !ok || !SameType(m.Key, xs[1].Type()) {
			return nil, typeErrAt(s, "get: cannot index %s with %s", xs[0].Type(), xs[1].Type())
		}

		return &MapGet{Map: xs[0], Key: xs[1]}, nil
	case "dropfront", "dropback":
		xs, err := el.list(s, args, 1, sc)
		if err != nil {
			return nil, err
		}

		if !IsCollection(xs[0].Type()) {
			return nil, typeErrAt(s, "%s: %s is not a collection", form, xs[0].Type())
		}

		if form == "dropfront" {
			return &DropFront{E: xs[0]}, nil
		}

		return &DropBack{E: xs[0]}, nil
	case "state":
		xs, err := el.list(s, args, 1, sc)
		if err != nil {
			return nil, err
		}

		return &StateVar{E: xs[0]}, nil
	case "tuple":
		xs, err := el.list(s, args, len(args), sc)
		if err != nil {
			return nil, err
		}

		return &Tuple{Elems: xs}, nil
	case "nth":
		if len(args) != 2 || args[1].isList {
			return nil, errAt(s, "nth takes an expression and an index")
		}

		e, err := el.exp(args[0], sc)
		if err != nil {
			return nil, err
		}

		i, err := strconv.Atoi(args[1].atom)
		if err != nil {
			return nil, errAt(args[1], "bad tuple index %q", args[1].atom)
		}

		out := &TupleGet{E: e, Index: i}
		if out.Type() == nil {
			return nil, typeErrAt(s, "nth: %s has no component %d", e.Type(), i)
		}

		return out, nil
	case ".":
		if len(args) != 2 || args[1].isList {
			return nil, errAt(s, ". takes an expression and a field name")
		}

		e, err := el.exp(args[0], sc)
		if err != nil {
			return nil, err
		}

		out := &GetField{E: e, Field: args[1].atom}
		if out.Type() == nil {
			return nil, typeErrAt(s, "%s has no field %q", e.Type(), args[1].atom)
		}

		return out, nil
	case "lambda":
		return nil, errAt(s, "lambda is only allowed as the function argument of a collection operator")
	}

	return nil, errAt(s, "unknown operator %q", form)
}

func (el *elaborator) atom(s *sexp, sc *scope) (Exp, error) {
	if s.quoted {
		return &Str{Val: s.atom}, nil
	}

	switch s.atom {
	case "true":
		return True, nil
	case "false":
		return False, nil
	}

	if n, err := strconv.ParseInt(s.atom, 10, 64); err == nil {
		return NumInt(n), nil
	}

	if v := sc.lookup(s.atom); v != nil {
		return v, nil
	}

	if t, ok := el.env[s.atom]; ok {
		return NewVar(s.atom, t), nil
	}

	return nil, fmt.Errorf("%w: %q at position %d", ErrUnknownVariable, s.atom, s.pos+1)
}

func (el *elaborator) list(s *sexp, args []*sexp, n int, sc *scope) ([]Exp, error) {
	if len(args) != n {
		return nil, errAt(s, "%s takes %d arguments, got %d", s.list[0].atom, n, len(args))
	}

	out := make([]Exp, len(args))

	for i, a := range args {
		e, err := el.exp(a, sc)
		if err != nil {
			return nil, err
		}

		out[i] = e
	}

	return out, nil
}

func (el *elaborator) arith(s *sexp, op Op, args []*sexp, sc *scope) (Exp, error) {
	xs, err := el.list(s, args, 2, sc)
	if err != nil {
		return nil, err
	}

	l, r := xs[0].Type(), xs[1].Type()

	switch {
	case IsNumeric(l) && IsNumeric(r):
		return arith(op, xs[0], xs[1]), nil
	case op != OpMul && IsCollection(l) && SameType(l, r):
		return &BinOp{Op: op, L: xs[0], R: xs[1], T: l}, nil
	}

	return nil, typeErrAt(s, "%s: cannot combine %s and %s", op, l, r)
}

func (el *elaborator) compare(s *sexp, op Op, args []*sexp, sc *scope) (Exp, error) {
	xs, err := el.list(s, args, 2, sc)
	if err != nil {
		return nil, err
	}

	l, r := xs[0].Type(), xs[1].Type()

	if op == OpEq || op == OpNe {
		if !SameType(l, r) && !(IsNumeric(l) && IsNumeric(r)) {
			return nil, typeErrAt(s, "%s: cannot compare %s and %s", op, l, r)
		}
	} else if !IsNumeric(l) || !IsNumeric(r) {
		return nil, typeErrAt(s, "%s: cannot order %s and %s", op, l, r)
	}

	return Compare(xs[0], op, xs[1]), nil
}

func (el *elaborator) logic(s *sexp, op Op, args []*sexp, sc *scope) (Exp, error) {
	if len(args) < 2 || (op == OpImplies && len(args) != 2) {
		return nil, errAt(s, "%s needs at least two arguments", op)
	}

	xs, err := el.list(s, args, len(args), sc)
	if err != nil {
		return nil, err
	}

	for _, x := range xs {
		if !SameType(x.Type(), Bool) {
			return nil, typeErrAt(s, "%s: operand %s is not Bool", op, x)
		}
	}

	out := xs[0]
	for _, x := range xs[1:] {
		out = &BinOp{Op: op, L: out, R: x, T: Bool}
	}

	return out, nil
}

func (el *elaborator) unary(s *sexp, op UOp, args []*sexp, sc *scope) (Exp, error) {
	xs, err := el.list(s, args, 1, sc)
	if err != nil {
		return nil, err
	}

	x := xs[0]
	t := x.Type()

	switch op {
	case UNot:
		if !SameType(t, Bool) {
			return nil, typeErrAt(s, "not: %s is not Bool", t)
		}

		return &UnaryOp{Op: op, E: x, T: Bool}, nil
	case UNeg:
		if !IsNumeric(t) {
			return nil, typeErrAt(s, "neg: %s is not numeric", t)
		}

		return &UnaryOp{Op: op, E: x, T: t}, nil
	}

	if !IsCollection(t) {
		return nil, typeErrAt(s, "%s: %s is not a collection", op, t)
	}

	elem := ElemType(t)

	switch op {
	case USum:
		if !IsNumeric(elem) {
			return nil, typeErrAt(s, "sum: elements of %s are not numeric", t)
		}

		return &UnaryOp{Op: op, E: x, T: elem}, nil
	case UDistinct:
		return &UnaryOp{Op: op, E: x, T: t}, nil
	case UAll, UAny:
		if !SameType(elem, Bool) {
			return nil, typeErrAt(s, "%s: elements of %s are not Bool", op, t)
		}

		return &UnaryOp{Op: op, E: x, T: Bool}, nil
	case ULength:
		return &UnaryOp{Op: op, E: x, T: Int}, nil
	case UThe:
		return &UnaryOp{Op: op, E: x, T: elem}, nil
	}

	return &UnaryOp{Op: op, E: x, T: Bool}, nil
}

func (el *elaborator) higherOrder(s *sexp, form string, args []*sexp, sc *scope) (Exp, error) {
	if len(args) != 2 {
		return nil, errAt(s, "%s takes a collection and a lambda", form)
	}

	src, err := el.exp(args[0], sc)
	if err != nil {
		return nil, err
	}

	if !IsCollection(src.Type()) {
		return nil, typeErrAt(s, "%s: %s is not a collection", form, src.Type())
	}

	f, err := el.lambda(args[1], ElemType(src.Type()), sc)
	if err != nil {
		return nil, err
	}

	body := f.Body.Type()

	switch form {
	case "filter":
		if !SameType(body, Bool) {
			return nil, typeErrAt(s, "filter: predicate returns %s", body)
		}

		return &Filter{E: src, P: f}, nil
	case "map":
		return NewMap(src, f), nil
	case "flatmap":
		if !IsCollection(body) {
			return nil, typeErrAt(s, "flatmap: function returns %s", body)
		}

		return &FlatMap{E: src, F: f, T: WithElem(src.Type(), ElemType(body))}, nil
	case "argmin":
		return &ArgMin{E: src, F: f}, nil
	case "argmax":
		return &ArgMax{E: src, F: f}, nil
	}

	return NewMakeMap(src, f), nil
}

func (el *elaborator) lambda(s *sexp, arg Type, sc *scope) (*Lambda, error) {
	if !s.isList || len(s.list) != 3 || s.list[0].atom != "lambda" || s.list[1].isList {
		return nil, errAt(s, "expected (lambda name body)")
	}

	x := NewVar(s.list[1].atom, arg)

	body, err := el.exp(s.list[2], &scope{name: x.Name, v: x, parent: sc})
	if err != nil {
		return nil, err
	}

	return &Lambda{Arg: x, Body: body}, nil
}

// ParseType reads a type such as Int, Bag<Int>, Map<Int,Bool> or {name:String,age:Int}.
// Unknown names denote opaque native types.
func ParseType(src string) (Type, error) {
	p := &typeParser{src: []rune(src)}

	t, err := p.parse()
	if err != nil {
		return nil, err
	}

	p.skipWhitespace()

	if p.pos < len(p.src) {
		return nil, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidType, string(p.src[p.pos:]), src)
	}

	return t, nil
}

type typeParser struct {
	src []rune
	pos int
}

func (p *typeParser) skipWhitespace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *typeParser) expect(r rune) error {
	p.skipWhitespace()

	if p.pos >= len(p.src) || p.src[p.pos] != r {
		return fmt.Errorf("%w: expected %q at position %d of %q", ErrInvalidType, r, p.pos+1, string(p.src))
	}

	p.pos++

	return nil
}

func (p *typeParser) ident() string {
	p.skipWhitespace()

	start := p.pos
	for p.pos < len(p.src) && (unicode.IsLetter(p.src[p.pos]) || unicode.IsDigit(p.src[p.pos]) || p.src[p.pos] == '_') {
		p.pos++
	}

	return string(p.src[start:p.pos])
}

func (p *typeParser) peekIs(r rune) bool {
	p.skipWhitespace()
	return p.pos < len(p.src) && p.src[p.pos] == r
}

func (p *typeParser) params() ([]Type, error) {
	if err := p.expect('<'); err != nil {
		return nil, err
	}

	var out []Type

	for {
		t, err := p.parse()
		if err != nil {
			return nil, err
		}

		out = append(out, t)

		if p.peekIs(',') {
			p.pos++
			continue
		}

		if err := p.expect('>'); err != nil {
			return nil, err
		}

		return out, nil
	}
}

func (p *typeParser) parse() (Type, error) {
	if p.peekIs('{') {
		p.pos++

		rec := &TRecord{}

		for !p.peekIs('}') {
			name := p.ident()
			if name == "" {
				return nil, fmt.Errorf("%w: expected field name in %q", ErrInvalidType, string(p.src))
			}

			if err := p.expect(':'); err != nil {
				return nil, err
			}

			t, err := p.parse()
			if err != nil {
				return nil, err
			}

			rec.Fields = append(rec.Fields, Field{Name: name, Type: t})

			if p.peekIs(',') {
				p.pos++
			}
		}

		p.pos++

		return rec, nil
	}

	name := p.ident()

	switch strings.ToLower(name) {
	case "":
		return nil, fmt.Errorf("%w: expected a type in %q", ErrInvalidType, string(p.src))
	case "int":
		return Int, nil
	case "bool":
		return Bool, nil
	case "real":
		return Real, nil
	case "string":
		return String, nil
	case "bag", "set", "list", "map", "tuple":
		ps, err := p.params()
		if err != nil {
			return nil, err
		}

		return makeType(strings.ToLower(name), ps, string(p.src))
	}

	return &Prim{Name: name}, nil
}

func makeType(kind string, ps []Type, src string) (Type, error) {
	switch kind {
	case "tuple":
		return &TTuple{Elems: ps}, nil
	case "map":
		if len(ps) != 2 {
			return nil, fmt.Errorf("%w: Map needs two parameters in %q", ErrInvalidType, src)
		}

		return &TMap{Key: ps[0], Value: ps[1]}, nil
	}

	if len(ps) != 1 {
		return nil, fmt.Errorf("%w: %s needs one parameter in %q", ErrInvalidType, kind, src)
	}

	switch kind {
	case "bag":
		return &TBag{Elem: ps[0]}, nil
	case "set":
		return &TSet{Elem: ps[0]}, nil
	}

	return &TList{Elem: ps[0]}, nil
}

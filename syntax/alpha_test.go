package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testEnv = Env{
	"xs": &TBag{Elem: Int},
	"ys": &TBag{Elem: Int},
	"x":  Int,
	"y":  Int,
}

func TestAlphaEquivalent(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{
			name: "renamed binder",
			a:    "(filter xs (lambda a (> a 0)))",
			b:    "(filter xs (lambda b (> b 0)))",
			want: true,
		},
		{
			name: "different free variable",
			a:    "(filter xs (lambda a (> a x)))",
			b:    "(filter xs (lambda a (> a y)))",
			want: false,
		},
		{
			name: "binder shadows free variable",
			a:    "(filter xs (lambda x (> x 0)))",
			b:    "(filter xs (lambda z (> z 0)))",
			want: true,
		},
		{
			name: "different source",
			a:    "(len xs)",
			b:    "(len ys)",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := MustParse(tt.a, testEnv)
			b := MustParse(tt.b, testEnv)
			assert.Equal(t, tt.want, AlphaEquivalent(a, b))
		})
	}
}

func TestFreeVars(t *testing.T) {
	e := MustParse("(+ (len (filter xs (lambda x (> x y)))) x)", testEnv)

	var names []string
	for _, v := range FreeVars(e) {
		names = append(names, v.Name)
	}

	assert.Equal(t, []string{"xs", "y", "x"}, names)
	assert.Equal(t, 9, Size(e))
}

func TestSubstAvoidsCapture(t *testing.T) {
	e := MustParse("(filter xs (lambda x (> x y)))", testEnv)

	got := Subst(e, map[string]Exp{"y": NewVar("x", Int)})

	f, ok := got.(*Filter)
	if !assert.True(t, ok) {
		return
	}

	assert.NotEqual(t, "x", f.P.Arg.Name)
	assert.Equal(t, []string{"xs", "x"}, varNames(FreeVars(got)))
}

func TestLambdaApply(t *testing.T) {
	e := MustParse("(filter xs (lambda z (== z x)))", testEnv)
	f := e.(*Filter)

	got := f.P.Apply(NumInt(3))
	assert.Equal(t, "(== 3 x)", Format(got))
}

func TestBottomUp(t *testing.T) {
	e := MustParse("(+ (len xs) (len (filter ys (lambda a true))))", testEnv)

	lengths := &BottomUp[int]{
		Handle: func(e Exp, _ func(Exp) int) (int, bool) {
			if u, ok := e.(*UnaryOp); ok && u.Op == ULength {
				return 1, true
			}

			return 0, false
		},
		Join: func(_ Exp, children []int) int {
			total := 0
			for _, c := range children {
				total += c
			}

			return total
		},
	}

	assert.Equal(t, 2, lengths.Visit(e))
}

func varNames(vs []*Var) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Name
	}

	return out
}

package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEval(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
	}{
		{name: "arithmetic", input: "(+ (* 3 4) (- 1 2))", want: int64(11)},
		{name: "comparison", input: "(<= (+ 1 1) 2)", want: true},
		{name: "implication", input: "(=> false (< 3 1))", want: true},
		{name: "negation", input: "(neg 5)", want: int64(-5)},
		{name: "conditional", input: "(if (not true) 1 2)", want: int64(2)},
		{name: "conjunction", input: "(and true (!= 1 1))", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := MustParse(tt.input, nil)
			assert.True(t, IsLiteral(e))

			got, err := Eval(e)
			if !assert.NoError(t, err) {
				return
			}

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalRejectsVariables(t *testing.T) {
	e := MustParse("(<= x 1)", testEnv)
	assert.False(t, IsLiteral(e))

	_, err := EvalBool(e)
	assert.ErrorIs(t, err, ErrNotLiteral)
}

func TestFoldConstants(t *testing.T) {
	e := MustParse("(+ (* 2 3) (+ x (- 5 1)))", testEnv)
	assert.Equal(t, "(+ 6 (+ x 4))", Format(FoldConstants(e)))

	lit := MustParse("(* (+ 1 2) 4)", nil)
	assert.Equal(t, "12", Format(FoldConstants(lit)))
}

package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalArithmetic(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "mixed operators", input: "25*4+100/2", want: "150.0"},
		{name: "integer only", input: "2 + 3 * 4", want: "14"},
		{name: "parentheses", input: "(2+3)*4", want: "20"},
		{name: "caret power", input: "2^10", want: "1024"},
		{name: "double star power", input: "2**3", want: "8"},
		{name: "right associative power", input: "2^3^2", want: "512"},
		{name: "unary minus below power", input: "-2^2", want: "-4"},
		{name: "negative base in parens", input: "(-2)^2", want: "4"},
		{name: "decimal", input: "1.5*2", want: "3.0"},
		{name: "division", input: "7/2", want: "3.5"},
		{name: "negative exponent", input: "2^-1", want: "0.5"},
		{name: "integers beyond int64 stay exact", input: "9223372036854775807+1", want: "9223372036854775808"},
		{name: "exact large power", input: "2^100", want: "1267650600228229401496703205376"},
		{name: "exact large product", input: "99999999999*99999999999", want: "9999999999800000000001"},
		{name: "negative large power", input: "(-3)^41", want: "-36472996377170786403"},
		{name: "large integer divided", input: "2^100/2^99", want: "2.0"},
		{name: "minus one power", input: "(-1)^101", want: "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvalArithmetic(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestEvalArithmeticErrors(t *testing.T) {
	_, err := EvalArithmetic("1/0")
	assert.True(t, errors.Is(err, ErrDivisionByZero))

	var syntaxErr *SyntaxError
	for _, input := range []string{"", "2+", "(1+2", "1..2", "2 x", "import os"} {
		_, err := EvalArithmetic(input)
		require.Error(t, err, input)
		assert.True(t, errors.As(err, &syntaxErr), input)
	}

	_, err = EvalArithmetic("(-8)^0.5")
	assert.True(t, errors.Is(err, ErrOutOfRange))

	_, err = EvalArithmetic("9^999999999999")
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "7.0", FormatFloat(7))
	assert.Equal(t, "153.93804002589985", FormatFloat(153.93804002589985))
	assert.Equal(t, "1e+16", FormatFloat(1e16))
	assert.Equal(t, "5e-05", FormatFloat(0.00005))
	assert.Equal(t, "0.0", FormatFloat(0))
}

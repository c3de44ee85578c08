package esiexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver map[string]string

func (f fakeResolver) Value(name string) (string, bool) {
	v, ok := f[name]
	return v, ok
}

func (f fakeResolver) SubValue(name, sub string) (string, bool) {
	v, ok := f[name+"{"+sub+"}"]
	return v, ok
}

func TestEvaluateStringEquality(t *testing.T) {
	r := fakeResolver{"FOO": "'bar'"}
	ok, err := Evaluate(`$(FOO)=='bar'`, r)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Evaluate(`$(FOO)=='foo'`, r)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateUndefinedComparisonIsFalse(t *testing.T) {
	r := fakeResolver{}
	ok, err := Evaluate(`$(MISSING)=='anything'`, r)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateNumericComparison(t *testing.T) {
	r := fakeResolver{"N": "'5'"}
	ok, _ := Evaluate(`$(N) > 3`, r)
	assert.True(t, ok)
	ok, _ = Evaluate(`$(N) < 3`, r)
	assert.False(t, ok)
}

func TestEvaluateLogicalAndOr(t *testing.T) {
	r := fakeResolver{"A": "'1'", "B": "'2'"}
	ok, _ := Evaluate(`$(A)=='1' & $(B)=='2'`, r)
	assert.True(t, ok)
	ok, _ = Evaluate(`$(A)=='1' & $(B)=='3'`, r)
	assert.False(t, ok)
	ok, _ = Evaluate(`$(A)=='9' | $(B)=='2'`, r)
	assert.True(t, ok)
}

func TestEvaluateNegation(t *testing.T) {
	ok, _ := Evaluate(`!false`, nil)
	assert.True(t, ok)
	ok, _ = Evaluate(`!true`, nil)
	assert.False(t, ok)
}

func TestEvaluatePrecedenceComparisonBindsTighterThanLogical(t *testing.T) {
	ok, _ := Evaluate(`1==1 & 2==2`, nil)
	assert.True(t, ok)
}

func TestEvaluateParentheses(t *testing.T) {
	ok, _ := Evaluate(`(1==2) | (3==3)`, nil)
	assert.True(t, ok)
}

func TestEvaluateMismatchedParensIsFalse(t *testing.T) {
	ok, err := Evaluate(`(1==1`, nil)
	assert.False(t, ok)
	require.Error(t, err)
	var perr *ParenError
	require.ErrorAs(t, err, &perr)
}

func TestEvaluateSubValueBooleanLiteral(t *testing.T) {
	r := fakeResolver{"LANGS{en}": "true"}
	ok, _ := Evaluate(`$(LANGS{en})`, r)
	assert.True(t, ok)
}

func TestEvaluateDefaultOnAbsent(t *testing.T) {
	r := fakeResolver{}
	ok, _ := Evaluate(`$(FOO|'fallback')=='fallback'`, r)
	assert.True(t, ok)
}

func TestEvaluateExplicitFalseWithoutDefaultIsUndefined(t *testing.T) {
	// Documented quirk: an explicit "false" sub-value with no default
	// clause is treated as absent, not Boolean(false), so the comparison
	// sees an Undefined operand and evaluates to false either way.
	r := fakeResolver{"FLAG{x}": "false"}
	ok, _ := Evaluate(`$(FLAG{x})==false`, r)
	assert.False(t, ok)
}

func TestEvaluateEmptyStringLiteralDoesNotLex(t *testing.T) {
	// Documented bug preserved verbatim: '' requires at least one char
	// before the closing quote, so it never becomes a string token.
	ok, _ := Evaluate(`''==''`, nil)
	assert.False(t, ok)
}

func TestEvaluateDecimalComparesAsInteger(t *testing.T) {
	r := fakeResolver{"N": "'3.99'"}
	ok, _ := Evaluate(`$(N)==3`, r)
	assert.True(t, ok)
}

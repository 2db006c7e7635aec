// Copyright (c) 2021 Silvano DAL ZILIO
//
// GNU Affero GPL v3

package presburger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAtom(t *testing.T) {
	f, err := Parse([]string{"p1", "p2"}, "p1<=3")
	require.NoError(t, err)
	assert.Equal(t, "(<= p1 3)", f.String())
	k := 2
	assert.Equal(t, "(<= p1@2 3)", f.SMTLib(&k))
}

func TestParseConjunction(t *testing.T) {
	f, err := Parse([]string{"p1", "p2"}, "(p1<=3)/\\(p2>=1)")
	require.NoError(t, err)
	assert.Equal(t, "(and (<= p1 3) (>= p2 1))", f.SMTLib(nil))
}

func TestParseDisjunction(t *testing.T) {
	f, err := Parse([]string{"p1", "p2"}, "(p1=0)\\/(p2=0)")
	require.NoError(t, err)
	assert.Equal(t, "(or (= p1 0) (= p2 0))", f.SMTLib(nil))
}

func TestParseNegation(t *testing.T) {
	f, err := Parse([]string{"p1"}, "-(p1=0)")
	require.NoError(t, err)
	assert.Equal(t, "(not (= p1 0))", f.SMTLib(nil))
}

func TestParseAdditionalVariable(t *testing.T) {
	f, err := Parse([]string{"p1"}, "p1+x<=2")
	require.NoError(t, err)
	require.Equal(t, []string{"x"}, f.Variables)
	assert.Equal(t, "(declare-const x Int)", f.Declare()[0])
	assert.Equal(t, "(<= (+ p1 x) 2)", f.SMTLib(nil))
}

func TestParseMultiplier(t *testing.T) {
	f, err := Parse([]string{"p1"}, "2*p1=4")
	require.NoError(t, err)
	assert.Equal(t, "(= (* p1 2) 4)", f.SMTLib(nil))
}

func TestParseBooleanConstant(t *testing.T) {
	f, err := Parse([]string{"p1"}, "T")
	require.NoError(t, err)
	assert.Equal(t, "true", f.SMTLib(nil))
}

func TestExtractConstraintFound(t *testing.T) {
	r := strings.NewReader("# Constraint: p1<=1\npl p1\n")
	f, err := ExtractConstraint(r, []string{"p1"})
	require.NoError(t, err)
	assert.Equal(t, "(<= p1 1)", f.String())
}

func TestExtractConstraintAbsent(t *testing.T) {
	r := strings.NewReader("pl p1\n")
	f, err := ExtractConstraint(r, []string{"p1"})
	require.NoError(t, err)
	assert.Equal(t, "true", f.SMTLib(nil))
}

func TestFastRendering(t *testing.T) {
	f, err := Parse([]string{"p1", "p2"}, "(p1<=3)/\\(p2>=1)")
	require.NoError(t, err)
	assert.Equal(t, []string{"K_p1", "K_p2"}, f.FastVariables())
	assert.Equal(t, "((K_p1 <= 3) && (K_p2 >= 1))", f.Expr.Fast())
	assert.Equal(t, "(p1 = K_p1) && (p2 = K_p2) && ((K_p1 <= 3) && (K_p2 >= 1))", f.Fast())
}

// Copyright (c) 2021 Silvano DAL ZILIO
//
// GNU Affero GPL v3

package epoly

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleRelation(t *testing.T) {
	r := strings.NewReader("# Relation: p1=q1\npl q1\n")
	e, err := Parse(r, []string{"p1", "p2"}, []string{"q1"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, e.InitialPlaces)
	assert.Equal(t, []string{"q1"}, e.ReducedPlaces)
	assert.Equal(t, "(= p1 q1)", e.Render(nil, nil, nil))
}

func TestRenderIndexesGroupsIndependently(t *testing.T) {
	r := strings.NewReader("# Relation: p1=q1\n")
	e, err := Parse(r, []string{"p1"}, []string{"q1"}, nil, nil)
	require.NoError(t, err)
	k1, k2 := 0, 3
	assert.Equal(t, "(= p1@0 q1@3)", e.Render(&k1, &k2, nil))
}

func TestRenderWithCommonWitness(t *testing.T) {
	r := strings.NewReader("# Relation: (p1=m)/\\(q1=m)\n")
	e, err := Parse(r, []string{"p1"}, []string{"q1"}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"m"}, e.Common)
	kc := 2
	assert.Equal(t, "(and (= p1 m@2) (= q1 m@2))", e.Render(nil, nil, &kc))
}

func TestMissingRelationLineErrors(t *testing.T) {
	r := strings.NewReader("pl p1\n")
	_, err := Parse(r, []string{"p1"}, nil, nil, nil)
	require.Error(t, err)
}

func TestDeclareExcludesGroups(t *testing.T) {
	r := strings.NewReader("# Relation: p1=q1\n")
	e, err := Parse(r, []string{"p1"}, []string{"q1"}, nil, nil)
	require.NoError(t, err)
	k := 0
	vars := e.Declare(DeclareOptions{K1: &k, K2: &k, ExcludeReduced: true})
	assert.Equal(t, []string{"p1@0"}, vars)
}

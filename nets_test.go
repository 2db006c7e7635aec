// Copyright (c) 2021 Silvano DAL ZILIO
//
// GNU Affero GPL v3

package nets

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoNet = `net demo
tr t1 : tau p1 -> p2
tr t2 : 1 p2 -> p3 *2
tr t3 : 2 p3 *2 -> p1
pl p1 (1)
pl p2
pl p3
`

func TestParseCountsPlacesAndTransitions(t *testing.T) {
	net, err := Parse(strings.NewReader(demoNet))
	require.NoError(t, err)
	assert.Equal(t, "demo", net.Name)
	assert.Equal(t, []string{"p1", "p2", "p3"}, net.Pl)
	assert.Equal(t, []string{"t1", "t2", "t3"}, net.Tr)
	assert.Equal(t, []int{Silent, 1, 2}, net.Label)
	assert.Equal(t, []int{0}, net.Silent)
	assert.Equal(t, []int{1, 2}, net.Labeled)
}

func TestSilentRestrictionKeepsOnlyTauTransitions(t *testing.T) {
	net, err := Parse(strings.NewReader(demoNet))
	require.NoError(t, err)
	r := net.SilentRestriction()
	assert.Equal(t, net.Pl, r.Pl)
	assert.Equal(t, []string{"t1"}, r.Tr)
	assert.Equal(t, []int{Silent}, r.Label)
	assert.Equal(t, []int{0}, r.Silent)
}

func TestIndexed(t *testing.T) {
	assert.Equal(t, "p1", Indexed("p1", nil))
	k := 3
	assert.Equal(t, "p1@3", Indexed("p1", &k))
}

func TestMarkingAddAndGet(t *testing.T) {
	var m Marking
	m = m.add(0, 2)
	m = m.add(2, 1)
	m = m.add(0, -2)
	assert.Equal(t, Marking{{Pl: 2, Mult: 1}}, m)
	assert.Equal(t, 1, m.Get(2))
	assert.Equal(t, 0, m.Get(0))
}

func TestAddMarkings(t *testing.T) {
	m1 := Marking{{Pl: 0, Mult: 1}, {Pl: 2, Mult: 3}}
	m2 := Marking{{Pl: 1, Mult: 1}, {Pl: 2, Mult: -3}}
	assert.Equal(t, Marking{{Pl: 0, Mult: 1}, {Pl: 1, Mult: 1}}, Add(m1, m2))
}

func TestTransitionRelationBuildsDisjunctionOverLabeledTransitions(t *testing.T) {
	net, err := Parse(strings.NewReader(demoNet))
	require.NoError(t, err)
	smt := net.TransitionRelation(0, 1, "l", true)
	assert.Contains(t, smt, "(or")
	assert.Contains(t, smt, "(= l 1)")
	assert.Contains(t, smt, "(= l 2)")
	assert.Contains(t, smt, "(= l 0)") // stuttering disjunct
}

func TestSilentTransitionRelationAlwaysIncludesStutter(t *testing.T) {
	net, err := Parse(strings.NewReader(demoNet))
	require.NoError(t, err)
	smt := net.SilentTransitionRelation(0, 1)
	assert.Contains(t, smt, "(= p1@1 p1@0)")
	assert.Contains(t, smt, "(= p2@1 p2@0)")
}

func TestParseErrorUnwraps(t *testing.T) {
	_, err := Parse(strings.NewReader("net n\ntr t1 :\n"))
	require.Error(t, err)
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
}

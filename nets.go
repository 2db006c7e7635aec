// Copyright (c) 2021 Silvano DAL ZILIO
//
// GNU Affero GPL v3

package nets

import "fmt"

// Net is the concrete type of (untimed) Petri nets used throughout this
// tool. Labels on transitions are either silent (the zero value) or a
// positive integer identifying an action; there are no time intervals,
// inhibitor arcs, read arcs or priorities — this specification's Non-goals
// exclude timed semantics and inhibitor arcs from the data model, unlike the
// wider .net dialect the teacher package supported.
//
// A Net is built once by the parser and never mutated afterwards; every
// renderer in this package treats it as read-only.
type Net struct {
	Name string   // Name of the net.
	Pl   []string // List of place names.
	Tr   []string // List of transition names.

	Label []int // Per-transition label: Silent, or a positive integer.

	Pre   []Marking // The firing condition (input weights) for each transition.
	Post  []Marking // The output weights for each transition.
	Delta []Marking // Post - Pre for each transition (places with delta 0 omitted).

	Connected [][]int // Per transition: sorted indices of places in Pre ∪ Post.

	Silent  []int // Transition indices with Label == Silent.
	Labeled []int // Transition indices with Label != Silent.
}

// Silent is the sentinel label value identifying a silent (tau) transition.
// Every labeled transition carries a positive integer, so zero is never
// ambiguous.
const Silent = 0

// Marking is the type of Petri net markings and of the weight vectors
// (Pre/Post/Delta) attached to transitions. It is a set of Atoms (a place
// index and a multiplicity) sorted in increasing order of place index. We
// use negative multiplicities to encode a transition's Delta.
//
// Conventions
//
//	- Items are of the form {key, multiplicity}
//	- Items with weight 0 do not appear in the set (default weight);
//	- Items are ordered in increasing order of keys.
type Marking []Atom

// Atom is a pair of a place index (an index in slice Pl) and a
// multiplicity (we never store places with a null multiplicity).
type Atom struct{ Pl, Mult int }

// add updates a marking by adding the value v with multiplicity k to m.
func (m Marking) add(val int, mul int) Marking {
	if mul == 0 {
		return m
	}
	if m == nil {
		return Marking{Atom{val, mul}}
	}
	for i := range m {
		if m[i].Pl == val {
			m[i].Mult += mul
			if m[i].Mult == 0 {
				return append(m[:i], m[i+1:]...)
			}
			return m
		}
		if m[i].Pl > val {
			return append(m[:i], append(Marking{Atom{val, mul}}, m[i:]...)...)
		}
	}
	return append(m, Atom{val, mul})
}

// Add returns the pointwise sum of m1 and m2.
func Add(m1, m2 Marking) Marking {
	res := []Atom{}
	k1, k2 := 0, 0
	for {
		switch {
		case k1 == len(m1):
			res = append(res, m2[k2:]...)
			return res
		case k2 == len(m2):
			res = append(res, m1[k1:]...)
			return res
		case m1[k1].Pl == m2[k2].Pl:
			if mult := m1[k1].Mult + m2[k2].Mult; mult != 0 {
				res = append(res, Atom{Pl: m1[k1].Pl, Mult: mult})
			}
			k1++
			k2++
		case m1[k1].Pl < m2[k2].Pl:
			res = append(res, m1[k1])
			k1++
		default:
			res = append(res, m2[k2])
			k2++
		}
	}
}

// Get returns the multiplicity associated with place v. The returned value
// is 0 if v does not appear in m.
func (m Marking) Get(v int) int {
	if m == nil {
		return 0
	}
	for _, a := range m {
		if a.Pl == v {
			return a.Mult
		}
		if a.Pl > v {
			return 0
		}
	}
	return 0
}

// PlaceIndex returns the index of place name in net, or -1 if net has no
// such place.
func (net *Net) PlaceIndex(name string) int {
	for i, p := range net.Pl {
		if p == name {
			return i
		}
	}
	return -1
}

// SilentRestriction returns a new Net over the same places as net but
// keeping only its silent transitions. This is the net handed to the
// acceleration driver: the accelerator only ever needs to saturate silent
// transitions (spec §4.1, §4.5).
func (net *Net) SilentRestriction() *Net {
	r := &Net{Name: net.Name, Pl: append([]string(nil), net.Pl...)}
	for newIdx, oldIdx := range net.Silent {
		r.Tr = append(r.Tr, net.Tr[oldIdx])
		r.Label = append(r.Label, Silent)
		r.Pre = append(r.Pre, net.Pre[oldIdx])
		r.Post = append(r.Post, net.Post[oldIdx])
		r.Delta = append(r.Delta, net.Delta[oldIdx])
		r.Connected = append(r.Connected, net.Connected[oldIdx])
		r.Silent = append(r.Silent, newIdx)
	}
	return r
}

// Indexed renders a variable name indexed by a time index k, following the
// "name@k" convention shared by every renderer in this tool. A nil index
// leaves the name free of any index (used for common/auxiliary variables
// that are not attached to a particular time step).
func Indexed(name string, k *int) string {
	if k == nil {
		return name
	}
	return fmt.Sprintf("%s@%d", name, *k)
}

// TransitionRelation builds T(k, k', l): a disjunction asserting that some
// labeled (non-silent) transition is enabled at order k and, by firing,
// reaches order k', with l bound to the fired transition's label. When
// stutter is true a stuttering disjunct is appended (every place unchanged,
// l = 0), as needed when the relation must also allow "no move" at a given
// step. A net with no places degenerates to "true" (or "(= l 0)" once l is
// given).
func (net *Net) TransitionRelation(k, kPrime int, l string, stutter bool) string {
	if len(net.Pl) == 0 {
		if l == "" {
			return "true"
		}
		return fmt.Sprintf("(= %s 0)", l)
	}
	disjuncts := make([]string, 0, len(net.Labeled)+1)
	for _, t := range net.Labeled {
		disjuncts = append(disjuncts, net.transitionSMT(t, k, kPrime, l))
	}
	if stutter {
		disjuncts = append(disjuncts, net.stutterSMT(k, kPrime, l))
	}
	return disjunction(disjuncts)
}

// SilentTransitionRelation builds τ(k, k'): the same construction as
// TransitionRelation, restricted to silent transitions, and always
// including the stuttering disjunct (spec §4.1).
func (net *Net) SilentTransitionRelation(k, kPrime int) string {
	if len(net.Pl) == 0 {
		return "true"
	}
	disjuncts := make([]string, 0, len(net.Silent)+1)
	for _, t := range net.Silent {
		disjuncts = append(disjuncts, net.transitionSMT(t, k, kPrime, ""))
	}
	disjuncts = append(disjuncts, net.stutterSMT(k, kPrime, ""))
	return disjunction(disjuncts)
}

func disjunction(disjuncts []string) string {
	if len(disjuncts) == 1 {
		return disjuncts[0]
	}
	smt := ""
	for _, d := range disjuncts {
		smt += "\n\t" + d
	}
	return fmt.Sprintf("(or%s\n)", smt)
}

// stutterSMT is the "nothing happens" disjunct: every place is unchanged
// between k and k', and (when l is given) the label variable is 0.
func (net *Net) stutterSMT(k, kPrime int, l string) string {
	smt := "(and"
	if l != "" {
		smt += fmt.Sprintf(" (= %s 0)", l)
	}
	for _, p := range net.Pl {
		smt += fmt.Sprintf(" (= %s %s)", Indexed(p, &kPrime), Indexed(p, &k))
	}
	return smt + ")"
}

// transitionSMT is the firing disjunct for a single transition: the firing
// condition on input places, the update on places in its delta, the label
// constraint, and the frame invariant that places outside its Connected set
// stay unchanged.
func (net *Net) transitionSMT(t, k, kPrime int, l string) string {
	smt := "(and"
	if l != "" {
		smt += fmt.Sprintf(" (= %s %d)", l, net.Label[t])
	}
	for _, a := range net.Pre[t] {
		smt += fmt.Sprintf(" (>= %s %d)", Indexed(net.Pl[a.Pl], &k), a.Mult)
	}
	for _, a := range net.Delta[t] {
		op, v := "+", a.Mult
		if v < 0 {
			op, v = "-", -v
		}
		smt += fmt.Sprintf(" (= %s (%s %s %d))", Indexed(net.Pl[a.Pl], &kPrime), op, Indexed(net.Pl[a.Pl], &k), v)
	}
	connected := net.Connected[t]
	ci := 0
	for p := range net.Pl {
		for ci < len(connected) && connected[ci] < p {
			ci++
		}
		if ci < len(connected) && connected[ci] == p {
			continue
		}
		smt += fmt.Sprintf(" (= %s %s)", Indexed(net.Pl[p], &kPrime), Indexed(net.Pl[p], &k))
	}
	return smt + ")"
}

// Copyright (c) 2021 Silvano DAL ZILIO
//
// GNU Affero GPL v3

/*
Package saturate computes and renders saturated silent sequences: a
repeatable block of silent transitions, accelerated into a single
parametric SMT-LIB relation indexed by a saturation variable s (the number
of times the block fires). This is the Go counterpart of the Sequence
class in reductron's ptnet.py, generalized so the acceleration driver in
package accel can build one Sequence per summand returned by the external
fast engine.
*/
package saturate

import (
	"fmt"
	"strings"

	nets "github.com/dalzilio/polyabs"
)

// Sequence is a (possibly empty) repeatable block of silent transitions
// from a single net, together with its hurdle and displacement vectors.
type Sequence struct {
	Net         *nets.Net
	Var         string // saturation variable name, unique per sequence
	Transitions []int  // transition indices, in firing order

	Hurdle map[int]int // place index -> minimal marking required to fire the block once
	Delta  map[int]int // place index -> net marking change per firing of the block
}

// New builds a Sequence and computes its hurdle/displacement vectors by
// folding transitions right to left (compute_vectors in ptnet.py):
//
//	H(t.σ) = max(Pre(t), H(σ) - Δ(t))
//	Δ(t.σ) = Δ(t) + Δ(σ)
func New(net *nets.Net, v string, transitions []int) *Sequence {
	s := &Sequence{
		Net:         net,
		Var:         v,
		Transitions: transitions,
		Hurdle:      map[int]int{},
		Delta:       map[int]int{},
	}
	for i := len(transitions) - 1; i >= 0; i-- {
		t := transitions[i]
		for _, p := range net.Connected[t] {
			pre := net.Pre[t].Get(p)
			delta := net.Delta[t].Get(p)
			if h := s.Hurdle[p] - delta; h > pre {
				pre = h
			}
			s.Hurdle[p] = pre
			s.Delta[p] += delta
		}
	}
	return s
}

func (s *Sequence) String() string {
	if len(s.Transitions) == 0 {
		return "epsilon"
	}
	names := make([]string, len(s.Transitions))
	for i, t := range s.Transitions {
		names[i] = s.Net.Tr[t]
	}
	return "(" + strings.Join(names, " ") + ")*"
}

// Render builds the existentially quantified formula asserting the block
// either does not fire (s = 0, every place unchanged) or fires s > 0
// times, each place crossing its hurdle and moving by s times its
// per-firing delta. An empty sequence (the accelerator found no silent
// cycle) renders "true".
func (s *Sequence) Render(k int) string {
	if len(s.Transitions) == 0 {
		return "true"
	}
	kPrime := k + 1

	var update0, hurdleK, updateK strings.Builder
	for p, name := range s.Net.Pl {
		fmt.Fprintf(&update0, " (= %s %s)", nets.Indexed(name, &kPrime), nets.Indexed(name, &k))

		delta, has := s.Delta[p]
		if has && delta != 0 {
			op, v := "+", delta
			if delta < 0 {
				op, v = "-", -delta
			}
			fmt.Fprintf(&updateK, " (= %s (%s %s (* %s %d)))", nets.Indexed(name, &kPrime), op, nets.Indexed(name, &k), s.Var, v)
		} else {
			fmt.Fprintf(&updateK, " (= %s %s)", nets.Indexed(name, &kPrime), nets.Indexed(name, &k))
		}

		if h, ok := s.Hurdle[p]; ok && h != 0 {
			if d := s.Delta[p]; d >= 0 {
				fmt.Fprintf(&hurdleK, " (>= %s %d)", nets.Indexed(name, &k), h)
			} else {
				fmt.Fprintf(&hurdleK, " (>= %s (+ %d (* (- %s 1) %d)))", nets.Indexed(name, &k), h, s.Var, -d)
			}
		}
	}

	zero := fmt.Sprintf("(and (= %s 0)%s)", s.Var, update0.String())
	nonzero := fmt.Sprintf("(and (> %s 0) (and%s%s))", s.Var, hurdleK.String(), updateK.String())
	body := fmt.Sprintf("(or %s %s)", zero, nonzero)
	return fmt.Sprintf("(exists ((%s Int)) (and (>= %s 0) %s))", s.Var, s.Var, body)
}

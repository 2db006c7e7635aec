// Copyright (c) 2021 Silvano DAL ZILIO
//
// GNU Affero GPL v3

/*
Package obligation builds the five proof obligations that together certify
a polyhedral E-abstraction — Conformance and CORE 0 through CORE 3 — as
closed SMT-LIB formulas, and dispatches them to a long-lived solver.
Every builder is a direct port of the matching function in reductron.py,
generalized to this tool's presburger/epoly/saturate/nets types.

A recurring pattern ties every builder together: the "common" (auxiliary)
variables of an E-relation are never an independent time dimension of
their own. Wherever a builder renders a relation with one marking group
indexed by a concrete step (k, k', or a fresh intermediate step) and the
other group left as an existentially-quantified witness, the common
variables follow whichever group carries the concrete index — the witness
side contributes no index of its own. Most builders pass the matching
k1/k2/common triples directly, as reductron.py does at every call site;
Core2 goes through commonIndex below to pick its primed indices.
*/
package obligation

import (
	"context"
	"fmt"

	"github.com/dalzilio/polyabs/epoly"
	nets "github.com/dalzilio/polyabs"
	"github.com/dalzilio/polyabs/presburger"
	"github.com/dalzilio/polyabs/saturate"
)

// Checker is the subset of *smtsolver.Solver that Run needs: a single
// formula-in, sat/unsat-out call. Tests substitute a fake that inspects the
// formula's shape instead of spawning a real solver process.
type Checker interface {
	CheckSat(ctx context.Context, formula string) (bool, error)
}

// Obligation names one proof obligation, and which net of the pair it was
// checked against (OnReduced selects the direction: false checks N2 is an
// abstraction of N1, true checks the reverse).
type Obligation struct {
	Name      string
	OnReduced bool
}

func ptr(i int) *int { return &i }

// commonIndex picks which of k1, k2 the common/auxiliary variable group
// follows: k1 (the initial net's index) when onReduced is false, k2
// otherwise. See the package doc comment.
func commonIndex(onReduced bool, k1, k2 *int) *int {
	if onReduced {
		return k2
	}
	return k1
}

// smtTauStar renders tau*(k, k'): "exists p2. E(p1, p2) /\ E(p1', p2)"
// (or its mirror image when onReduced is true), plus an explicit equality
// pinning any place shared between the two nets across both steps.
func smtTauStar(e *epoly.Polyhedron, k, kPrime int, onReduced bool) string {
	decl := e.Declare(epoly.DeclareOptions{ExcludeInitial: !onReduced, ExcludeReduced: onReduced})

	var first, second string
	if !onReduced {
		first = e.Render(&k, nil, &k)
		second = e.Render(&kPrime, nil, &kPrime)
	} else {
		first = e.Render(nil, &k, &k)
		second = e.Render(nil, &kPrime, &kPrime)
	}

	conjuncts := []string{first, second}
	for _, pl := range e.Shared() {
		conjuncts = append(conjuncts, fmt.Sprintf("(= %s %s)", nets.Indexed(pl, &k), nets.Indexed(pl, &kPrime)))
	}
	return smtExists(decl, smtAnd(conjuncts))
}

// smtCoherentT renders T^(k, k'): "exists p1''. tau*(p1, p1'') /\ T(p1'', p1')",
// n1 being the net the transition relation T is taken over. The
// intermediate step k+k'+1 is strictly greater than both k and k', so it
// never collides with either endpoint; it may equal an index used elsewhere
// in the obligation (Core0's call with k=0, k'=1 gives 2, Core0's hiatus
// step), and the existential below binds it locally.
func smtCoherentT(n1 *nets.Net, e *epoly.Polyhedron, k, kPrime int, l string, onReduced bool) string {
	kIntermediate := k + kPrime + 1
	decl := e.Declare(epoly.DeclareOptions{
		K1: ptr(kIntermediate), K2: ptr(kIntermediate), KCommon: ptr(kIntermediate),
		ExcludeInitial: onReduced, ExcludeReduced: !onReduced,
	})
	body := smtAnd([]string{
		smtTauStar(e, k, kIntermediate, onReduced),
		n1.TransitionRelation(kIntermediate, kPrime, l, false),
	})
	return smtExists(decl, body)
}

// smtHatT renders T^(k, k'): "exists p1''. T^(p1, p1'') /\ tau*(p1'', p1')",
// the mirror composition of smtCoherentT.
func smtHatT(n1 *nets.Net, e *epoly.Polyhedron, k, kPrime int, l string, onReduced bool) string {
	kIntermediate := k + kPrime + 1
	decl := e.Declare(epoly.DeclareOptions{
		K1: ptr(kIntermediate), K2: ptr(kIntermediate), KCommon: ptr(kIntermediate),
		ExcludeInitial: onReduced, ExcludeReduced: !onReduced,
	})
	body := smtAnd([]string{
		smtCoherentT(n1, e, k, kIntermediate, l, onReduced),
		smtTauStar(e, kIntermediate, kPrime, onReduced),
	})
	return smtExists(decl, body)
}

// smtParametric closes a formula under C1's and C2's additional variables:
// "forall <c1 vars> <c2 vars>. f".
func smtParametric(f string, c1, c2 *presburger.Formula) string {
	decl := append(append([]string{}, c1.Variables...), c2.Variables...)
	return smtForall(decl, f)
}

// Conformance builds the formula asserting that N1's silent reachability
// set, as computed by tauStar, coincides with the E-polyhedron restricted
// by C2 (or the mirror statement when onReduced is true). tauStar must be
// non-empty: a net with no saturated sequence trivially conforms, and
// Run short-circuits that case without calling the solver at all — the
// same optimization reductron.py's check_silent_reachability_set applies.
func Conformance(c1 *presburger.Formula, e *epoly.Polyhedron, c2 *presburger.Formula, tauStar []*saturate.Sequence, onReduced bool) string {
	kMax := len(tauStar)

	f5 := make([]string, kMax)
	for idx, seq := range tauStar {
		f5[idx] = seq.Render(idx)
	}

	var innerDecl []string
	for k := 1; k < kMax; k++ {
		innerDecl = append(innerDecl, e.Declare(epoly.DeclareOptions{
			K1: ptr(k), K2: ptr(k), KCommon: ptr(k),
			ExcludeInitial: onReduced, ExcludeReduced: !onReduced,
		})...)
	}
	f4 := smtExists(innerDecl, smtAnd(f5))

	zero, max := 0, kMax
	f3 := smtTauStar(e, zero, max, onReduced)
	f2 := smtEquiv(f3, f4)
	f1 := smtImply(c1.SMTLib(&zero), f2)

	decl := append(
		e.Declare(epoly.DeclareOptions{K1: &zero, K2: &zero, KCommon: &zero, ExcludeInitial: onReduced, ExcludeReduced: !onReduced}),
		e.Declare(epoly.DeclareOptions{K1: &max, K2: &max, KCommon: &max, ExcludeInitial: onReduced, ExcludeReduced: !onReduced})...,
	)
	f := smtForall(decl, f1)
	return smtParametric(f, c1, c2)
}

// Core0 builds CORE 0: every C1-coherent transition out of a C1 state can
// be matched, up to a silent hiatus on either side, by a transition
// reaching a C1 state.
func Core0(n1 *nets.Net, c1 *presburger.Formula, e *epoly.Polyhedron, c2 *presburger.Formula, onReduced bool) string {
	const l = "l"
	k, kPrime, kHiatus := 0, 1, 2

	f4 := smtAnd([]string{
		smtCoherentT(n1, e, k, kHiatus, l, onReduced),
		c1.SMTLib(&kHiatus),
		smtTauStar(e, kHiatus, kPrime, onReduced),
	})
	f3 := smtExists(e.Declare(epoly.DeclareOptions{
		K1: &kHiatus, K2: &kHiatus, KCommon: &kHiatus,
		ExcludeInitial: onReduced, ExcludeReduced: !onReduced,
	}), f4)
	f2 := smtAnd([]string{c1.SMTLib(&k), smtCoherentT(n1, e, k, kPrime, l, onReduced)})
	f1 := smtImply(f2, f3)

	decl := append(
		e.Declare(epoly.DeclareOptions{K1: &k, K2: &k, KCommon: &k, ExcludeInitial: onReduced, ExcludeReduced: !onReduced}),
		e.Declare(epoly.DeclareOptions{K1: &kPrime, K2: &kPrime, KCommon: &kPrime, ExcludeInitial: onReduced, ExcludeReduced: !onReduced})...,
	)
	decl = append(decl, l)
	f := smtForall(decl, f1)
	return smtParametric(f, c1, c2)
}

// Core1 builds CORE 1: every C1 state has an E-related C2 state.
func Core1(c1 *presburger.Formula, e *epoly.Polyhedron, c2 *presburger.Formula, onReduced bool) string {
	f4 := smtAnd([]string{e.Render(nil, nil, nil), c2.SMTLib(nil)})
	f3 := smtExists(e.Declare(epoly.DeclareOptions{ExcludeInitial: !onReduced, ExcludeReduced: onReduced}), f4)
	f2 := c1.SMTLib(nil)
	f1 := smtImply(f2, f3)
	f := smtForall(e.Declare(epoly.DeclareOptions{ExcludeInitial: onReduced, ExcludeReduced: !onReduced}), f1)
	return smtParametric(f, c1, c2)
}

// Core2 builds CORE 2: E is preserved by a silent step on the "primary"
// net (N1 when onReduced is false, N2 when true).
func Core2(n1 *nets.Net, c1 *presburger.Formula, e *epoly.Polyhedron, c2 *presburger.Formula, onReduced bool) string {
	k, kPrime := 0, 1
	k1Prime := commonIndex(onReduced, &kPrime, &k)
	k2Prime := commonIndex(onReduced, &k, &kPrime)

	f3 := e.Render(k1Prime, k2Prime, &kPrime)
	f2 := smtAnd([]string{e.Render(&k, &k, &k), n1.SilentTransitionRelation(k, kPrime)})
	f1 := smtImply(f2, f3)

	decl := append(
		e.Declare(epoly.DeclareOptions{K1: &k, K2: &k, KCommon: &k}),
		e.Declare(epoly.DeclareOptions{K1: &kPrime, K2: &kPrime, KCommon: &kPrime, ExcludeInitial: onReduced, ExcludeReduced: !onReduced})...,
	)
	f := smtForall(decl, f1)
	return smtParametric(f, c1, c2)
}

// Core3 builds CORE 3: E-related states reached by matching T^ steps
// agree on the firing label, in both nets.
func Core3(n1 *nets.Net, c1 *presburger.Formula, e *epoly.Polyhedron, n2 *nets.Net, c2 *presburger.Formula, onReduced bool) string {
	const l = "l"
	k, kPrime := 0, 1

	f2 := smtHatT(n2, e, k, kPrime, l, !onReduced)
	f1 := smtAnd([]string{
		c1.SMTLib(&k), c2.SMTLib(&k), e.Render(&k, &k, &k),
		smtHatT(n1, e, k, kPrime, l, onReduced),
		e.Render(&kPrime, &kPrime, &kPrime),
	})
	decl := append(
		e.Declare(epoly.DeclareOptions{K1: &k, K2: &k, KCommon: &k}),
		e.Declare(epoly.DeclareOptions{K1: &kPrime, K2: &kPrime, KCommon: &kPrime})...,
	)
	decl = append(decl, l)
	f := smtForall(decl, smtImply(f1, f2))
	return smtParametric(f, c1, c2)
}

// Verdict is the outcome of checking one Obligation.
type Verdict struct {
	Obligation
	Holds bool
}

// Report collects every Verdict produced by Run, in the order
// reductron.py's main prints them: Conformance both directions, then
// CORE 0-3 both directions.
type Report struct {
	Verdicts []Verdict
}

// Holds reports whether every obligation in the report held.
func (r Report) Holds() bool {
	for _, v := range r.Verdicts {
		if !v.Holds {
			return false
		}
	}
	return true
}

// Run checks Conformance and CORE 0-3 in both directions (N2 abstracts N1,
// then N1 abstracts N2) against solver, returning one Verdict per check.
func Run(ctx context.Context, solver Checker, n1, n2 *nets.Net, c1, c2 *presburger.Formula, e *epoly.Polyhedron, tau1, tau2 []*saturate.Sequence) (Report, error) {
	var report Report

	checkFormula := func(name string, onReduced bool, formula string) error {
		holds, err := solver.CheckSat(ctx, formula)
		if err != nil {
			return fmt.Errorf("obligation %s (on-reduced=%v): %w", name, onReduced, err)
		}
		report.Verdicts = append(report.Verdicts, Verdict{Obligation{name, onReduced}, holds})
		return nil
	}

	checkConformance := func(onReduced bool, c1, c2 *presburger.Formula, tauStar []*saturate.Sequence) error {
		if len(tauStar) == 0 {
			report.Verdicts = append(report.Verdicts, Verdict{Obligation{"Conformance", onReduced}, true})
			return nil
		}
		return checkFormula("Conformance", onReduced, Conformance(c1, e, c2, tauStar, onReduced))
	}

	if err := checkConformance(false, c1, c2, tau1); err != nil {
		return report, err
	}
	if err := checkConformance(true, c2, c1, tau2); err != nil {
		return report, err
	}

	core := []struct {
		name string
		fn   func(onReduced bool) string
	}{
		{"CORE 0", func(onReduced bool) string {
			if !onReduced {
				return Core0(n1, c1, e, c2, onReduced)
			}
			return Core0(n2, c2, e, c1, onReduced)
		}},
		{"CORE 1", func(onReduced bool) string {
			if !onReduced {
				return Core1(c1, e, c2, onReduced)
			}
			return Core1(c2, e, c1, onReduced)
		}},
		{"CORE 2", func(onReduced bool) string {
			if !onReduced {
				return Core2(n1, c1, e, c2, onReduced)
			}
			return Core2(n2, c2, e, c1, onReduced)
		}},
		{"CORE 3", func(onReduced bool) string {
			if !onReduced {
				return Core3(n1, c1, e, n2, c2, onReduced)
			}
			return Core3(n2, c2, e, n1, c1, onReduced)
		}},
	}

	for _, onReduced := range []bool{false, true} {
		for _, ob := range core {
			if err := checkFormula(ob.name, onReduced, ob.fn(onReduced)); err != nil {
				return report, err
			}
		}
	}

	return report, nil
}

// Copyright (c) 2021 Silvano DAL ZILIO
//
// GNU Affero GPL v3

/*
Package epoly defines the E-polyhedron: the Presburger relation linking
the markings of an initial net to the markings of its candidate
abstraction, plus whatever common/auxiliary witness variables the relation
needs. Every proof obligation in package obligation is ultimately a
quantified statement built around this relation.

An E-polyhedron partitions its variables into three disjoint groups —
initial-net places, reduced-net places, and common/auxiliary variables —
and every rendering method lets a caller index each group independently
(or leave a group unindexed entirely), since obligations compare the
relation at different time steps on each side.
*/
package epoly

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	nets "github.com/dalzilio/polyabs"
	"github.com/dalzilio/polyabs/presburger"
)

// Polyhedron is a parsed E-relation together with the classification of
// its variables into the three groups described above.
type Polyhedron struct {
	InitialPlaces []string // places of the initial net referenced by Expr
	ReducedPlaces []string // places of the reduced net referenced by Expr
	Common        []string // auxiliary/common variables referenced by Expr (c1/c2's additional vars first, then the relation's own witnesses)

	initial map[string]bool
	reduced map[string]bool

	Expr presburger.Expr
}

// relationMarker is the comment prefix introducing the E-relation in a
// reduced net file, following the same convention as
// presburger.ExtractConstraint's "# Constraint:" marker.
const relationMarker = "# Relation:"

// Parse extracts the E-relation from a reduced net file and builds a
// Polyhedron over it. initialPlaces and reducedPlaces name the places of
// the two nets being compared; c1Vars and c2Vars are the additional
// (non-place) variables already known from each side's coherency
// constraint, and only decide the order of Common. Every identifier of the
// relation that is not a place of either net becomes a common variable,
// a misspelt place name included.
func Parse(r io.Reader, initialPlaces, reducedPlaces, c1Vars, c2Vars []string) (*Polyhedron, error) {
	scanner := bufio.NewScanner(r)
	var text string
	found := false
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, relationMarker); idx >= 0 {
			text = strings.TrimSpace(line[idx+len(relationMarker):])
			found = true
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("no %q line found in reduced net file", relationMarker)
	}

	allPlaces := append(append([]string{}, initialPlaces...), reducedPlaces...)
	formula, err := presburger.Parse(allPlaces, text)
	if err != nil {
		return nil, fmt.Errorf("parsing E-relation: %s", err)
	}

	e := &Polyhedron{
		initial: toSet(initialPlaces),
		reduced: toSet(reducedPlaces),
		Expr:    formula.Expr,
	}
	// The relation's own witnesses may coincide with the additional
	// variables already known from C1/C2 (spec §4.3): listing those first
	// keeps Common in a stable order matching the order the obligations
	// declare C1/C2's additional variables in.
	seen := map[string]bool{}
	addCommon := func(v string) {
		if seen[v] {
			return
		}
		seen[v] = true
		e.Common = append(e.Common, v)
	}
	known := toSet(formula.Variables)
	for _, v := range c1Vars {
		if known[v] {
			addCommon(v)
		}
	}
	for _, v := range c2Vars {
		if known[v] {
			addCommon(v)
		}
	}
	for _, v := range formula.Variables {
		addCommon(v)
	}
	for _, p := range initialPlaces {
		if usesPlace(formula.Expr, p) {
			e.InitialPlaces = append(e.InitialPlaces, p)
		}
	}
	for _, p := range reducedPlaces {
		if usesPlace(formula.Expr, p) {
			e.ReducedPlaces = append(e.ReducedPlaces, p)
		}
	}
	return e, nil
}

func toSet(s []string) map[string]bool {
	m := make(map[string]bool, len(s))
	for _, v := range s {
		m[v] = true
	}
	return m
}

// usesPlace reports whether name appears as a place operand anywhere in
// expr.
func usesPlace(expr presburger.Expr, name string) bool {
	switch e := expr.(type) {
	case presburger.BoolConst:
		return false
	case *presburger.StateFormula:
		for _, o := range e.Operands {
			if usesPlace(o, name) {
				return true
			}
		}
		return false
	case *presburger.Atom:
		return usesSum(e.Left, name) || usesSum(e.Right, name)
	}
	return false
}

func usesSum(s presburger.Sum, name string) bool {
	tc, ok := s.(*presburger.TokenCount)
	if !ok {
		return false
	}
	for _, p := range tc.Places {
		if p == name {
			return true
		}
	}
	return false
}

// DeclareOptions controls which variable groups Declare emits, and at
// which time index each included group is rendered.
type DeclareOptions struct {
	K1, K2, KCommon *int
	ExcludeInitial  bool
	ExcludeReduced  bool
}

// Shared returns the places appearing, under the same name, in both the
// initial and the reduced net — e.g. when the abstraction keeps some
// places unchanged. Obligations use this to pin those places equal across
// two time steps when reasoning about tau* (spec §4.7).
func (e *Polyhedron) Shared() []string {
	var shared []string
	for _, p := range e.InitialPlaces {
		if e.reduced[p] {
			shared = append(shared, p)
		}
	}
	return shared
}

// Declare returns the (possibly indexed) variable names Render will leave
// free for the given options, suitable as the bound-variable list of an
// SMT-LIB quantifier.
func (e *Polyhedron) Declare(opts DeclareOptions) []string {
	var vars []string
	if !opts.ExcludeInitial {
		for _, p := range e.InitialPlaces {
			vars = append(vars, nets.Indexed(p, opts.K1))
		}
	}
	if !opts.ExcludeReduced {
		for _, p := range e.ReducedPlaces {
			vars = append(vars, nets.Indexed(p, opts.K2))
		}
	}
	for _, v := range e.Common {
		vars = append(vars, nets.Indexed(v, opts.KCommon))
	}
	return vars
}

// Render renders the E-relation as SMT-LIB text, indexing initial-net
// places by k1, reduced-net places by k2, and common/auxiliary variables
// by kcommon. A nil index leaves the corresponding group unindexed.
func (e *Polyhedron) Render(k1, k2, kcommon *int) string {
	return e.renderExpr(e.Expr, k1, k2, kcommon)
}

func (e *Polyhedron) renderExpr(expr presburger.Expr, k1, k2, kcommon *int) string {
	switch v := expr.(type) {
	case presburger.BoolConst:
		return v.SMTLib(nil)
	case *presburger.StateFormula:
		parts := make([]string, len(v.Operands))
		for i, o := range v.Operands {
			parts[i] = e.renderExpr(o, k1, k2, kcommon)
		}
		input := strings.Join(parts, " ")
		if len(v.Operands) > 1 || v.Operator == "not" {
			input = fmt.Sprintf("(%s %s)", v.Operator, input)
		}
		return input
	case *presburger.Atom:
		return fmt.Sprintf("(%s %s %s)", v.Operator, e.renderSum(v.Left, k1, k2, kcommon), e.renderSum(v.Right, k1, k2, kcommon))
	}
	panic(fmt.Sprintf("epoly: unexpected node %T in E-relation", expr))
}

func (e *Polyhedron) renderSum(s presburger.Sum, k1, k2, kcommon *int) string {
	switch v := s.(type) {
	case presburger.IntConst:
		return v.SMTLib(nil)
	case *presburger.TokenCount:
		var terms []string
		for _, name := range append(append([]string{}, v.Places...), v.Variables...) {
			terms = append(terms, e.renderTerm(v, name, k1, k2, kcommon))
		}
		input := strings.Join(terms, " ")
		if len(terms) > 1 {
			input = "(+ " + input + ")"
		}
		return input
	}
	panic(fmt.Sprintf("epoly: unexpected sum node %T in E-relation", s))
}

func (e *Polyhedron) renderTerm(tc *presburger.TokenCount, name string, k1, k2, kcommon *int) string {
	var rendered string
	switch {
	case e.initial[name]:
		rendered = nets.Indexed(name, k1)
	case e.reduced[name]:
		rendered = nets.Indexed(name, k2)
	default:
		rendered = nets.Indexed(name, kcommon)
	}
	if m, ok := tc.Multipliers[name]; ok {
		return fmt.Sprintf("(* %s %d)", rendered, m)
	}
	return rendered
}

// Copyright (c) 2021 Silvano DAL ZILIO
//
// GNU Affero GPL v3

/*
Package presburger defines a small Presburger-arithmetic formula language
used to describe coherency constraints on Petri net markings: the
conditions a state must satisfy to be considered valid when checking the
proof obligations in package obligation.

A formula is built over atoms comparing two linear sums of place and
auxiliary variables, combined with "and", "or" and "not". The grammar
mirrors the one accepted by the Tina toolbox for state formulas, which lets
us reuse the same text directly from a net file's "# Constraint:" comment
(see ExtractConstraint).
*/
package presburger

import (
	"fmt"
	"strings"

	nets "github.com/dalzilio/polyabs"
)

// Expr is the common interface of every node in a Presburger formula. It
// is a tagged union: every concrete type below pins itself to this
// interface with the unexported isExpr method, in the style of an AST node
// hierarchy.
type Expr interface {
	isExpr()
	String() string
	// SMTLib renders the node as SMT-LIB text. When k is non-nil, every
	// place variable is indexed as "name@k" (see nets.Indexed); additional
	// (non-place) variables are never indexed.
	SMTLib(k *int) string
	// Fast renders the node in the FAST accelerator's expression dialect:
	// "&&"/"||"/"!" connectives and places referenced through their bound
	// "K_<place>" constant (spec §4.5).
	Fast() string
}

// Formula is a parsed coherency constraint together with the extra
// variables (outside of the net's places) it introduces.
type Formula struct {
	Places    []string // places known to the formula, for membership tests while parsing
	Variables []string // additional variables referenced by the formula, in order of first use
	Expr      Expr     // root of the parsed formula; a BoolConst(true) when the net file has no constraint (see ExtractConstraint)
}

// SMTLib renders the formula's root expression as an SMT-LIB term, with
// places indexed by k (nil for unindexed).
func (f *Formula) SMTLib(k *int) string {
	return f.Expr.SMTLib(k)
}

// Fast renders the formula for the FAST accelerator (spec §4.5): each
// known place is bound to its "K_<place>" constant before the formula
// itself is asserted, since FAST regions compare a symbolic marking
// against named constants rather than indexed variables.
func (f *Formula) Fast() string {
	bindings := make([]string, len(f.Places))
	for i, p := range f.Places {
		bindings[i] = fmt.Sprintf("(%s = K_%s)", p, p)
	}
	return strings.Join(bindings, " && ") + " && " + f.Expr.Fast()
}

// FastVariables lists the "K_<place>" constants Fast's rendering refers
// to, in place order, for appending to a FAST model's "var" line.
func (f *Formula) FastVariables() []string {
	vars := make([]string, len(f.Places))
	for i, p := range f.Places {
		vars[i] = "K_" + p
	}
	return vars
}

// Declare returns "(declare-const ...)" commands for the formula's
// additional variables. Additional variables are never indexed by a time
// step: they are the common/auxiliary variables shared across an
// obligation (spec §4.2, §4.3).
func (f *Formula) Declare() []string {
	decls := make([]string, len(f.Variables))
	for i, v := range f.Variables {
		decls[i] = fmt.Sprintf("(declare-const %s Int)", v)
	}
	return decls
}

func (f *Formula) String() string { return f.Expr.String() }

// BoolConst is a literal Boolean ("T" or "F" in the Tina syntax).
type BoolConst bool

func (BoolConst) isExpr() {}

func (b BoolConst) String() string { return fmt.Sprintf("%v", bool(b)) }

// SMTLib renders the constant as SMT-LIB's "true"/"false".
func (b BoolConst) SMTLib(_ *int) string {
	if b {
		return "true"
	}
	return "false"
}

// Fast renders the constant in FAST's boolean literal syntax.
func (b BoolConst) Fast() string {
	if b {
		return "true"
	}
	return "false"
}

// StateFormula is a Boolean combination of sub-formulas: "not" takes
// exactly one operand, "and"/"or" take two or more.
type StateFormula struct {
	Operator string // "not", "and" or "or"
	Operands []Expr
}

func (*StateFormula) isExpr() {}

func (s *StateFormula) String() string {
	if s.Operator == "not" {
		return fmt.Sprintf("(not %s)", s.Operands[0])
	}
	parts := make([]string, len(s.Operands))
	for i, o := range s.Operands {
		parts[i] = o.String()
	}
	text := strings.Join(parts, " "+s.Operator+" ")
	if len(s.Operands) > 1 {
		text = "(" + text + ")"
	}
	return text
}

// SMTLib renders the combination with the matching SMT-LIB connective
// ("and", "or", "not").
func (s *StateFormula) SMTLib(k *int) string {
	parts := make([]string, len(s.Operands))
	for i, o := range s.Operands {
		parts[i] = o.SMTLib(k)
	}
	input := strings.Join(parts, " ")
	if len(s.Operands) > 1 || s.Operator == "not" {
		input = fmt.Sprintf("(%s %s)", s.Operator, input)
	}
	return input
}

// fastOperators maps a StateFormula's Boolean operator onto FAST's infix
// connective.
var fastOperators = map[string]string{"and": "&&", "or": "||", "not": "!"}

// Fast renders the combination using FAST's "&&"/"||"/"!" connectives.
func (s *StateFormula) Fast() string {
	parts := make([]string, len(s.Operands))
	for i, o := range s.Operands {
		parts[i] = o.Fast()
	}
	input := strings.Join(parts, fmt.Sprintf(" %s ", fastOperators[s.Operator]))
	if len(s.Operands) > 1 || s.Operator == "not" {
		input = "(" + input + ")"
	}
	if s.Operator == "not" {
		input = "! " + input
	}
	return input
}

// compOperators lists the comparison operators an Atom may carry. The
// parser in parse.go recognizes them through its own comparisonRegexp, not
// through this list.
var compOperators = []string{"<=", ">=", "distinct", "<", ">", "="}

// Atom is an atomic constraint comparing two linear sums with a relational
// operator.
type Atom struct {
	Left, Right Sum
	Operator    string // one of "=", "<=", ">=", "<", ">", "distinct"
}

func (*Atom) isExpr() {}

func (a *Atom) String() string {
	return fmt.Sprintf("(%s %s %s)", a.Operator, a.Left, a.Right)
}

// SMTLib renders the atom as "(op left right)". SMT-LIB has no "distinct"
// infix outside its n-ary form, but the binary form used here is valid
// SMT-LIB syntax for every solver this tool targets.
func (a *Atom) SMTLib(k *int) string {
	return fmt.Sprintf("(%s %s %s)", a.Operator, a.Left.SMTLib(k), a.Right.SMTLib(k))
}

// Fast renders the atom in infix form, FAST's own atom syntax.
func (a *Atom) Fast() string {
	return fmt.Sprintf("(%s %s %s)", a.Left.Fast(), a.Operator, a.Right.Fast())
}

// Sum is the interface for the two kinds of linear expressions that can
// appear on either side of an Atom: a TokenCount or an IntConst.
type Sum interface {
	isExpr()
	String() string
	SMTLib(k *int) string
	Fast() string
}

// TokenCount is a linear sum of place and additional variables, each with
// an optional integer multiplier (missing means 1).
type TokenCount struct {
	Places      []string // place names, restricted to those in the surrounding Formula
	Variables   []string // additional (non-place) variable names
	Multipliers map[string]int
}

func (*TokenCount) isExpr() {}

func (t *TokenCount) String() string {
	names := append(append([]string{}, t.Places...), t.Variables...)
	parts := make([]string, len(names))
	for i, n := range names {
		if m, ok := t.Multipliers[n]; ok {
			parts[i] = fmt.Sprintf("(%d.%s)", m, n)
		} else {
			parts[i] = n
		}
	}
	text := strings.Join(parts, " + ")
	if len(names) > 1 {
		text = "(" + text + ")"
	}
	return text
}

// SMTLib renders the sum as an SMT-LIB arithmetic term, indexing place
// variables by k and leaving additional variables free.
func (t *TokenCount) SMTLib(k *int) string {
	terms := []string{}
	for _, p := range t.Places {
		terms = append(terms, t.termSMTLib(p, nets.Indexed(p, k)))
	}
	for _, v := range t.Variables {
		terms = append(terms, t.termSMTLib(v, v))
	}
	input := strings.Join(terms, " ")
	if len(terms) > 1 {
		input = "(+ " + input + ")"
	}
	return input
}

func (t *TokenCount) termSMTLib(name, rendered string) string {
	if m, ok := t.Multipliers[name]; ok {
		return fmt.Sprintf("(* %s %d)", rendered, m)
	}
	return rendered
}

// Fast renders the sum in FAST's dialect: place variables go through
// their bound "K_<place>" constant, additional variables stay as-is.
func (t *TokenCount) Fast() string {
	terms := []string{}
	for _, p := range t.Places {
		terms = append(terms, t.termFast(p, "K_"+p))
	}
	for _, v := range t.Variables {
		terms = append(terms, t.termFast(v, v))
	}
	input := strings.Join(terms, " + ")
	if len(terms) > 1 {
		input = "(" + input + ")"
	}
	return input
}

func (t *TokenCount) termFast(name, rendered string) string {
	if m, ok := t.Multipliers[name]; ok {
		return fmt.Sprintf("%s * %d", rendered, m)
	}
	return rendered
}

// IntConst is a literal integer appearing on either side of an Atom.
type IntConst int

func (IntConst) isExpr() {}

func (c IntConst) String() string { return fmt.Sprintf("%d", int(c)) }

// SMTLib renders the literal as a decimal number.
func (c IntConst) SMTLib(_ *int) string { return fmt.Sprintf("%d", int(c)) }

// Fast renders the literal as a decimal number, same as SMTLib.
func (c IntConst) Fast() string { return fmt.Sprintf("%d", int(c)) }

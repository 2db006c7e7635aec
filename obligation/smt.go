// Copyright (c) 2021 Silvano DAL ZILIO
//
// GNU Affero GPL v3

package obligation

import (
	"fmt"
	"strings"
)

// smtAnd joins constraints into a conjunction, matching z3.py's smt_and:
// an empty list is vacuously "true", a single constraint passes through
// unwrapped.
func smtAnd(constraints []string) string {
	if len(constraints) == 0 {
		return "true"
	}
	joined := strings.Join(constraints, " ")
	if len(constraints) > 1 {
		joined = fmt.Sprintf("(and %s)", joined)
	}
	return joined
}

// smtImply renders an SMT-LIB implication.
func smtImply(left, right string) string {
	return fmt.Sprintf("(=> %s %s)", left, right)
}

// smtEquiv renders left and right as mutual implication, SMT-LIB having no
// native "iff" outside of Bool equality.
func smtEquiv(left, right string) string {
	return smtAnd([]string{smtImply(left, right), smtImply(right, left)})
}

// quantify is the shared body of smtForall/smtExists: every declared
// variable ranges over Int and is constrained non-negative, since every
// variable in this tool's formulas is a marking, a saturation counter, or
// a label, none of which are ever negative.
func quantify(keyword string, declaration []string, constraint string) string {
	if len(declaration) == 0 {
		return constraint
	}
	decls := make([]string, len(declaration))
	nonNegative := make([]string, len(declaration))
	for i, v := range declaration {
		decls[i] = fmt.Sprintf("(%s Int)", v)
		nonNegative[i] = fmt.Sprintf("(>= %s 0)", v)
	}
	body := constraint
	if keyword == "forall" {
		body = smtImply(smtAnd(nonNegative), constraint)
	} else {
		body = smtAnd([]string{smtAnd(nonNegative), constraint})
	}
	return fmt.Sprintf("(%s (%s) %s)", keyword, strings.Join(decls, " "), body)
}

// smtForall renders a universal quantifier over declaration, implying
// constraint under each variable's non-negativity. An empty declaration
// list degenerates to constraint itself.
func smtForall(declaration []string, constraint string) string {
	return quantify("forall", declaration, constraint)
}

// smtExists renders an existential quantifier over declaration, conjoined
// with constraint under each variable's non-negativity.
func smtExists(declaration []string, constraint string) string {
	return quantify("exists", declaration, constraint)
}

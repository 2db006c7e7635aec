// Copyright (c) 2021 Silvano DAL ZILIO
//
// GNU Affero GPL v3

package nets

import (
	"bytes"
	"fmt"
	"io"
)

func (net *Net) printTransition(pre, delta Marking) string {
	var left, right bytes.Buffer
	for p, pname := range net.Pl {
		inp := pre.Get(p)
		outp := delta.Get(p) + inp
		if inp == 1 {
			fmt.Fprintf(&left, " %s", pname)
		}
		if inp > 1 {
			fmt.Fprintf(&left, " %s*%d", pname, inp)
		}
		if outp == 1 {
			fmt.Fprintf(&right, " %s", pname)
		}
		if outp > 1 {
			fmt.Fprintf(&right, " %s*%d", pname, outp)
		}
	}
	return fmt.Sprintf("%s ->%s\n", left.String(), right.String())
}

// Fprint formats the net structure and writes it to w, in the restricted
// .net dialect this package accepts back as input (doc.go).
func (net *Net) Fprint(w io.Writer) {
	fmt.Fprintf(w, "#\n# net %s\n", net.Name)
	fmt.Fprintf(w, "# %d places, %d transitions\n#\n\n", len(net.Pl), len(net.Tr))

	for _, v := range net.Pl {
		fmt.Fprintf(w, "pl %s\n", v)
	}
	for k, v := range net.Tr {
		fmt.Fprintf(w, "tr %s : %s ", v, labelString(net.Label[k]))
		fmt.Fprint(w, net.printTransition(net.Pre[k], net.Delta[k]))
	}
}

// labelString renders a transition label the way parseLabel expects to
// read it back: "tau" for Silent, the decimal value otherwise.
func labelString(label int) string {
	if label == Silent {
		return "tau"
	}
	return fmt.Sprintf("%d", label)
}

// String returns a textual representation of the net structure.
func (net *Net) String() string {
	var buf bytes.Buffer
	net.Fprint(&buf)
	return buf.String()
}

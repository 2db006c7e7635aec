// Copyright (c) 2021 Silvano DAL ZILIO
//
// GNU Affero GPL v3

package nets

import (
	"io"

	"github.com/dalzilio/polyabs/internal/pnml"
)

// Pnml marshals a Net into a P/T net in PNML format and writes the output
// to w. It backs the CLI's --dump-pnml flag; the acceleration pipeline in
// package accel does not call it and gets its PNML from the external ndrio
// translator instead.
//
// A transition's name and label are combined into its PNML name text. PNML
// ids are the place or transition name prefixed with 'pl_'/'tr_', since the
// same name may be used for both a place and a transition in the source
// .net file.
func (net *Net) Pnml(w io.Writer) error {
	places := make([]pnml.Place, len(net.Pl))
	trans := make([]pnml.Trans, len(net.Tr))
	for k, v := range net.Pl {
		places[k] = pnml.Place{Name: v}
	}
	for k, v := range net.Tr {
		trans[k] = pnml.Trans{
			Name:  v,
			Label: labelString(net.Label[k]),
			In:    []pnml.Arc{},
			Out:   []pnml.Arc{},
		}
		for _, m := range net.Pre[k] {
			trans[k].In = append(trans[k].In, pnml.Arc{Place: &places[m.Pl], Mult: m.Mult})
		}
		for _, m := range net.Post[k] {
			trans[k].Out = append(trans[k].Out, pnml.Arc{Place: &places[m.Pl], Mult: m.Mult})
		}
	}
	return pnml.Write(w, net.Name, places, trans)
}

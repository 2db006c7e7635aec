// Copyright (c) 2021 Silvano DAL ZILIO
//
// GNU Affero GPL v3

package nets

//
// code inspired by: http://blog.gopheracademy.com/advent-2014/parsers-lexers/
//

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// parser represents a net parser.
type parser struct {
	s      *scanner
	net    *Net           // net under construction
	pl, tr map[string]int // place and transition name -> index
	tok    token          // last read token
	ahead  bool           // true if there is a token stored in tok
}

// ParseError wraps a failure encountered while reading a .net file, so a
// caller can distinguish a malformed specification from an I/O failure on
// the underlying reader with errors.As.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("error parsing net: %s", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Parse returns a pointer to a Net built from a textual representation of
// an (untimed) Petri net. We return a nil pointer and an error if there was
// a problem while reading the specification.
//
// The accepted grammar is a restriction of the Tina .net dialect (see
// doc.go): no time intervals, no read/inhibitor arcs, no priorities, no
// notes. Every transition must carry a label, either "tau" (silent) or a
// positive integer (spec §3, §6).
func Parse(r io.Reader) (*Net, error) {
	p := &parser{
		s:   &scanner{r: bufio.NewReader(r), pos: &textPos{}},
		net: &Net{},
		pl:  make(map[string]int),
		tr:  make(map[string]int),
	}
	if err := p.parse(); err != nil {
		return nil, &ParseError{Err: err}
	}
	p.finalize()
	return p.net, nil
}

// scan returns the next token from the underlying scanner. If a token has
// been unscanned then read that instead.
func (p *parser) scan() token {
	if p.ahead {
		p.ahead = false
	} else {
		p.tok = p.s.scan()
	}
	return p.tok
}

// unscan backtracks the currently read token.
func (p *parser) unscan() {
	p.ahead = true
}

// checkPL returns the index of a place in the net, creating one if needed.
func (p *parser) checkPL(s string) int {
	n, ok := p.pl[s]
	if !ok {
		n = len(p.pl)
		p.pl[s] = n
		p.net.Pl = append(p.net.Pl, s)
	}
	return n
}

// checkTR returns the index of a transition in the net, creating one (with
// a not-yet-seen label of Silent) if needed.
func (p *parser) checkTR(s string) int {
	n, ok := p.tr[s]
	if !ok {
		n = len(p.tr)
		p.tr[s] = n
		p.net.Tr = append(p.net.Tr, s)
		p.net.Label = append(p.net.Label, Silent)
		p.net.Pre = append(p.net.Pre, nil)
		p.net.Post = append(p.net.Post, nil)
		p.net.Delta = append(p.net.Delta, nil)
	}
	return n
}

func (p *parser) parse() error {
	for {
		switch tok := p.scan(); tok.tok {
		case tokEOF:
			return nil
		case tokNET:
			tok = p.scan()
			if tok.tok != tokIDENT {
				return fmt.Errorf(" found %q; expected identifier after NET at %s", tok.s, tok.pos.String())
			}
			p.net.Name = tok.s
		case tokTR:
			if e := p.parseTR(); e != nil {
				return e
			}
		case tokPL:
			if e := p.parsePL(); e != nil {
				return e
			}
		default:
			return fmt.Errorf(" found %q; expected keywords, %s", tok.s, tok.pos.String())
		}
	}
}

// parseTR reads:  'tr' <transition> ":" <label> {<tinput> -> <toutput>}
func (p *parser) parseTR() error {
	tok := p.scan()
	if tok.tok != tokIDENT {
		return fmt.Errorf(" found %q, expected valid transition name at %s", tok.s, tok.pos.String())
	}
	index := p.checkTR(tok.s)
	afterArrow := false
	haslabel := false
	hasarcs := false
	for {
		switch tok := p.scan(); tok.tok {
		case tokLABEL:
			if haslabel || hasarcs {
				return fmt.Errorf(" bad label declaration, at %s", tok.pos.String())
			}
			haslabel = true
			label, err := parseLabel(tok.s)
			if err != nil {
				return fmt.Errorf(" in label of %s, %s at %s", p.net.Tr[index], err, tok.pos.String())
			}
			p.net.Label[index] = label
		case tokARROW:
			if afterArrow {
				return fmt.Errorf(" cannot have two arrows (->) in tr declaration at %s", tok.pos.String())
			}
			hasarcs = true
			afterArrow = true
		case tokIDENT:
			pindex := p.checkPL(tok.s)
			hasarcs = true
			mult, err := p.scanWeight()
			if err != nil {
				return err
			}
			if afterArrow {
				p.net.Delta[index] = p.net.Delta[index].add(pindex, mult)
				p.net.Post[index] = p.net.Post[index].add(pindex, mult)
			} else {
				p.net.Delta[index] = p.net.Delta[index].add(pindex, -mult)
				p.net.Pre[index] = p.net.Pre[index].add(pindex, mult)
			}
		default:
			p.unscan()
			if !haslabel {
				return fmt.Errorf(" transition %s has no label at %s", p.net.Tr[index], tok.pos.String())
			}
			return nil
		}
	}
}

// parsePL reads:  'pl' <place> {(<marking>)} {<pinput> -> <poutput>}
//
// An initial marking, when present, is scanned but discarded: obligations
// in this tool never reason about a concrete initial marking, only about
// coherency constraints over place variables (spec §3, §9).
func (p *parser) parsePL() error {
	tok := p.scan()
	if tok.tok != tokIDENT {
		return fmt.Errorf(" found %q, expected valid place name at %s", tok.s, tok.pos.String())
	}
	index := p.checkPL(tok.s)
	afterArrow := false
	hasinitm := false
	hasarcs := false
	for {
		switch tok := p.scan(); tok.tok {
		case tokMARKING:
			if hasinitm || hasarcs {
				return fmt.Errorf(" bad marking declaration, at %s", tok.pos.String())
			}
			if _, err := mconvert(tok.s); err != nil {
				return fmt.Errorf(" in marking, %s (%s) at %s", tok.s, err, tok.pos.String())
			}
			hasinitm = true
		case tokARROW:
			if afterArrow {
				return fmt.Errorf(" cannot have two arrows (->) in pl declaration at %s", tok.pos.String())
			}
			hasarcs = true
			afterArrow = true
		case tokIDENT:
			tindex := p.checkTR(tok.s)
			hasarcs = true
			mult, err := p.scanWeight()
			if err != nil {
				return err
			}
			if afterArrow {
				p.net.Delta[tindex] = p.net.Delta[tindex].add(index, mult)
				p.net.Post[tindex] = p.net.Post[tindex].add(index, mult)
			} else {
				p.net.Delta[tindex] = p.net.Delta[tindex].add(index, -mult)
				p.net.Pre[tindex] = p.net.Pre[tindex].add(index, mult)
			}
		default:
			p.unscan()
			return nil
		}
	}
}

// scanWeight reads an optional '*<weight>' following an arc endpoint,
// defaulting to a weight of 1 when absent.
func (p *parser) scanWeight() (int, error) {
	tok := p.scan()
	if tok.tok != tokSTAR {
		p.unscan()
		return 1, nil
	}
	mult, err := mconvert(tok.s)
	if err != nil {
		return 0, fmt.Errorf(" in multiplicity, %s (%s) at %s", tok.s, err, tok.pos.String())
	}
	return mult, nil
}

// parseLabel converts a scanned label literal into a transition label: the
// string "tau" denotes Silent, any other value must be a positive integer.
func parseLabel(s string) (int, error) {
	if s == "tau" {
		return Silent, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("label %q must be \"tau\" or a positive integer", s)
	}
	return n, nil
}

// finalize computes the derived fields of net (Connected, Silent, Labeled)
// once every tr/pl declaration has been read.
func (p *parser) finalize() {
	net := p.net
	net.Connected = make([][]int, len(net.Tr))
	for t := range net.Tr {
		connected := []int{}
		for _, a := range net.Pre[t] {
			connected = setAdd(connected, a.Pl)
		}
		for _, a := range net.Post[t] {
			connected = setAdd(connected, a.Pl)
		}
		net.Connected[t] = connected
		if net.Label[t] == Silent {
			net.Silent = append(net.Silent, t)
		} else {
			net.Labeled = append(net.Labeled, t)
		}
	}
}

// setAdd takes a sorted list of integers, s, and adds v to it.
func setAdd(s []int, v int) []int {
	if len(s) == 0 {
		return []int{v}
	}
	for i := range s {
		if s[i] == v {
			return s
		}
		if s[i] > v {
			res := make([]int, len(s)+1)
			copy(res[:i], s[:i])
			copy(res[i+1:], s[i:])
			res[i] = v
			return res
		}
	}
	res := make([]int, len(s))
	copy(res, s)
	return append(res, v)
}

// mconvert is used to convert values found on markings and weights into
// integers. We take into account the possibility that s ends with a
// "multiplier", such as `3K` (3000), which is valid in Tina.
func mconvert(s string) (int, error) {
	if len(s) == 0 {
		return 0, errors.New("empty value in weights or marking")
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		if ch := s[len(s)-1]; ch == 'K' || ch == 'M' || ch == 'G' || ch == 'T' || ch == 'P' || ch == 'E' {
			v, err = strconv.Atoi(s[:len(s)-1])
			if err != nil {
				return 0, fmt.Errorf("not a valid weight or marking; %s", err)
			}
			switch ch {
			case 'K':
				return v * 1000, nil
			case 'M':
				return v * 1000000, nil
			case 'G':
				return v * 1000000000, nil
			case 'T':
				return v * 1000000000000, nil
			case 'P':
				return v * 1000000000000000, nil
			case 'E':
				return v * 1000000000000000000, nil
			default:
				return v, fmt.Errorf("not a valid multiplier in weight or marking; %v", ch)
			}
		}
		return 0, fmt.Errorf("not a valid weight or marking; %s", err)
	}
	return v, nil
}

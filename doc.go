// Copyright (c) 2021 Silvano DAL ZILIO
//
// GNU Affero GPL v3

/*
Package nets defines a concrete type for (untimed) Petri nets and provides a
Parser for building Nets from a restriction of the textual description
format used in the Tina toolbox (see below).

The net format

We support a restricted subset of the description format for Petri nets
found in the Tina man pages (see
http://projects.laas.fr/tina/manuals/formats.html). This tool only reasons
about untimed place/transition nets with labeled and silent transitions, so
we drop everything in the original grammar that describes timed or
inhibited behavior.

A net is described by a series of declarations of places and transitions,
and an optional naming declaration for the net. The net described is the
superposition of these declarations. The grammar of .net declarations we
accept is the following, in which nonterminals are bracketed by < .. >,
terminals are in upper case or quoted. Spaces, carriage return and tabs act
as separators.

Every transition must carry a label: either "tau", denoting a silent
transition, or a positive integer naming an observable action. There is no
support for read arcs, inhibitor arcs, time intervals, priorities or notes.

Grammar

    .net                    ::= (<trdesc>|<pldesc>|<netdesc>)*
    netdesc                 ::= ’net’ <net>
    trdesc                  ::= ’tr’ <transition> ":" <label> {<tinput> -> <toutput>}
    pldesc                  ::= ’pl’ <place> {(<marking>)}
    tinput                  ::= <place>{<arc>}
    toutput                 ::= <place>{<arc>}
    arc                     ::= ’*’<weight> | ε
    weight, marking         ::= INT{’K’|’M’|’G’|’T’|’P’|’E’}
    net, place, transition  ::= ANAME | ’{’QNAME’}’
    label                   ::= "tau" | INT
    INT                     ::= unsigned integer
    ANAME                   ::= alphanumeric name, see Notes below
    QNAME                   ::= arbitrary name, see Notes below

Notes

Two forms are admitted for net, place and transition names:

     - ANAME : any non empty string of letters, digits, primes (’), dots (.) and underscores (_)

     - ’{’QNAME’}’ : any chain between braces, and in which the three characters "{,}, or \" are escaped with a \

Empty lines and lines beginning with ’#’ are considered comments.

Weight is optional for arcs and defaults to 1. An initial marking may be
given on a place declaration but is only tolerated, never retained: this
package only reasons about coherency constraints over place variables, not
about a single concrete marking (see package presburger).

When several declarations target the same transition or place, the end
result is the fusion of all of them, in the same way as the original Tina
grammar.

Simple example of .net file

This is a simple example of .net file.

     tr t1 : tau p1 -> p2
     tr t2 : 1 p2 p3*2 -> p1
     pl p1
     pl p2
     pl p3
*/
package nets

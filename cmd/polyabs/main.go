// Copyright (c) 2021 Silvano DAL ZILIO
//
// GNU Affero GPL v3

/*
Command polyabs certifies whether one Petri net is a polyhedral
E-abstraction of another: given an initial net and a reduced net, each
with its own coherency constraint and the E-relation linking their
markings, it computes the saturated silent sequences of both nets and
checks Conformance plus CORE 0 through CORE 3 in both directions, printing
one verdict line per obligation.
*/
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dalzilio/polyabs/accel"
	"github.com/dalzilio/polyabs/epoly"
	nets "github.com/dalzilio/polyabs"
	"github.com/dalzilio/polyabs/obligation"
	"github.com/dalzilio/polyabs/presburger"
	"github.com/dalzilio/polyabs/smtsolver"
)

// version is the tool's reported version, matching reductron.py's own
// "%(prog)s 1.0" convention.
const version = "polyabs 1.0"

var log = logrus.New()

type options struct {
	initialNet string
	reducedNet string
	debug      bool
	verbose    bool
	showTime   bool
	timeout    time.Duration
	dumpPNML   string
}

func main() {
	opts := &options{}

	root := &cobra.Command{
		Use:          "polyabs",
		Short:        "Automated polyhedral abstraction prover",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	root.Flags().StringVarP(&opts.initialNet, "initial-net", "i", "", "path to the initial Petri net (.net format)")
	root.Flags().StringVarP(&opts.reducedNet, "reduced-net", "r", "", "path to the reduced Petri net (.net format)")
	root.Flags().BoolVar(&opts.debug, "debug", false, "print the SMT-LIB and accelerator input/output")
	root.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "increase output verbosity")
	root.Flags().BoolVar(&opts.showTime, "show-time", false, "show the execution time")
	root.Flags().DurationVar(&opts.timeout, "timeout", 0, "timeout applied to the SMT solver and the accelerator pipeline")
	root.Flags().StringVar(&opts.dumpPNML, "dump-pnml", "", "write the PNML export of the initial net to this path and exit")
	root.Flags().Bool("version", false, "show the version number and exit")

	root.PreRunE = func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Println(version)
			os.Exit(0)
		}
		return nil
	}

	if err := root.Execute(); err != nil {
		log.WithError(err).Fatal("polyabs failed")
	}
}

// run loads the two nets and their constraints, computes both silent
// reachability sets, and checks every obligation, printing one verdict
// line per obligation in reductron.py's main print order.
func run(ctx context.Context, opts *options) error {
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if opts.verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	start := time.Now()

	if opts.initialNet == "" || opts.reducedNet == "" {
		return fmt.Errorf("both --initial-net and --reduced-net are required")
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	n1, c1, err := loadNet(opts.initialNet)
	if err != nil {
		return fmt.Errorf("initial net: %w", err)
	}
	log.WithField("net", "N1").Debug(n1)
	log.WithField("constraint", "C1").Debug(c1)

	if opts.dumpPNML != "" {
		f, err := os.Create(opts.dumpPNML)
		if err != nil {
			return fmt.Errorf("dump-pnml: %w", err)
		}
		defer f.Close()
		if err := n1.Pnml(f); err != nil {
			return fmt.Errorf("dump-pnml: %w", err)
		}
		return nil
	}

	n2, c2, err := loadNet(opts.reducedNet)
	if err != nil {
		return fmt.Errorf("reduced net: %w", err)
	}
	log.WithField("net", "N2").Debug(n2)
	log.WithField("constraint", "C2").Debug(c2)

	reducedBytes, err := os.ReadFile(opts.reducedNet)
	if err != nil {
		return fmt.Errorf("reduced net: %w", err)
	}
	e, err := epoly.Parse(bytes.NewReader(reducedBytes), n1.Pl, n2.Pl, c1.Variables, c2.Variables)
	if err != nil {
		return fmt.Errorf("E-relation: %w", err)
	}
	log.WithField("relation", "E").Debug(e)

	driver := accel.NewDriver()
	tau1, err := driver.TauStar(ctx, n1, c1, opts.debug)
	if err != nil {
		return fmt.Errorf("tau1*: %w", err)
	}
	tau2, err := driver.TauStar(ctx, n2, c2, opts.debug)
	if err != nil {
		return fmt.Errorf("tau2*: %w", err)
	}

	solver, err := smtsolver.New(ctx, opts.debug, opts.timeout)
	if err != nil {
		return fmt.Errorf("starting SMT solver: %w", err)
	}
	defer solver.Close()

	fmt.Println("> Check the silent reachability set of N1 from Fast is conform to E /\\ C2")
	fmt.Println("> Check the silent reachability set of N2 from Fast is conform to E /\\ C1")
	fmt.Println("> Check that (N2, C2) is a strong E-abstraction of (N1, C1)")
	fmt.Println("> Check that (N1, C1) is a strong E-abstraction of (N2, C2)")

	report, err := obligation.Run(ctx, solver, n1, n2, c1, c2, e, tau1, tau2)
	if err != nil {
		return fmt.Errorf("checking obligations: %w", err)
	}
	printReport(report)

	if opts.showTime {
		fmt.Printf("\nElapsed: %s\n", time.Since(start))
	}
	return nil
}

// loadNet parses a .net file at path and extracts its coherency
// constraint, reading the file once and sharing the bytes between the two
// readers each parser needs.
func loadNet(path string) (*nets.Net, *presburger.Formula, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	net, err := nets.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	constraint, err := presburger.ExtractConstraint(bytes.NewReader(data), net.Pl)
	if err != nil {
		return nil, nil, err
	}
	return net, constraint, nil
}

func printReport(report obligation.Report) {
	verdict := func(holds bool) string {
		if holds {
			return "sat"
		}
		return "unsat"
	}
	for _, v := range report.Verdicts {
		label := v.Name
		if v.Name == "Conformance" {
			label = "Conform"
		}
		direction := "N1 -> N2"
		if v.OnReduced {
			direction = "N2 -> N1"
		}
		fmt.Printf("(%s) [%s]: %s\n", label, direction, verdict(v.Holds))
	}
}

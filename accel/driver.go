// Copyright (c) 2021 Silvano DAL ZILIO
//
// GNU Affero GPL v3

/*
Package accel drives the external acceleration pipeline that computes the
saturated silent sequences (package saturate) of a net's silent
restriction: ndrio turns the restricted net into PNML, an XSLT stylesheet
turns the PNML into the FAST accelerator's own ".fst" dialect, and the fast
binary itself reports, on stderr, one saturated sequence per maximal
silent cycle it discovers. This is the Go counterpart of reductron's
interfaces/fast.py.
*/
package accel

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	nets "github.com/dalzilio/polyabs"
	"github.com/dalzilio/polyabs/presburger"
	"github.com/dalzilio/polyabs/saturate"
)

// Error reports a fatal failure of one stage of the pipeline: an external
// tool exited non-zero, or its output didn't match the shape this driver
// expects. Every failure from TauStar is wrapped in an Error naming the
// stage it happened in.
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("accel: %s: %s", e.Stage, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Driver holds the settings of the acceleration pipeline: the ndrio and
// xsltproc command names (overridable so tests can point them at fakes on
// PATH), the stylesheet path and the FAST engine name. The fast binary
// itself is always run as "fast", looked up on PATH.
type Driver struct {
	NetToPNML     string // ndrio, or a compatible .net-to-PNML translator
	XSLTProcessor string // xsltproc, or a compatible XSLT 1.0 processor
	Stylesheet    string // path to the PNML-to-FST stylesheet
	Engine        string // FAST_DEFAULT_ENGINE value, "prestaf" by default
}

// NewDriver returns a Driver wired to the tools this package was built
// against, with the stylesheet expected at utils/pnml2fst.xslt relative to
// the working directory; this repository does not include that file.
func NewDriver() *Driver {
	return &Driver{
		NetToPNML:     "ndrio",
		XSLTProcessor: "xsltproc",
		Stylesheet:    "utils/pnml2fst.xslt",
		Engine:        "prestaf",
	}
}

// TauStar computes the saturated silent sequences of net's silent
// restriction whose initial marking satisfies constraint. A net with no
// silent transitions short-circuits to (nil, nil): there is nothing to
// saturate and no point spawning the pipeline.
func (d *Driver) TauStar(ctx context.Context, net *nets.Net, constraint *presburger.Formula, debug bool) ([]*saturate.Sequence, error) {
	restricted := net.SilentRestriction()
	if len(restricted.Tr) == 0 {
		return nil, nil
	}

	pnmlPath, err := d.netToPNML(ctx, restricted)
	if err != nil {
		return nil, err
	}
	defer os.Remove(pnmlPath)

	fst, err := d.pnmlToFST(ctx, pnmlPath)
	if err != nil {
		return nil, err
	}

	fst, err = bindRegion(fst, constraint)
	if err != nil {
		return nil, err
	}

	if debug {
		fmt.Fprintln(os.Stderr, strings.Join(fst, "\n"))
	}

	stderr, err := d.runFast(ctx, fst)
	if err != nil {
		return nil, err
	}

	return parseSequences(restricted, stderr, debug)
}

// netToPNML feeds net's .net text to NetToPNML over stdin and returns the
// path of the temporary PNML file it wrote.
func (d *Driver) netToPNML(ctx context.Context, net *nets.Net) (string, error) {
	f, err := os.CreateTemp("", "polyabs-*.pnml")
	if err != nil {
		return "", &Error{"pnml tempfile", err}
	}
	path := f.Name()
	f.Close()

	cmd := exec.CommandContext(ctx, d.NetToPNML, "-NET", "-", "-pnml", path)
	cmd.Stdin = strings.NewReader(net.String())
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(path)
		return "", &Error{"ndrio", fmt.Errorf("%w: %s", err, stderr.String())}
	}
	return path, nil
}

// pnmlToFST runs the XSLT stylesheet over the PNML file at pnmlPath and
// returns its stdout split into lines.
func (d *Driver) pnmlToFST(ctx context.Context, pnmlPath string) ([]string, error) {
	cmd := exec.CommandContext(ctx, d.XSLTProcessor, d.Stylesheet, pnmlPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &Error{"xsltproc", fmt.Errorf("%w: %s", err, stderr.String())}
	}
	return strings.Split(stdout.String(), "\n"), nil
}

// bindRegion locates the generated FST's "var" and "Region init" lines and
// rewrites them so the initial region matches constraint, following the
// same string-surgery fast.py's tau_star applies to the stylesheet output.
func bindRegion(fst []string, constraint *presburger.Formula) ([]string, error) {
	varIndex, regionIndex := -1, -1
	for i, line := range fst {
		if strings.Contains(line, "var ") {
			varIndex = i
		}
		if strings.Contains(line, " Region init :=") {
			regionIndex = i
			break
		}
	}
	if varIndex < 0 || regionIndex < 0 {
		return nil, &Error{"xsltproc", fmt.Errorf("generated .fst has no %q or %q line", "var ", " Region init :=")}
	}

	out := append([]string(nil), fst...)
	out[varIndex] = strings.Replace(out[varIndex], ";", "", 1) + ", " + strings.Join(constraint.FastVariables(), ", ") + ";"
	out[regionIndex] = fmt.Sprintf(" Region init := {%s && state=marking};", constraint.Fast())
	return out, nil
}

// runFast writes fst to a temporary .fst file and runs the fast engine
// over it, returning its stderr text. FAST_DEFAULT_ENGINE is set around
// the call and restored afterwards: the sole process-wide side effect this
// package performs.
func (d *Driver) runFast(ctx context.Context, fst []string) (string, error) {
	f, err := os.CreateTemp("", "polyabs-*.fst")
	if err != nil {
		return "", &Error{"fst tempfile", err}
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.WriteString(strings.Join(fst, "\n")); err != nil {
		f.Close()
		return "", &Error{"fst tempfile", err}
	}
	f.Close()

	prev, had := os.LookupEnv("FAST_DEFAULT_ENGINE")
	os.Setenv("FAST_DEFAULT_ENGINE", d.Engine)
	defer func() {
		if had {
			os.Setenv("FAST_DEFAULT_ENGINE", prev)
		} else {
			os.Unsetenv("FAST_DEFAULT_ENGINE")
		}
	}()

	cmd := exec.CommandContext(ctx, "fast", path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &Error{"fast", fmt.Errorf("%w: %s", err, stderr.String())}
	}
	return stderr.String(), nil
}

// parseSequences reads fast's "OK ! <expr>" lines and builds one
// saturate.Sequence per "."-joined summand of each "+"-separated
// disjunction, all sharing the saturation variable assigned to that line
// ("tau0", "tau1", ...).
func parseSequences(restricted *nets.Net, stderrText string, debug bool) ([]*saturate.Sequence, error) {
	index := make(map[string]int, len(restricted.Tr))
	for i, name := range restricted.Tr {
		index[name] = i
	}

	var sequences []*saturate.Sequence
	counter := 0
	scanner := bufio.NewScanner(strings.NewReader(stderrText))
	for scanner.Scan() {
		line := scanner.Text()
		if debug {
			fmt.Fprintln(os.Stderr, line)
		}
		marker := strings.Index(line, "OK !")
		if marker < 0 {
			continue
		}
		fields := strings.Fields(line[marker+len("OK !"):])
		if len(fields) < 1 {
			return nil, &Error{"fast", fmt.Errorf("malformed %q line: %q", "OK !", line)}
		}
		expr := strings.NewReplacer("(", "", ")", "").Replace(fields[0])
		for _, summand := range strings.Split(expr, "+") {
			var transitions []int
			for _, name := range strings.Split(summand, ".") {
				idx, ok := index[name]
				if !ok {
					return nil, &Error{"fast", fmt.Errorf("unknown transition %q in %q line", name, "OK !")}
				}
				transitions = append(transitions, idx)
			}
			sequences = append(sequences, saturate.New(restricted, fmt.Sprintf("tau%d", counter), transitions))
		}
		counter++
	}
	if err := scanner.Err(); err != nil {
		return nil, &Error{"fast", err}
	}
	return sequences, nil
}

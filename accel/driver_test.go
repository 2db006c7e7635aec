// Copyright (c) 2021 Silvano DAL ZILIO
//
// GNU Affero GPL v3

package accel

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nets "github.com/dalzilio/polyabs"
	"github.com/dalzilio/polyabs/presburger"
)

// writeFakeTool drops an executable shell script named name in dir,
// printing body to stdout and nothing else; used to stand in for
// ndrio/xsltproc/fast without depending on them being installed.
func writeFakeTool(t *testing.T, dir, name, script string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake subprocess tools are POSIX shell scripts")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
}

func twoTransitionSilentNet() *nets.Net {
	return &nets.Net{
		Name:      "n",
		Pl:        []string{"p1", "p2"},
		Tr:        []string{"t1", "t2"},
		Label:     []int{nets.Silent, nets.Silent},
		Pre:       []nets.Marking{{{Pl: 0, Mult: 1}}, {{Pl: 1, Mult: 1}}},
		Post:      []nets.Marking{{{Pl: 1, Mult: 1}}, {{Pl: 0, Mult: 1}}},
		Delta:     []nets.Marking{{{Pl: 0, Mult: -1}, {Pl: 1, Mult: 1}}, {{Pl: 1, Mult: -1}, {Pl: 0, Mult: 1}}},
		Connected: [][]int{{0, 1}, {0, 1}},
		Silent:    []int{0, 1},
	}
}

func TestTauStarSkipsWhenNoSilentTransitions(t *testing.T) {
	net := &nets.Net{Name: "n", Pl: []string{"p1"}, Tr: []string{"t1"}, Label: []int{1}}
	d := NewDriver()
	seqs, err := d.TauStar(context.Background(), net, nil, false)
	require.NoError(t, err)
	assert.Nil(t, seqs)
}

func TestTauStarParsesFastOutput(t *testing.T) {
	dir := t.TempDir()
	writeFakeTool(t, dir, "ndrio", `
# arguments: -NET - -pnml <path>
pnml_path="$4"
cat > /dev/null
echo '<pnml/>' > "$pnml_path"
`)
	writeFakeTool(t, dir, "xsltproc", `
cat <<'EOF'
 var x, y;
 Region init := {true};
EOF
`)
	writeFakeTool(t, dir, "fast", `
echo "something OK ! (t1.t2+t1) something" 1>&2
`)

	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	net := twoTransitionSilentNet()
	constraint, err := presburger.Parse(net.Pl, "T")
	require.NoError(t, err)

	d := &Driver{NetToPNML: "ndrio", XSLTProcessor: "xsltproc", Stylesheet: "stylesheet.xslt", Engine: "prestaf"}
	seqs, err := d.TauStar(context.Background(), net, constraint, false)
	require.NoError(t, err)
	require.Len(t, seqs, 2)
	assert.Equal(t, "(t1 t2)*", seqs[0].String())
	assert.Equal(t, "(t1)*", seqs[1].String())
	assert.Equal(t, "tau0", seqs[0].Var)
	assert.Equal(t, "tau0", seqs[1].Var)
}

func TestTauStarErrorsOnMalformedFST(t *testing.T) {
	dir := t.TempDir()
	writeFakeTool(t, dir, "ndrio", `
pnml_path="$4"
cat > /dev/null
echo '<pnml/>' > "$pnml_path"
`)
	writeFakeTool(t, dir, "xsltproc", `echo 'nothing useful here'`)
	writeFakeTool(t, dir, "fast", `true`)

	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	net := twoTransitionSilentNet()
	constraint, err := presburger.Parse(net.Pl, "T")
	require.NoError(t, err)

	d := &Driver{NetToPNML: "ndrio", XSLTProcessor: "xsltproc", Stylesheet: "stylesheet.xslt", Engine: "prestaf"}
	_, err = d.TauStar(context.Background(), net, constraint, false)
	require.Error(t, err)
	var accelErr *Error
	require.ErrorAs(t, err, &accelErr)
	assert.Equal(t, "xsltproc", accelErr.Stage)
}

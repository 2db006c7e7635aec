// Copyright (c) 2021 Silvano DAL ZILIO
//
// GNU Affero GPL v3

package smtsolver

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeZ3 drops an executable fake z3 on PATH that replies reply to
// every "(check-sat)" line it reads and ignores everything else, standing
// in for the real solver in tests that only exercise this package's
// protocol framing.
func writeFakeZ3(t *testing.T, reply string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake z3 is a POSIX shell script")
	}
	dir := t.TempDir()
	script := "#!/bin/sh\nwhile IFS= read -r line; do\n  case \"$line\" in\n    *check-sat*) echo \"" + reply + "\" ;;\n  esac\ndone\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "z3"), []byte(script), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestCheckSatTrue(t *testing.T) {
	writeFakeZ3(t, "sat")
	s, err := New(context.Background(), false, 0)
	require.NoError(t, err)
	defer s.Close()

	ok, err := s.CheckSat(context.Background(), "(= 1 1)")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckSatFalse(t *testing.T) {
	writeFakeZ3(t, "unsat")
	s, err := New(context.Background(), false, 0)
	require.NoError(t, err)
	defer s.Close()

	ok, err := s.CheckSat(context.Background(), "(= 1 2)")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckSatAbortsOnGarbage(t *testing.T) {
	writeFakeZ3(t, "maybe")
	s, err := New(context.Background(), false, 0)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.CheckSat(context.Background(), "(= 1 1)")
	assert.ErrorIs(t, err, ErrAborted)

	_, err = s.CheckSat(context.Background(), "(= 1 1)")
	assert.ErrorIs(t, err, ErrAborted)
}

func TestCheckSatRespectsContextCancellation(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "z3"), []byte("#!/bin/sh\nsleep 5\n"), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	s, err := New(context.Background(), false, 0)
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = s.CheckSat(ctx, "(= 1 1)")
	assert.ErrorIs(t, err, ErrAborted)
}

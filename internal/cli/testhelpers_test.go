package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/sapp/internal/store"
	"github.com/roach88/sapp/internal/testutil"
)

// createBranchingDB writes one finished run:
//
//	#1 main:root -> dispatch:param0
//	#2 dispatch:param0 -> exec:param0   (RCE at 1)
//	#3 dispatch:param0 -> eval:param0   (RCE at 2, SQL at 0)
//	#4 exec:param0 -> leaf:sink         (RCE at 0)
func createBranchingDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sapp.db")

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	f := testutil.NewFakes(t, st)
	f.Run()
	root := f.Precondition("main", "root", "dispatch", "param0")
	viaExec := f.Precondition("dispatch", "param0", "exec", "param0")
	viaEval := f.Precondition("dispatch", "param0", "eval", "param0")
	leaf := f.Precondition("exec", "param0", "leaf", "sink")

	rce := f.Sink("RCE")
	sqli := f.Sink("SQL")
	f.Assoc(root, rce, 3)
	f.Assoc(viaExec, rce, 1)
	f.Assoc(viaEval, rce, 2)
	f.Assoc(viaEval, sqli, 0)
	f.Assoc(leaf, rce, 0)

	return path
}

// createEmptyDB creates a database with the schema and nothing else.
func createEmptyDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sapp.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())
	return path
}

// execute runs the full root command so config and logging are set up.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

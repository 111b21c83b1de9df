package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersCSV = `name,age,city
Alice,30,NY
Bob,25,LA
Charlie,,NY
Diana,28,SF
`

func writeUsers(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.csv")
	require.NoError(t, os.WriteFile(path, []byte(usersCSV), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestMapMode(t *testing.T) {
	code, out, errOut := runCLI(t, "-o", "older", "-head", "2", writeUsers(t), `$["age"] + 1`)
	require.Equal(t, 0, code, errOut)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "name  | age | city | older", lines[0])
	assert.Equal(t, "------+-----+------+------", lines[1])
	assert.Equal(t, "Alice | 30  | NY   | 31", lines[2])
}

func TestFilterModeSorted(t *testing.T) {
	code, out, errOut := runCLI(t, "-mode", "filter", "-sort", "age", "-desc", writeUsers(t), `$["age"] > 26`)
	require.Equal(t, 0, code, errOut)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[2], "Alice"))
	assert.True(t, strings.HasPrefix(lines[3], "Diana"))
}

func TestTailAndColumns(t *testing.T) {
	code, out, errOut := runCLI(t, "-tail", "1", "-cols", "name,doubled", "-o", "doubled", writeUsers(t), `$["age"] * 2`)
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "name  | doubled\n------+--------\nDiana | 56\n", out)

	code, _, errOut = runCLI(t, "-cols", "nope", writeUsers(t), `1`)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `select: column "nope" not found`)
}

func TestVarMode(t *testing.T) {
	code, out, errOut := runCLI(t, "-mode", "var", "-var", "n=3", "-var", "s=abc", `$$["n"] * 2`, `upper_case($$["s"])`)
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "6\nABC\n", out)
}

func TestCompileErrorsArePrinted(t *testing.T) {
	code, _, errOut := runCLI(t, writeUsers(t), `$["name"] + $["nope"]`)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "error at [12,21): No column with the name 'nope' is available.")
}

func TestSyntaxErrorIsPrinted(t *testing.T) {
	code, _, errOut := runCLI(t, "-mode", "var", `1 +`)
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(errOut, "error at ["), errOut)
}

func TestSaveAndLoad(t *testing.T) {
	db := filepath.Join(t.TempDir(), "expr.db")
	code, _, errOut := runCLI(t, "-mode", "var", "-store", db, "-save", "answer", `6 * 7`)
	require.Equal(t, 0, code, errOut)

	code, out, errOut := runCLI(t, "-mode", "var", "-store", db, "-load", "answer")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "42\n", out)

	code, _, errOut = runCLI(t, "-mode", "var", "-store", db, "-load", "missing")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "expression not found")
}

func TestUsage(t *testing.T) {
	code, _, errOut := runCLI(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "usage: dqexpr")

	code, _, errOut = runCLI(t, "-mode", "sideways", writeUsers(t), "1")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `unknown mode "sideways"`)
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sameehj/vsh/pkg/sandbox"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("VSH_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	cfgFile = ""
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "vsh dev"), out)
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.js")
	require.NoError(t, os.WriteFile(path, []byte("console.log(1 + 1)"), 0o644))

	out, err := execute(t, "", "run", path)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestRunStdinJSON(t *testing.T) {
	out, err := execute(t, "while(true){}", "run", "--json", "--timeout", "100ms", "-")
	require.NoError(t, err)
	var resp sandbox.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Empty(t, resp.Output)
	assert.Contains(t, resp.Error, "timed out")
}

func TestRunRejectsUnknownKind(t *testing.T) {
	_, err := execute(t, "1", "run", "--kind", "lua", "-")
	assert.Error(t, err)
}

func TestWorkerProtocol(t *testing.T) {
	out, err := execute(t, "console.log('a'); throw new Error('b')", "sandbox-worker", "--timeout", "1s")
	require.NoError(t, err)
	assert.JSONEq(t, `{"output":"a\nError: b"}`, out)
}

func TestPackagesList(t *testing.T) {
	out, err := execute(t, "", "packages", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "node")
	assert.Contains(t, out, "node, npm")
}

func TestReplScript(t *testing.T) {
	out, err := execute(t, "whoami\nbrew install go\ngo version\n", "repl")
	require.NoError(t, err)
	assert.Contains(t, out, "current-user")
	assert.Contains(t, out, "Available commands: go, gofmt")
	assert.Contains(t, out, "Running go command: version")
}

package adapter

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sameehj/vsh/pkg/gateway"
	"github.com/sameehj/vsh/pkg/sandbox"
	"github.com/sameehj/vsh/pkg/session"
	"github.com/sameehj/vsh/pkg/shell"
)

func TestScriptMode(t *testing.T) {
	var out bytes.Buffer
	backend := NewLocalBackend(shell.New(shell.Options{}))
	in := strings.NewReader("whoami\ncd Documents\ncat notes.txt\nexit\npwd\n")

	require.NoError(t, NewTerminal(backend, in, &out, false).Start(context.Background()))
	assert.Equal(t, "current-user\nThis is a note.\n", out.String())
}

func TestInteractiveTabCompletion(t *testing.T) {
	var out bytes.Buffer
	sess := shell.New(shell.Options{})
	in := strings.NewReader("rm Downloads\rcd Doc\t\rpwd\r")

	require.NoError(t, NewTerminal(NewLocalBackend(sess), in, &out, true).Start(context.Background()))
	assert.Equal(t, "/Documents", sess.Cwd())
	assert.Contains(t, out.String(), "~/Documents")
	assert.Contains(t, out.String(), "File removed: Downloads")
}

func TestInteractiveExitAndClear(t *testing.T) {
	var out bytes.Buffer
	sess := shell.New(shell.Options{})
	in := strings.NewReader("ls\rclear\rexit\rwhoami\r")

	require.NoError(t, NewTerminal(NewLocalBackend(sess), in, &out, true).Start(context.Background()))
	assert.Contains(t, out.String(), clearScreen)
	assert.NotContains(t, out.String(), "current-user")
	assert.Empty(t, sess.History())
}

func TestTerminalURL(t *testing.T) {
	got, err := terminalURL("127.0.0.1:8080", "")
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:8080/ws", got)

	got, err = terminalURL("https://vsh.example/", "abc")
	require.NoError(t, err)
	assert.Equal(t, "wss://vsh.example/ws?session=abc", got)

	_, err = terminalURL("ftp://x", "")
	assert.Error(t, err)
}

func TestRemoteBackend(t *testing.T) {
	sb := sandbox.NewJS(sandbox.Config{Timeout: time.Second})
	gw := gateway.NewServer("", session.NewManager(session.Options{}), sb, nil)
	srv := httptest.NewServer(gw.Handler())
	defer srv.Close()

	backend, err := Dial(context.Background(), srv.URL, "")
	require.NoError(t, err)
	defer backend.Close()
	assert.NotEmpty(t, backend.SessionID())
	assert.Equal(t, "~ $", backend.Prompt())

	var out bytes.Buffer
	in := strings.NewReader("cd Documents\ncat notes.txt\n")
	require.NoError(t, NewTerminal(backend, in, &out, false).Start(context.Background()))
	assert.Equal(t, "This is a note.\n", out.String())
	assert.Equal(t, "~/Documents $", backend.Prompt())

	completed, err := backend.Complete("cd ..")
	require.NoError(t, err)
	assert.Equal(t, "cd ..", completed)
}

package shell

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sameehj/vsh/pkg/pkgmgr"
)

func TestBrewInstallAlreadyInstalled(t *testing.T) {
	s := newTestSession(t)
	before := s.registry.Names(KindPackage)

	assert.Equal(t, "node is already installed.", output(t, s, "brew install node"))
	assert.Equal(t, before, s.registry.Names(KindPackage))
	assert.Equal(t, "Starting Node.js REPL. (type .exit to quit)\n> ", output(t, s, "node"))
}

func TestBrewUninstallRemovesDispatch(t *testing.T) {
	s := newTestSession(t)
	assert.Equal(t, "Uninstalling node...\nUninstall complete.", output(t, s, "brew uninstall node"))

	out := output(t, s, "node --version")
	assert.True(t, strings.HasPrefix(out, "Command not found: node"), out)
	assert.True(t, strings.HasPrefix(output(t, s, "npm install"), "Command not found: npm"))
	assert.Equal(t, "node is not installed.", output(t, s, "brew uninstall node"))
}

func TestBrewInstallRegistersCommands(t *testing.T) {
	s := newTestSession(t)
	assert.True(t, strings.HasPrefix(output(t, s, "cargo build"), "Command not found"))

	out := output(t, s, "brew install rust")
	assert.Equal(t, "Installing rust...\nInstallation complete.\nAvailable commands: rustc, cargo", out)
	assert.Equal(t, "Running cargo command: build", output(t, s, "cargo build"))
	assert.Equal(t, "rustc 1.75.0", output(t, s, "rustc --version"))

	e, ok := s.registry.Lookup("cargo")
	require.True(t, ok)
	assert.Equal(t, KindPackage, e.Kind)
	assert.Equal(t, "rust", e.Package)
}

func TestBrewListSearchInfo(t *testing.T) {
	s := newTestSession(t)
	assert.Equal(t, "node 20.11.0\npython 3.11.0\ngit 2.43.0", output(t, s, "brew list"))
	assert.Equal(t, "python 3.11.0 (installed)", output(t, s, "brew search pyt"))
	assert.Equal(t, "No results found.", output(t, s, "brew search zzz"))
	assert.Equal(t, "Package not found: cobol", output(t, s, "brew install cobol"))
	assert.Contains(t, output(t, s, "brew info go"), "go: 1.22.0 (not installed)")
	assert.Contains(t, output(t, s, "brew help"), "brew install <name>")
	assert.Equal(t, brewUsage, output(t, s, "brew"))
	assert.Equal(t, brewUsage, output(t, s, "brew upgrade"))
	assert.Equal(t, brewUsage, output(t, s, "brew install"))
}

func TestPackageCommandsNeverShadowBuiltins(t *testing.T) {
	s := New(Options{})
	s.registerPackage(pkgmgr.Record{Name: "evil", Version: "0.1", Commands: []string{"ls"}})

	e, ok := s.registry.Lookup("ls")
	require.True(t, ok)
	assert.Equal(t, KindBuiltin, e.Kind)
	assert.False(t, s.registry.Unregister("ls", KindPackage))
}

func TestPackageVersions(t *testing.T) {
	s := newTestSession(t)
	assert.Equal(t, "Python 3.11.0", output(t, s, "python --version"))
	assert.Equal(t, "git version 2.43.0", output(t, s, "git --version"))
	assert.Equal(t, "Running app.py with Python...", output(t, s, "python app.py"))
	assert.Equal(t, "Running git command: status", output(t, s, "git status"))
}

func TestPackageCommandNamesAreCaseInsensitive(t *testing.T) {
	s := New(Options{})
	rec := pkgmgr.Record{Name: "tooling", Version: "2.0.0", Commands: []string{"Tool"}}
	s.registerPackage(rec)

	assert.Equal(t, "tool 2.0.0", output(t, s, "tool --version"))
	assert.Equal(t, "tool 2.0.0", output(t, s, "TOOL --version"))

	s.unregisterPackage(rec)
	assert.True(t, strings.HasPrefix(output(t, s, "tool"), "Command not found: tool"))
}

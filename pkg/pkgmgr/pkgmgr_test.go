package pkgmgr

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetInstallUninstall(t *testing.T) {
	set := NewSet(DefaultRecords())

	rec, err := set.Install("node")
	assert.ErrorIs(t, err, ErrAlreadyInstalled)
	assert.Equal(t, []string{"node", "npm"}, rec.Commands)

	rec, err = set.Install("go")
	require.NoError(t, err)
	assert.True(t, rec.Installed())

	_, err = set.Install("cobol")
	assert.ErrorIs(t, err, ErrUnknownPackage)

	_, err = set.Uninstall("node")
	require.NoError(t, err)
	_, err = set.Uninstall("node")
	assert.ErrorIs(t, err, ErrNotInstalled)

	var names []string
	for _, r := range set.Installed() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"python", "git", "go"}, names)
}

func TestSetIsIndependentOfSource(t *testing.T) {
	records := DefaultRecords()
	a := NewSet(records)
	b := NewSet(records)

	_, err := a.Uninstall("git")
	require.NoError(t, err)

	got, ok := b.Get("git")
	require.True(t, ok)
	assert.True(t, got.Installed())
	assert.True(t, records[2].Installed())
}

func TestSearchMatchesSubstring(t *testing.T) {
	set := NewSet(DefaultRecords())
	results := set.Search("o")
	var names []string
	for _, r := range results {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"node", "python", "go", "deno"}, names)
	assert.Empty(t, set.Search("zzz"))
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`packages:
  - name: jq
    version: "1.7"
    commands: [jq]
  - name: node
    version: "18.0.0"
    status: installed
    commands: [node]
`), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	records := c.Records()
	require.Len(t, records, 2)
	assert.Equal(t, StatusNotInstalled, records[0].Status)
	assert.True(t, records[1].Installed())

	defaults, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Len(t, defaults.Records(), len(DefaultRecords()))
}

func TestLoadCatalogRejectsConflicts(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"dup-name.yaml":    "packages:\n  - {name: a}\n  - {name: a}\n",
		"dup-command.yaml": "packages:\n  - {name: a, commands: [x]}\n  - {name: b, commands: [x]}\n",
		"bad-status.yaml":  "packages:\n  - {name: a, status: broken}\n",
		"no-name.yaml":     "packages:\n  - {version: '1'}\n",
		"upper-cmd.yaml":   "packages:\n  - {name: a, commands: [Tool]}\n",
		"blank-cmd.yaml":   "packages:\n  - {name: a, commands: ['']}\n",
	}
	for file, body := range cases {
		path := filepath.Join(dir, file)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		_, err := LoadCatalog(path)
		assert.Error(t, err, file)
	}
}

func TestReloadKeepsRecordsOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("packages:\n  - {name: a}\n"), 0o644))
	c, err := LoadCatalog(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("packages: [\n"), 0o644))
	assert.Error(t, c.Reload())
	assert.Len(t, c.Records(), 1)
}

func TestWatcherReloadsCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("packages:\n  - {name: a}\n"), 0o644))
	c, err := LoadCatalog(path)
	require.NoError(t, err)

	w := NewWatcher(c)
	w.delay = 10 * time.Millisecond
	var attempts atomic.Int32
	w.OnReload(func(err error) {
		if err == nil {
			attempts.Add(1)
		}
	})
	reloaded := w.Reloaded()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-reloaded:
			assert.Len(t, c.Records(), 2)
			assert.GreaterOrEqual(t, attempts.Load(), int32(1))
			return
		case <-tick.C:
			require.NoError(t, os.WriteFile(path, []byte("packages:\n  - {name: a}\n  - {name: b}\n"), 0o644))
		case <-deadline:
			t.Fatal("catalog was not reloaded")
		}
	}
}

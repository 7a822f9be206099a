package vfs

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateThenResolveIsEmptyFile(t *testing.T) {
	s := NewSeeded()
	for _, parent := range []string{"/", "/Documents", "/Downloads"} {
		info, err := s.Create(parent, "new.txt", KindFile)
		require.NoError(t, err, parent)
		assert.False(t, info.IsDir())

		got, err := s.Resolve(info.Path)
		require.NoError(t, err)
		assert.Equal(t, KindFile, got.Kind)
		assert.Zero(t, got.Size)

		content, err := s.Read(info.Path)
		require.NoError(t, err)
		assert.Empty(t, content)
	}
}

func TestCreateRejectsDuplicatesAndFileParents(t *testing.T) {
	s := NewSeeded()

	_, err := s.Create("/", "Documents", KindDirectory)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = s.Create("/Documents/notes.txt", "x", KindFile)
	assert.ErrorIs(t, err, ErrNotDirectory)

	_, err = s.Create("/missing", "x", KindFile)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, name := range []string{"", ".", "..", "a/b", "~"} {
		_, err = s.Create("/", name, KindFile)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}

	var perr *PathError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "create", perr.Op)
}

func TestMkdirAllRejectsBeforeCreating(t *testing.T) {
	s := NewSeeded()

	err := s.MkdirAll("/a/b/~")
	assert.ErrorIs(t, err, ErrInvalidName)
	assert.False(t, s.Exists("/a"))

	err = s.MkdirAll("/Documents/notes.txt/deeper")
	assert.ErrorIs(t, err, ErrNotDirectory)
	entries, err := s.List("/Documents")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, s.MkdirAll("/Documents/x/y"))
	info, err := s.Resolve("/Documents/x/y")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestListKeepsInsertionOrder(t *testing.T) {
	s := NewStore()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := s.Create("/", name, KindFile)
		require.NoError(t, err)
	}
	entries, err := s.List("/")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)

	require.NoError(t, s.Remove("/alpha", false))
	require.NoError(t, s.Write("/alpha", []byte("again")))
	entries, err = s.List("/")
	require.NoError(t, err)
	assert.Equal(t, "alpha", entries[2].Name)
}

func TestRemove(t *testing.T) {
	s := NewSeeded()

	err := s.Remove("/Documents", false)
	assert.ErrorIs(t, err, ErrNotEmpty)
	assert.True(t, s.Exists("/Documents/notes.txt"))

	require.NoError(t, s.Remove("/Downloads", false))
	assert.False(t, s.Exists("/Downloads"))

	require.NoError(t, s.Remove("/Documents", true))
	_, err = s.Resolve("/Documents")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Remove("/", true), ErrRootImmutable)
	assert.ErrorIs(t, s.Remove("/nope", true), ErrNotFound)
}

func TestCopyIsDeep(t *testing.T) {
	s := NewSeeded()
	require.NoError(t, s.Copy("/Documents", "/Backup"))

	require.NoError(t, s.Write("/Backup/notes.txt", []byte("changed")))
	orig, err := s.Read("/Documents/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "This is a note.", string(orig))

	assert.ErrorIs(t, s.Copy("/Documents", "/Backup"), ErrDestinationExists)
	assert.ErrorIs(t, s.Copy("/missing", "/x"), ErrNotFound)
	assert.ErrorIs(t, s.Copy("/Documents", "/Documents/inner"), ErrInvalidOperation)
	assert.ErrorIs(t, s.Copy("/Documents", "/nope/x"), ErrNotFound)
}

func TestMoveFailureLeavesTreeIntact(t *testing.T) {
	s := NewSeeded()
	require.NoError(t, s.Write("/Downloads/notes.txt", nil))

	err := s.Move("/Documents/notes.txt", "/Downloads/notes.txt")
	assert.ErrorIs(t, err, ErrDestinationExists)
	assert.True(t, s.Exists("/Documents/notes.txt"))

	require.NoError(t, s.Move("/Documents/notes.txt", "/Downloads/renamed.txt"))
	assert.False(t, s.Exists("/Documents/notes.txt"))
	content, err := s.Read("/Downloads/renamed.txt")
	require.NoError(t, err)
	assert.Equal(t, "This is a note.", string(content))

	assert.ErrorIs(t, s.Move("/", "/x"), ErrRootImmutable)
}

func TestWrite(t *testing.T) {
	s := NewSeeded()
	require.NoError(t, s.Write("/Documents/notes.txt", []byte("over")))
	content, err := s.Read("/Documents/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "over", string(content))

	assert.ErrorIs(t, s.Write("/Documents", []byte("x")), ErrIsDirectory)
	assert.ErrorIs(t, s.Write("/missing/file", []byte("x")), ErrNotFound)

	_, err = s.Read("/Documents")
	assert.ErrorIs(t, err, ErrIsDirectory)
}

func TestChmodKeepsType(t *testing.T) {
	s := NewSeeded()
	require.NoError(t, s.Chmod("/Documents", 0o700))
	info, err := s.Resolve("/Documents")
	require.NoError(t, err)
	assert.True(t, info.Mode.IsDir())
	assert.Equal(t, fs.FileMode(0o700), info.Mode.Perm())
}

func TestWalkAndGlob(t *testing.T) {
	s := NewSeeded()
	require.NoError(t, s.MkdirAll("/Documents/work/old"))
	require.NoError(t, s.Write("/Documents/work/old/plan.md", []byte("# plan")))

	var seen []string
	require.NoError(t, s.Walk("/", func(p string, _ Info) error {
		seen = append(seen, p)
		return nil
	}))
	assert.Equal(t, []string{
		"/",
		"/Documents",
		"/Documents/notes.txt",
		"/Documents/work",
		"/Documents/work/old",
		"/Documents/work/old/plan.md",
		"/Downloads",
	}, seen)

	matches, err := s.Glob("/", "**/*.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"Documents/work/old/plan.md"}, matches)

	matches, err = s.Glob("/Documents", "*.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt"}, matches)

	_, err = s.Glob("/", "[")
	assert.Error(t, err)
}

func TestSplit(t *testing.T) {
	base := []string{"Documents"}
	cases := []struct {
		path string
		want []string
	}{
		{"notes.txt", []string{"Documents", "notes.txt"}},
		{"..", nil},
		{"../..", nil},
		{"/Downloads", []string{"Downloads"}},
		{"~", nil},
		{"~/Downloads/./x", []string{"Downloads", "x"}},
		{"a//b", []string{"Documents", "a", "b"}},
	}
	for _, tc := range cases {
		got := Split(base, tc.path)
		if len(tc.want) == 0 {
			assert.Empty(t, got, tc.path)
			continue
		}
		assert.Equal(t, tc.want, got, tc.path)
	}
	assert.Equal(t, "~/Documents", Display(base))
	assert.Equal(t, "~", Display(nil))
}

func TestTreeSnapshot(t *testing.T) {
	s := NewSeeded()
	tree, err := s.Tree("/")
	require.NoError(t, err)
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "Documents", tree.Children[0].Name)
	assert.Equal(t, "directory", tree.Children[0].Type)
	assert.Equal(t, "This is a note.", tree.Children[0].Children[0].Content)
}

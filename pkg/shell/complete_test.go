package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteAmbiguousPrefixLeavesInput(t *testing.T) {
	s := newTestSession(t)
	assert.Equal(t, "cd D", s.Complete("cd D"))
	assert.Equal(t, "cd do", s.Complete("cd do"))
	assert.Equal(t, "cd Documents", s.Complete("cd Doc"))

	s.Run("mkdir Docs")
	assert.Equal(t, "cd Doc", s.Complete("cd Doc"))
	assert.Equal(t, "cd Docs", s.Complete("cd Docs"))
}

func TestCompleteUniquePrefix(t *testing.T) {
	s := newTestSession(t)
	require.Contains(t, output(t, s, "rm Downloads"), "File removed")
	assert.Equal(t, "cd Documents", s.Complete("cd Doc"))
	assert.Equal(t, "cd Documents", s.Complete("cd doc"))
}

func TestCompleteUsesWorkingDirectory(t *testing.T) {
	s := newTestSession(t)
	s.Run("cd Documents")
	assert.Equal(t, "cd notes.txt", s.Complete("cd no"))
	assert.Equal(t, "cd Doc", s.Complete("cd Doc"))
}

func TestCompleteIgnoresOtherInput(t *testing.T) {
	s := newTestSession(t)
	s.Run("rm Downloads")
	for _, in := range []string{"", "cd", "cd ", "ls Doc", "cat Doc", "cd Doc extra", "CD Doc"} {
		assert.Equal(t, in, s.Complete(in), in)
	}
	assert.Equal(t, "cd zzz", s.Complete("cd zzz"))
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDotenv(t *testing.T) {
	vars, err := ParseDotenv(strings.NewReader(`
# comment
export VSH_HTTP_ADDR=":8081"
VSH_USER='guest'
not a pair
=orphan
`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"VSH_HTTP_ADDR": ":8081", "VSH_USER": "guest"}, vars)
}

func TestLoadDotenvKeepsExistingAndIgnoresForeignKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("VSH_USER=guest\nVSH_LOG_LEVEL=debug\nVSH_TEST_OTHER_KEY=x\nHOME_DOTENV_TEST=y\n"), 0o644))
	t.Setenv("VSH_LOG_LEVEL", "warn")
	t.Setenv("VSH_USER", "")
	os.Unsetenv("VSH_USER")
	t.Setenv("HOME_DOTENV_TEST", "")
	os.Unsetenv("HOME_DOTENV_TEST")
	t.Setenv("VSH_TEST_OTHER_KEY", "")
	os.Unsetenv("VSH_TEST_OTHER_KEY")

	require.NoError(t, LoadDotenv(path))
	assert.Equal(t, "guest", os.Getenv("VSH_USER"))
	assert.Equal(t, "warn", os.Getenv("VSH_LOG_LEVEL"))
	assert.Equal(t, "x", os.Getenv("VSH_TEST_OTHER_KEY"))
	_, set := os.LookupEnv("HOME_DOTENV_TEST")
	assert.False(t, set)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "guest", cfg.Shell.User)

	assert.NoError(t, LoadDotenv(filepath.Join(t.TempDir(), "missing.env")))
}

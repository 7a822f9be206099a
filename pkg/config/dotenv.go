package config

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// ParseDotenv reads KEY=value lines. Blank lines, comments and lines without
// "=" are skipped; an "export " prefix and surrounding quotes are dropped.
func ParseDotenv(r io.Reader) (map[string]string, error) {
	vars := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		vars[key] = strings.Trim(strings.TrimSpace(val), `"'`)
	}
	return vars, scanner.Err()
}

// LoadDotenv exports the VSH_* variables of a dotenv file that are not
// already set. A missing file is not an error.
func LoadDotenv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	vars, err := ParseDotenv(f)
	if err != nil {
		return err
	}
	for key, val := range vars {
		if !strings.HasPrefix(key, "VSH_") {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, val); err != nil {
			return err
		}
	}
	return nil
}

package pkgmgr

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Catalog holds the package definitions new sessions start from. It is shared
// between sessions and may be reloaded while the server runs.
type Catalog struct {
	path string

	mu      sync.RWMutex
	records []Record
}

type catalogFile struct {
	Packages []Record `yaml:"packages"`
}

// DefaultRecords is the built-in catalog used when no catalog file is set.
func DefaultRecords() []Record {
	return []Record{
		{Name: "node", Version: "20.11.0", Status: StatusInstalled, Commands: []string{"node", "npm"}, Description: "JavaScript runtime"},
		{Name: "python", Version: "3.11.0", Status: StatusInstalled, Commands: []string{"python", "pip"}, Description: "Python interpreter"},
		{Name: "git", Version: "2.43.0", Status: StatusInstalled, Commands: []string{"git"}, Description: "Distributed version control"},
		{Name: "go", Version: "1.22.0", Status: StatusNotInstalled, Commands: []string{"go", "gofmt"}, Description: "Go toolchain"},
		{Name: "rust", Version: "1.75.0", Status: StatusNotInstalled, Commands: []string{"rustc", "cargo"}, Description: "Rust compiler and cargo"},
		{Name: "ruby", Version: "3.3.0", Status: StatusNotInstalled, Commands: []string{"ruby", "gem", "irb"}, Description: "Ruby interpreter"},
		{Name: "deno", Version: "1.40.0", Status: StatusNotInstalled, Commands: []string{"deno"}, Description: "Secure JavaScript runtime"},
	}
}

// NewCatalog returns a catalog with a fixed set of records.
func NewCatalog(records []Record) *Catalog {
	return &Catalog{records: cloneRecords(records)}
}

// LoadCatalog reads a YAML catalog from path. An empty path yields the
// default catalog.
func LoadCatalog(path string) (*Catalog, error) {
	c := &Catalog{path: path}
	if path == "" {
		c.records = DefaultRecords()
		return c, nil
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the file the catalog was loaded from, if any.
func (c *Catalog) Path() string {
	return c.path
}

// Reload re-reads the catalog file. On error the previous records stay.
func (c *Catalog) Reload() error {
	if c.path == "" {
		return nil
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}
	if err := validate(file.Packages); err != nil {
		return fmt.Errorf("invalid catalog %s: %w", c.path, err)
	}

	c.mu.Lock()
	c.records = file.Packages
	c.mu.Unlock()
	return nil
}

// Records returns a copy of the current records.
func (c *Catalog) Records() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneRecords(c.records)
}

func validate(records []Record) error {
	names := make(map[string]bool, len(records))
	commands := make(map[string]string)
	for _, r := range records {
		if r.Name == "" {
			return errors.New("package without name")
		}
		if names[r.Name] {
			return fmt.Errorf("duplicate package %q", r.Name)
		}
		names[r.Name] = true
		switch r.Status {
		case StatusInstalled, StatusNotInstalled:
		case "":
		default:
			return fmt.Errorf("package %q: unknown status %q", r.Name, r.Status)
		}
		for _, cmd := range r.Commands {
			if cmd == "" || strings.ContainsAny(cmd, " \t/") || cmd != strings.ToLower(cmd) {
				return fmt.Errorf("package %q: invalid command name %q", r.Name, cmd)
			}
			if owner, ok := commands[cmd]; ok {
				return fmt.Errorf("command %q provided by both %q and %q", cmd, owner, r.Name)
			}
			commands[cmd] = r.Name
		}
	}
	return nil
}

func cloneRecords(in []Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = r.clone()
	}
	return out
}

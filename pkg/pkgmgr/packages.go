// Package pkgmgr simulates a package manager: records that, once installed,
// make extra command names dispatchable in a shell session.
package pkgmgr

import (
	"errors"
	"strings"
)

type Status string

const (
	StatusInstalled    Status = "installed"
	StatusNotInstalled Status = "not installed"
)

var (
	ErrUnknownPackage   = errors.New("package not found")
	ErrAlreadyInstalled = errors.New("package already installed")
	ErrNotInstalled     = errors.New("package not installed")
)

// Record describes one installable package.
type Record struct {
	Name        string   `yaml:"name" json:"name"`
	Version     string   `yaml:"version" json:"version"`
	Status      Status   `yaml:"status" json:"status"`
	Commands    []string `yaml:"commands" json:"commands"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
}

func (r Record) Installed() bool {
	return r.Status == StatusInstalled
}

func (r Record) clone() Record {
	r.Commands = append([]string(nil), r.Commands...)
	if r.Status == "" {
		r.Status = StatusNotInstalled
	}
	return r
}

// Set is the per-session install state, seeded from a catalog.
type Set struct {
	records []Record
}

// NewSet copies records into a fresh install state.
func NewSet(records []Record) *Set {
	return &Set{records: cloneRecords(records)}
}

func (s *Set) find(name string) int {
	for i := range s.records {
		if s.records[i].Name == name {
			return i
		}
	}
	return -1
}

// Get returns the record called name.
func (s *Set) Get(name string) (Record, bool) {
	i := s.find(name)
	if i < 0 {
		return Record{}, false
	}
	return s.records[i].clone(), true
}

// Installed lists installed records in catalog order.
func (s *Set) Installed() []Record {
	var out []Record
	for _, r := range s.records {
		if r.Installed() {
			out = append(out, r.clone())
		}
	}
	return out
}

// Search returns every record whose name contains query.
func (s *Set) Search(query string) []Record {
	var out []Record
	for _, r := range s.records {
		if strings.Contains(r.Name, query) {
			out = append(out, r.clone())
		}
	}
	return out
}

// Install marks name installed and returns its record.
func (s *Set) Install(name string) (Record, error) {
	i := s.find(name)
	if i < 0 {
		return Record{}, ErrUnknownPackage
	}
	if s.records[i].Installed() {
		return s.records[i].clone(), ErrAlreadyInstalled
	}
	s.records[i].Status = StatusInstalled
	return s.records[i].clone(), nil
}

// Uninstall marks name not installed and returns its record.
func (s *Set) Uninstall(name string) (Record, error) {
	i := s.find(name)
	if i < 0 {
		return Record{}, ErrUnknownPackage
	}
	if !s.records[i].Installed() {
		return s.records[i].clone(), ErrNotInstalled
	}
	s.records[i].Status = StatusNotInstalled
	return s.records[i].clone(), nil
}

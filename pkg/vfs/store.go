// Package vfs implements the in-memory filesystem tree behind a shell session.
//
// Paths are slash separated and absolute ("/Documents/notes.txt"); relative
// paths are resolved with Split before they reach the store. Every mutation
// validates first and mutates second, so a failed call leaves the tree as it
// was.
package vfs

import (
	"io/fs"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Store owns the node tree of one session. It is not safe for concurrent use.
type Store struct {
	root *node
	now  func() time.Time
}

// NewStore returns an empty store holding only the root directory.
func NewStore() *Store {
	s := &Store{now: time.Now}
	s.root = newNode(Root, KindDirectory, s.now())
	return s
}

// SetClock overrides the time source used for modification times.
func (s *Store) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Store) lookup(segments []string) (*node, error) {
	cur := s.root
	for _, seg := range segments {
		if !cur.isDir() {
			return nil, ErrNotDirectory
		}
		next, ok := cur.children.get(seg)
		if !ok {
			return nil, ErrNotFound
		}
		cur = next
	}
	return cur, nil
}

// parent returns the directory that holds the last segment.
func (s *Store) parent(segments []string) (*node, error) {
	dir, err := s.lookup(segments[:len(segments)-1])
	if err != nil {
		return nil, err
	}
	if !dir.isDir() {
		return nil, ErrNotDirectory
	}
	return dir, nil
}

// Resolve returns the node at path.
func (s *Store) Resolve(path string) (Info, error) {
	segs := Split(nil, path)
	n, err := s.lookup(segs)
	if err != nil {
		return Info{}, pathErr("resolve", path, err)
	}
	return n.info(Format(segs)), nil
}

// Exists reports whether path resolves.
func (s *Store) Exists(path string) bool {
	_, err := s.lookup(Split(nil, path))
	return err == nil
}

// Create adds an empty file or directory named name under parentPath.
func (s *Store) Create(parentPath, name string, kind Kind) (Info, error) {
	segs := Split(nil, parentPath)
	full := Join(Format(segs), name)
	if !validName(name) {
		return Info{}, pathErr("create", full, ErrInvalidName)
	}
	dir, err := s.lookup(segs)
	if err != nil {
		return Info{}, pathErr("create", full, err)
	}
	if !dir.isDir() {
		return Info{}, pathErr("create", full, ErrNotDirectory)
	}
	if _, ok := dir.children.get(name); ok {
		return Info{}, pathErr("create", full, ErrAlreadyExists)
	}
	n := newNode(name, kind, s.now())
	dir.children.put(n)
	dir.modTime = n.modTime
	return n.info(full), nil
}

// MkdirAll creates path and any missing parents. Existing directories are
// left untouched. Nothing is created unless the whole path can be.
func (s *Store) MkdirAll(path string) error {
	segs := Split(nil, path)
	for _, seg := range segs {
		if !validName(seg) {
			return pathErr("mkdir", path, ErrInvalidName)
		}
	}
	cur := s.root
	i := 0
	for ; i < len(segs); i++ {
		next, ok := cur.children.get(segs[i])
		if !ok {
			break
		}
		if !next.isDir() {
			return pathErr("mkdir", path, ErrNotDirectory)
		}
		cur = next
	}
	for ; i < len(segs); i++ {
		next := newNode(segs[i], KindDirectory, s.now())
		cur.children.put(next)
		cur.modTime = next.modTime
		cur = next
	}
	return nil
}

// Remove deletes the node at path. Non-empty directories require recursive.
func (s *Store) Remove(path string, recursive bool) error {
	segs := Split(nil, path)
	if len(segs) == 0 {
		return pathErr("remove", path, ErrRootImmutable)
	}
	n, err := s.lookup(segs)
	if err != nil {
		return pathErr("remove", path, err)
	}
	if n.isDir() && n.children.len() > 0 && !recursive {
		return pathErr("remove", path, ErrNotEmpty)
	}
	dir, err := s.parent(segs)
	if err != nil {
		return pathErr("remove", path, err)
	}
	dir.children.delete(n.name)
	dir.modTime = s.now()
	return nil
}

// Copy deep copies src to dst. dst must not exist and its parent must be a
// directory. A directory cannot be copied into its own subtree.
func (s *Store) Copy(src, dst string) error {
	n, dir, name, err := s.prepareTransfer("copy", src, dst)
	if err != nil {
		return err
	}
	now := s.now()
	dir.children.put(n.clone(name, now))
	dir.modTime = now
	return nil
}

// Move is Copy followed by removing src. Both steps are validated before the
// tree changes.
func (s *Store) Move(src, dst string) error {
	n, dir, name, err := s.prepareTransfer("move", src, dst)
	if err != nil {
		return err
	}
	srcSegs := Split(nil, src)
	srcDir, err := s.parent(srcSegs)
	if err != nil {
		return pathErr("move", src, err)
	}
	now := s.now()
	dir.children.put(n.clone(name, now))
	srcDir.children.delete(n.name)
	dir.modTime = now
	srcDir.modTime = now
	return nil
}

func (s *Store) prepareTransfer(op, src, dst string) (*node, *node, string, error) {
	srcSegs := Split(nil, src)
	dstSegs := Split(nil, dst)
	if len(srcSegs) == 0 || len(dstSegs) == 0 {
		return nil, nil, "", pathErr(op, src, ErrRootImmutable)
	}
	n, err := s.lookup(srcSegs)
	if err != nil {
		return nil, nil, "", pathErr(op, src, err)
	}
	if isPrefix(srcSegs, dstSegs) {
		return nil, nil, "", pathErr(op, dst, ErrInvalidOperation)
	}
	name := dstSegs[len(dstSegs)-1]
	if !validName(name) {
		return nil, nil, "", pathErr(op, dst, ErrInvalidName)
	}
	dir, err := s.parent(dstSegs)
	if err != nil {
		return nil, nil, "", pathErr(op, dst, err)
	}
	if _, ok := dir.children.get(name); ok {
		return nil, nil, "", pathErr(op, dst, ErrDestinationExists)
	}
	return n, dir, name, nil
}

// Write replaces the content of the file at path, creating it when absent.
func (s *Store) Write(path string, content []byte) error {
	segs := Split(nil, path)
	if len(segs) == 0 {
		return pathErr("write", path, ErrIsDirectory)
	}
	dir, err := s.parent(segs)
	if err != nil {
		return pathErr("write", path, err)
	}
	name := segs[len(segs)-1]
	if !validName(name) {
		return pathErr("write", path, ErrInvalidName)
	}
	now := s.now()
	n, ok := dir.children.get(name)
	if !ok {
		n = newNode(name, KindFile, now)
		dir.children.put(n)
		dir.modTime = now
	}
	if n.isDir() {
		return pathErr("write", path, ErrIsDirectory)
	}
	n.content = append([]byte(nil), content...)
	n.modTime = now
	return nil
}

// Read returns a copy of the content of the file at path.
func (s *Store) Read(path string) ([]byte, error) {
	n, err := s.lookup(Split(nil, path))
	if err != nil {
		return nil, pathErr("read", path, err)
	}
	if n.isDir() {
		return nil, pathErr("read", path, ErrIsDirectory)
	}
	return append([]byte(nil), n.content...), nil
}

// List returns the children of the directory at path in insertion order.
func (s *Store) List(path string) ([]Info, error) {
	segs := Split(nil, path)
	n, err := s.lookup(segs)
	if err != nil {
		return nil, pathErr("list", path, err)
	}
	if !n.isDir() {
		return nil, pathErr("list", path, ErrNotDirectory)
	}
	dir := Format(segs)
	out := make([]Info, 0, n.children.len())
	n.children.each(func(child *node) bool {
		out = append(out, child.info(Join(dir, child.name)))
		return true
	})
	return out, nil
}

// Chmod sets the permission bits of the node at path.
func (s *Store) Chmod(path string, mode fs.FileMode) error {
	n, err := s.lookup(Split(nil, path))
	if err != nil {
		return pathErr("chmod", path, err)
	}
	n.mode = n.mode.Type() | mode.Perm()
	return nil
}

// WalkFunc is called for every node below the walk root. Returning
// fs.SkipDir skips a directory's children.
type WalkFunc func(path string, info Info) error

// Walk visits path and its descendants depth first in insertion order.
func (s *Store) Walk(path string, fn WalkFunc) error {
	segs := Split(nil, path)
	n, err := s.lookup(segs)
	if err != nil {
		return pathErr("walk", path, err)
	}
	err = walk(n, Format(segs), fn)
	if err == fs.SkipDir || err == fs.SkipAll {
		return nil
	}
	return err
}

func walk(n *node, path string, fn WalkFunc) error {
	if err := fn(path, n.info(path)); err != nil {
		if err == fs.SkipDir && n.isDir() {
			return nil
		}
		return err
	}
	if !n.isDir() {
		return nil
	}
	var err error
	n.children.each(func(child *node) bool {
		err = walk(child, Join(path, child.name), fn)
		return err == nil
	})
	return err
}

// Glob returns the paths below base, relative to base, whose relative path
// matches pattern. Matching follows doublestar semantics so "**" crosses
// directories.
func (s *Store) Glob(base, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, pathErr("glob", pattern, doublestar.ErrBadPattern)
	}
	root := Format(Split(nil, base))
	var matches []string
	err := s.Walk(root, func(p string, _ Info) error {
		if p == root {
			return nil
		}
		rel := strings.TrimPrefix(p[len(root):], "/")
		if ok, _ := doublestar.Match(pattern, rel); ok {
			matches = append(matches, rel)
		}
		return nil
	})
	return matches, err
}

// Tree returns a snapshot of the subtree at path.
func (s *Store) Tree(path string) (*TreeNode, error) {
	segs := Split(nil, path)
	n, err := s.lookup(segs)
	if err != nil {
		return nil, pathErr("tree", path, err)
	}
	return n.tree(Format(segs)), nil
}

// IsDir reports whether segments resolve to a directory.
func (s *Store) IsDir(segments []string) bool {
	n, err := s.lookup(segments)
	return err == nil && n.isDir()
}

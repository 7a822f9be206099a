package shell

import (
	"fmt"
	"strings"

	"github.com/sameehj/vsh/pkg/vfs"
)

// cmdFind implements "find [dir] [-name] <pattern>". Patterns without glob
// characters match any name containing them.
func cmdFind(s *Session, args []string) string {
	rest := args[1:]
	dir, pattern := ".", ""
	for i := 0; i < len(rest); i++ {
		switch {
		case rest[i] == "-name" && i+1 < len(rest):
			pattern = rest[i+1]
			i++
		case pattern == "" && i == len(rest)-1:
			pattern = rest[i]
		default:
			dir = rest[i]
		}
	}
	if pattern == "" {
		return "usage: find [dir] [-name] <pattern>"
	}

	base := s.path(dir)
	if !s.fs.IsDir(vfs.Split(nil, base)) {
		return fmt.Sprintf("find: %s: No such directory", dir)
	}
	glob := pattern
	if !strings.ContainsAny(pattern, "*?[{") {
		glob = "*" + pattern + "*"
	}
	matches, err := s.fs.Glob(base, "**/"+glob)
	if err != nil {
		return fmt.Sprintf("find: bad pattern: %s", pattern)
	}
	prefix := strings.TrimSuffix(dir, "/") + "/"
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, prefix+m)
	}
	return strings.Join(out, "\n")
}

// cmdGrep implements "grep [-i] [-n] [-r] <pattern> <path>...".
func cmdGrep(s *Session, args []string) string {
	flags, positional := splitFlags(args[1:])
	if len(positional) < 2 {
		return "usage: grep [-i] [-n] [-r] <pattern> <file>..."
	}
	pattern, targets := positional[0], positional[1:]
	recursive := flags["r"] || flags["R"]
	ignoreCase := flags["i"]
	if ignoreCase {
		pattern = strings.ToLower(pattern)
	}

	type file struct {
		label string
		path  string
	}
	var files []file
	var out []string
	for _, target := range targets {
		info, err := s.fs.Resolve(s.path(target))
		if err != nil {
			out = append(out, failure("grep", target, err))
			continue
		}
		if !info.IsDir() {
			files = append(files, file{label: target, path: info.Path})
			continue
		}
		if !recursive {
			out = append(out, failure("grep", target, vfs.ErrIsDirectory))
			continue
		}
		_ = s.fs.Walk(info.Path, func(p string, fi vfs.Info) error {
			if !fi.IsDir() {
				rel := strings.TrimPrefix(strings.TrimPrefix(p, info.Path), "/")
				files = append(files, file{label: strings.TrimSuffix(target, "/") + "/" + rel, path: p})
			}
			return nil
		})
	}

	labelled := len(files) > 1 || recursive
	for _, f := range files {
		content, err := s.fs.Read(f.path)
		if err != nil {
			out = append(out, failure("grep", f.label, err))
			continue
		}
		for i, line := range strings.Split(string(content), "\n") {
			hay := line
			if ignoreCase {
				hay = strings.ToLower(line)
			}
			if !strings.Contains(hay, pattern) {
				continue
			}
			if flags["n"] {
				line = fmt.Sprintf("%d:%s", i+1, line)
			}
			if labelled {
				line = f.label + ":" + line
			}
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

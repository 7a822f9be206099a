package vfs

import "strings"

// Root is the display name of the root directory.
const Root = "~"

// Split resolves p against base and returns the absolute segment list.
// A leading "/" or "~" anchors p at the root; ".." never climbs above it.
func Split(base []string, p string) []string {
	var out []string
	switch {
	case p == Root || strings.HasPrefix(p, Root+"/"):
		p = strings.TrimPrefix(p, Root)
	case strings.HasPrefix(p, "/"):
	default:
		out = append(out, base...)
	}
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}
	return out
}

// Format renders segments as an absolute slash path.
func Format(segments []string) string {
	return "/" + strings.Join(segments, "/")
}

// Display renders segments the way the prompt shows them, e.g. "~/Documents".
func Display(segments []string) string {
	if len(segments) == 0 {
		return Root
	}
	return Root + "/" + strings.Join(segments, "/")
}

// Join appends name to an absolute slash path.
func Join(dir, name string) string {
	if dir == "/" || dir == "" {
		return "/" + name
	}
	return dir + "/" + name
}

// Base returns the last segment of p.
func Base(p string) string {
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && name != Root && !strings.Contains(name, "/")
}

func isPrefix(prefix, segments []string) bool {
	if len(prefix) > len(segments) {
		return false
	}
	for i := range prefix {
		if prefix[i] != segments[i] {
			return false
		}
	}
	return true
}

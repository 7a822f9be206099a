package shell

import (
	"strings"

	"github.com/sameehj/vsh/pkg/vfs"
)

// complete rewrites "cd <prefix>" to "cd <name>" when exactly one entry of
// the working directory starts with prefix, ignoring case. Anything else is
// returned unchanged: there is no common-prefix completion and no cycling.
func complete(store *vfs.Store, cwd []string, input string) string {
	fields := strings.Fields(input)
	if len(fields) != 2 || fields[0] != "cd" {
		return input
	}
	entries, err := store.List(vfs.Format(cwd))
	if err != nil {
		return input
	}
	prefix := strings.ToLower(fields[1])
	var match string
	count := 0
	for _, e := range entries {
		if strings.HasPrefix(strings.ToLower(e.Name), prefix) {
			match = e.Name
			count++
		}
	}
	if count != 1 {
		return input
	}
	return "cd " + match
}

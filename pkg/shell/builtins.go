package shell

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sameehj/vsh/pkg/vfs"
)

func builtinEntries() []Entry {
	return []Entry{
		{Name: "clear", Summary: "clear the screen", Run: func(*Session, []string) string { return "" }},
		{Name: "cd", Summary: "change directory", Run: cmdCd},
		{Name: "pwd", Summary: "print the working directory", Run: cmdPwd},
		{Name: "ls", Summary: "list directory contents", Run: cmdLs},
		{Name: "touch", Summary: "create empty files", Run: cmdTouch},
		{Name: "mkdir", Summary: "create directories", Run: cmdMkdir},
		{Name: "rm", Summary: "remove files or directories", Run: cmdRm},
		{Name: "cp", Summary: "copy files", Run: cmdCp},
		{Name: "mv", Summary: "move or rename files", Run: cmdMv},
		{Name: "cat", Summary: "print file contents", Run: cmdCat},
		{Name: "echo", Summary: "print text or write it to a file with >", Run: cmdEcho},
		{Name: "chmod", Summary: "change file permissions", Run: cmdChmod},
		{Name: "find", Summary: "find files by name", Run: cmdFind},
		{Name: "grep", Summary: "search file contents", Run: cmdGrep},
		{Name: "whoami", Summary: "print the current user", Run: cmdWhoami},
		{Name: "date", Summary: "print the date", Run: cmdDate},
		{Name: "ps", Summary: "list processes", Run: cmdPs},
		{Name: "kill", Summary: "terminate a process", Run: cmdKill},
		{Name: "ping", Summary: "ping a host", Run: cmdPing},
		{Name: "curl", Summary: "transfer a URL", Run: cmdCurl},
		{Name: "brew", Summary: "package manager (brew help for details)", Run: cmdBrew},
		{Name: "history", Summary: "show submitted commands", Run: cmdHistory},
		{Name: "which", Summary: "locate a command", Run: cmdWhich},
		{Name: "help", Summary: "show this help", Run: cmdHelp},
	}
}

// describe turns a vfs error into the message a shell would print.
func describe(err error) string {
	switch {
	case errors.Is(err, vfs.ErrNotFound):
		return "No such file or directory"
	case errors.Is(err, vfs.ErrNotDirectory):
		return "Not a directory"
	case errors.Is(err, vfs.ErrIsDirectory):
		return "Is a directory"
	case errors.Is(err, vfs.ErrAlreadyExists):
		return "File exists"
	case errors.Is(err, vfs.ErrDestinationExists):
		return "Destination already exists"
	case errors.Is(err, vfs.ErrNotEmpty):
		return "Directory not empty (use -r to remove it)"
	case errors.Is(err, vfs.ErrRootImmutable):
		return "Operation not permitted"
	case errors.Is(err, vfs.ErrInvalidName):
		return "Invalid file name"
	case errors.Is(err, vfs.ErrInvalidOperation):
		return "Cannot move or copy a directory into itself"
	default:
		return err.Error()
	}
}

func failure(cmd, arg string, err error) string {
	return fmt.Sprintf("%s: %s: %s", cmd, arg, describe(err))
}

// splitFlags separates "-x" style flags from positional arguments.
func splitFlags(args []string) (flags map[string]bool, positional []string) {
	flags = make(map[string]bool)
	for _, a := range args {
		if len(a) > 1 && strings.HasPrefix(a, "-") {
			for _, c := range a[1:] {
				flags[string(c)] = true
			}
			continue
		}
		positional = append(positional, a)
	}
	return flags, positional
}

func cmdCd(s *Session, args []string) string {
	if len(args) < 2 || args[1] == vfs.Root || args[1] == "/" {
		s.cwd = nil
		return ""
	}
	target := args[1]
	if target == ".." {
		if len(s.cwd) > 0 {
			s.cwd = s.cwd[:len(s.cwd)-1]
		}
		return ""
	}
	segs := s.abs(target)
	if !s.fs.IsDir(segs) {
		return fmt.Sprintf("cd: %s: No such directory", target)
	}
	s.cwd = segs
	return ""
}

func cmdPwd(s *Session, _ []string) string {
	return vfs.Display(s.cwd)
}

func cmdLs(s *Session, args []string) string {
	flags, positional := splitFlags(args[1:])
	target := "."
	if len(positional) > 0 {
		target = positional[0]
	}
	info, err := s.fs.Resolve(s.path(target))
	if err != nil {
		return failure("ls", target, err)
	}
	entries := []vfs.Info{info}
	if info.IsDir() {
		if entries, err = s.fs.List(info.Path); err != nil {
			return failure("ls", target, err)
		}
	}

	var out []string
	for _, e := range entries {
		if !flags["a"] && strings.HasPrefix(e.Name, ".") {
			continue
		}
		name := e.Name
		if e.IsDir() {
			name += "/"
		}
		if flags["l"] {
			out = append(out, fmt.Sprintf("%s %8s %s", e.Mode.String(), humanize.Bytes(uint64(e.Size)), name))
			continue
		}
		out = append(out, name)
	}
	if flags["l"] {
		return strings.Join(out, "\n")
	}
	return strings.Join(out, "  ")
}

func cmdTouch(s *Session, args []string) string {
	if len(args) < 2 {
		return "usage: touch <file>..."
	}
	var out []string
	for _, name := range args[1:] {
		segs := s.abs(name)
		if _, err := s.fs.Resolve(vfs.Format(segs)); err == nil {
			continue
		}
		if len(segs) == 0 {
			continue
		}
		if _, err := s.fs.Create(vfs.Format(segs[:len(segs)-1]), segs[len(segs)-1], vfs.KindFile); err != nil {
			out = append(out, failure("touch", name, err))
			continue
		}
		out = append(out, "File created: "+name)
	}
	return strings.Join(out, "\n")
}

func cmdMkdir(s *Session, args []string) string {
	flags, positional := splitFlags(args[1:])
	if len(positional) == 0 {
		return "usage: mkdir [-p] <directory>..."
	}
	var out []string
	for _, name := range positional {
		segs := s.abs(name)
		if flags["p"] {
			if err := s.fs.MkdirAll(vfs.Format(segs)); err != nil {
				out = append(out, failure("mkdir", name, err))
				continue
			}
			out = append(out, "Directory created: "+name)
			continue
		}
		if len(segs) == 0 {
			out = append(out, failure("mkdir", name, vfs.ErrAlreadyExists))
			continue
		}
		if _, err := s.fs.Create(vfs.Format(segs[:len(segs)-1]), segs[len(segs)-1], vfs.KindDirectory); err != nil {
			out = append(out, failure("mkdir", name, err))
			continue
		}
		out = append(out, "Directory created: "+name)
	}
	return strings.Join(out, "\n")
}

func isRecursiveFlag(arg string) bool {
	switch arg {
	case "-r", "-R", "-rf", "-fr", "-Rf", "-fR":
		return true
	}
	return false
}

// cmdRm treats the last argument as the target; a recursive flag counts
// anywhere before it.
func cmdRm(s *Session, args []string) string {
	if len(args) < 2 {
		return "usage: rm [-r|-rf] <target>"
	}
	target := args[len(args)-1]
	if strings.HasPrefix(target, "-") {
		return "usage: rm [-r|-rf] <target>"
	}
	recursive := false
	for _, a := range args[1 : len(args)-1] {
		if isRecursiveFlag(a) {
			recursive = true
		}
	}
	segs := s.abs(target)
	if s.containsCwd(segs) {
		return fmt.Sprintf("rm: %s: Cannot remove the current directory or one of its parents", target)
	}
	if err := s.fs.Remove(vfs.Format(segs), recursive); err != nil {
		return failure("rm", target, err)
	}
	if recursive {
		return "File removed: " + target + " (recursive)"
	}
	return "File removed: " + target
}

// transferTarget resolves dst, descending into it when it names an existing
// directory.
func (s *Session) transferTarget(src, dst string) string {
	dstPath := s.path(dst)
	if info, err := s.fs.Resolve(dstPath); err == nil && info.IsDir() {
		return vfs.Join(dstPath, vfs.Base(s.path(src)))
	}
	return dstPath
}

func cmdCp(s *Session, args []string) string {
	flags, positional := splitFlags(args[1:])
	if len(positional) != 2 {
		return "usage: cp [-r] <source> <destination>"
	}
	src, dst := positional[0], positional[1]
	info, err := s.fs.Resolve(s.path(src))
	if err != nil {
		return failure("cp", src, err)
	}
	if info.IsDir() && !flags["r"] && !flags["R"] {
		return fmt.Sprintf("cp: %s: Is a directory (not copied, use -r)", src)
	}
	if err := s.fs.Copy(info.Path, s.transferTarget(src, dst)); err != nil {
		return failure("cp", dst, err)
	}
	return fmt.Sprintf("File copied: %s → %s", src, dst)
}

func cmdMv(s *Session, args []string) string {
	_, positional := splitFlags(args[1:])
	if len(positional) != 2 {
		return "usage: mv <source> <destination>"
	}
	src, dst := positional[0], positional[1]
	segs := s.abs(src)
	if s.containsCwd(segs) {
		return fmt.Sprintf("mv: %s: Cannot move the current directory or one of its parents", src)
	}
	if err := s.fs.Move(vfs.Format(segs), s.transferTarget(src, dst)); err != nil {
		return failure("mv", src, err)
	}
	return fmt.Sprintf("File moved: %s → %s", src, dst)
}

func cmdCat(s *Session, args []string) string {
	if len(args) < 2 {
		return "usage: cat <file>..."
	}
	var out []string
	for _, name := range args[1:] {
		content, err := s.fs.Read(s.path(name))
		if err != nil {
			out = append(out, failure("cat", name, err))
			continue
		}
		if len(content) == 0 {
			out = append(out, "(empty file)")
			continue
		}
		out = append(out, string(content))
	}
	return strings.Join(out, "\n")
}

// cmdEcho prints its words, or writes the words before a literal ">" to the
// file named after it.
func cmdEcho(s *Session, args []string) string {
	words := args[1:]
	idx := -1
	for i, w := range words {
		if w == ">" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return strings.Join(words, " ")
	}
	if idx == len(words)-1 {
		return "echo: syntax error: expected a file name after >"
	}
	file := words[idx+1]
	if err := s.fs.Write(s.path(file), []byte(strings.Join(words[:idx], " "))); err != nil {
		return failure("echo", file, err)
	}
	return "Content written to file: " + file
}

func cmdChmod(s *Session, args []string) string {
	if len(args) != 3 {
		return "usage: chmod <octal-mode> <file>"
	}
	mode, err := strconv.ParseUint(args[1], 8, 32)
	if err != nil || mode > 0o777 {
		return fmt.Sprintf("chmod: invalid mode: %s", args[1])
	}
	if err := s.fs.Chmod(s.path(args[2]), fs.FileMode(mode)); err != nil {
		return failure("chmod", args[2], err)
	}
	return fmt.Sprintf("Changed permissions of %s to %s", args[2], args[1])
}

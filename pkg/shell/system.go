package shell

import (
	"fmt"
	"strconv"
	"strings"
)

// dateLayout matches JavaScript's Date.prototype.toString.
const dateLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

// systemEntries are read-only commands with canned output.
func systemEntries() []Entry {
	return []Entry{
		{Name: "df", Summary: "report disk usage", Run: canned("Filesystem information:\nFilesystem  Size  Used  Avail  Use%\n/           499G  374G  125G   75%")},
		{Name: "top", Summary: "monitor processes", Run: canned("Starting process monitor...")},
		{Name: "uname", Summary: "print system information", Run: cmdUname},
		{Name: "hostname", Summary: "print the host name", Run: func(s *Session, _ []string) string { return s.hostname }},
		{Name: "uptime", Summary: "show how long the system has been running", Run: canned("10:00  up 3 days,  2:14, 2 users, load averages: 1.52 1.48 1.45")},
		{Name: "free", Summary: "show memory usage", Run: canned("               total        used        free\nMem:            16Gi       9.2Gi       6.8Gi\nSwap:          2.0Gi       0.5Gi       1.5Gi")},
		{Name: "env", Summary: "print the environment", Run: cmdEnv},
		{Name: "tar", Summary: "archive files", Run: canned("Simulating archive operation...")},
		{Name: "zip", Summary: "compress files", Run: canned("Simulating compression...")},
		{Name: "unzip", Summary: "extract files", Run: canned("Simulating extraction...")},
	}
}

func canned(text string) HandlerFunc {
	return func(*Session, []string) string { return text }
}

func cmdUname(s *Session, args []string) string {
	if len(args) > 1 && args[1] == "-a" {
		return "Darwin " + s.hostname + " 23.2.0 Darwin Kernel Version 23.2.0 arm64"
	}
	return "Darwin"
}

func cmdEnv(s *Session, _ []string) string {
	return strings.Join([]string{
		"USER=" + s.user,
		"HOME=/Users/" + s.user,
		"SHELL=/bin/zsh",
		"TERM=xterm-256color",
	}, "\n")
}

func cmdWhoami(s *Session, _ []string) string {
	return s.user
}

func cmdDate(s *Session, _ []string) string {
	return s.now().Format(dateLayout)
}

func cmdPs(*Session, []string) string {
	return "PID TTY TIME CMD\n1234 ttys000 0:00.12 -zsh"
}

func cmdKill(_ *Session, args []string) string {
	if len(args) < 2 {
		return "usage: kill <pid>"
	}
	pid := args[len(args)-1]
	if _, err := strconv.Atoi(pid); err != nil {
		return fmt.Sprintf("kill: illegal process id: %s", pid)
	}
	return fmt.Sprintf("Attempting to terminate process %s...", pid)
}

func cmdPing(_ *Session, args []string) string {
	if len(args) < 2 {
		return "usage: ping <host>"
	}
	return fmt.Sprintf("PING %s (127.0.0.1): 56 data bytes\n64 bytes from 127.0.0.1: icmp_seq=0 ttl=64 time=0.037 ms", args[1])
}

func cmdCurl(_ *Session, args []string) string {
	if len(args) < 2 {
		return "curl: try 'curl <url>'"
	}
	return fmt.Sprintf("Sending request to %s...", args[len(args)-1])
}

func cmdHistory(s *Session, _ []string) string {
	out := make([]string, 0, len(s.commands))
	for i, c := range s.commands {
		out = append(out, fmt.Sprintf("%5d  %s", i+1, c.Command))
	}
	return strings.Join(out, "\n")
}

func cmdWhich(s *Session, args []string) string {
	if len(args) < 2 {
		return "usage: which <command>"
	}
	var out []string
	for _, name := range args[1:] {
		e, ok := s.registry.Lookup(strings.ToLower(name))
		switch {
		case !ok:
			out = append(out, name+" not found")
		case e.Kind == KindPackage:
			out = append(out, fmt.Sprintf("%s: provided by package %s", name, e.Package))
		case e.Kind == KindSystemInfo:
			out = append(out, name+": system command")
		default:
			out = append(out, name+": shell built-in command")
		}
	}
	return strings.Join(out, "\n")
}

func cmdHelp(s *Session, _ []string) string {
	var b strings.Builder
	b.WriteString("Available commands:")
	for _, name := range s.registry.Names(KindBuiltin) {
		e, _ := s.registry.Lookup(name)
		fmt.Fprintf(&b, "\n- %s: %s", name, e.Summary)
	}
	b.WriteString("\nSystem commands: ")
	b.WriteString(strings.Join(s.registry.Names(KindSystemInfo), ", "))
	if pkgs := s.registry.Names(KindPackage); len(pkgs) > 0 {
		b.WriteString("\nPackage commands: ")
		b.WriteString(strings.Join(pkgs, ", "))
	}
	return b.String()
}

package shell

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sameehj/vsh/pkg/pkgmgr"
)

const brewHelp = `Available brew commands:
- brew list: list installed packages
- brew search <name>: search packages
- brew install <name>: install a package
- brew uninstall <name>: remove a package
- brew info <name>: show package details
- brew help: show this help`

const brewUsage = `Unknown brew command. Run "brew help" to see available commands.`

func cmdBrew(s *Session, args []string) string {
	sub, name := "", ""
	if len(args) > 1 {
		sub = args[1]
	}
	if len(args) > 2 {
		name = args[2]
	}

	switch {
	case sub == "list":
		installed := s.packages.Installed()
		if len(installed) == 0 {
			return "No packages installed."
		}
		out := make([]string, 0, len(installed))
		for _, r := range installed {
			out = append(out, r.Name+" "+r.Version)
		}
		return strings.Join(out, "\n")

	case sub == "search" && name != "":
		results := s.packages.Search(name)
		if len(results) == 0 {
			return "No results found."
		}
		out := make([]string, 0, len(results))
		for _, r := range results {
			out = append(out, fmt.Sprintf("%s %s (%s)", r.Name, r.Version, r.Status))
		}
		return strings.Join(out, "\n")

	case sub == "install" && name != "":
		rec, err := s.packages.Install(name)
		switch {
		case errors.Is(err, pkgmgr.ErrUnknownPackage):
			return "Package not found: " + name
		case errors.Is(err, pkgmgr.ErrAlreadyInstalled):
			return name + " is already installed."
		}
		s.registerPackage(rec)
		return fmt.Sprintf("Installing %s...\nInstallation complete.\nAvailable commands: %s", name, strings.Join(rec.Commands, ", "))

	case sub == "uninstall" && name != "":
		rec, err := s.packages.Uninstall(name)
		switch {
		case errors.Is(err, pkgmgr.ErrUnknownPackage):
			return "Package not found: " + name
		case errors.Is(err, pkgmgr.ErrNotInstalled):
			return name + " is not installed."
		}
		s.unregisterPackage(rec)
		return fmt.Sprintf("Uninstalling %s...\nUninstall complete.", name)

	case sub == "info" && name != "":
		rec, ok := s.packages.Get(name)
		if !ok {
			return "Package not found: " + name
		}
		info := fmt.Sprintf("%s: %s (%s)", rec.Name, rec.Version, rec.Status)
		if rec.Description != "" {
			info += "\n" + rec.Description
		}
		return info + "\nCommands: " + strings.Join(rec.Commands, ", ")

	case sub == "help":
		return brewHelp
	}
	return brewUsage
}

func (s *Session) registerPackage(rec pkgmgr.Record) {
	for _, cmd := range rec.Commands {
		cmd = strings.ToLower(cmd)
		err := s.registry.Register(Entry{
			Name:    cmd,
			Kind:    KindPackage,
			Summary: rec.Description,
			Package: rec.Name,
			Run:     packageHandler(rec),
		})
		if err != nil {
			s.logWarn("package_command_skipped", "package", rec.Name, "command", cmd, "error", err)
		}
	}
}

func (s *Session) unregisterPackage(rec pkgmgr.Record) {
	for _, cmd := range rec.Commands {
		s.registry.Unregister(strings.ToLower(cmd), KindPackage)
	}
}

// packageHandler synthesizes output for a package command; nothing runs.
func packageHandler(rec pkgmgr.Record) HandlerFunc {
	return func(_ *Session, args []string) string {
		cmd := strings.ToLower(args[0])
		rest := strings.Join(args[1:], " ")
		if len(args) > 1 && (args[1] == "--version" || args[1] == "-v" || args[1] == "-V") {
			return versionLine(cmd, rec.Version)
		}
		switch cmd {
		case "node":
			if rest == "" {
				return "Starting Node.js REPL. (type .exit to quit)\n> "
			}
			return fmt.Sprintf("Running %s with Node.js...", rest)
		case "python":
			if rest == "" {
				return "Starting Python interpreter. (type exit() to quit)\n>>> "
			}
			return fmt.Sprintf("Running %s with Python...", rest)
		}
		if rest == "" {
			return fmt.Sprintf("%s (%s %s) is ready.", cmd, rec.Name, rec.Version)
		}
		return fmt.Sprintf("Running %s command: %s", cmd, rest)
	}
}

func versionLine(cmd, version string) string {
	switch cmd {
	case "node":
		return "v" + version
	case "python":
		return "Python " + version
	case "git":
		return "git version " + version
	}
	return cmd + " " + version
}

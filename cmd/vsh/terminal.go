package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sameehj/vsh/pkg/adapter"
	"github.com/sameehj/vsh/pkg/pkgmgr"
	"github.com/sameehj/vsh/pkg/runtime/logging"
	"github.com/sameehj/vsh/pkg/shell"
)

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Run a local shell session in this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			catalog, err := pkgmgr.LoadCatalog(cfg.Packages.Catalog)
			if err != nil {
				return err
			}
			opts := shellOptions(cfg)
			opts.Packages = catalog.Records()
			opts.Logger = logging.Discard()
			backend := adapter.NewLocalBackend(shell.New(opts))
			return runTerminal(cmd, backend)
		},
	}
}

func attachCmd() *cobra.Command {
	var addr, sessionID string
	cmd := &cobra.Command{
		Use:   "attach",
		Short: "Attach this terminal to a session on a running gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				addr = cfg.Server.HTTPAddr
			}
			backend, err := adapter.Dial(cmd.Context(), addr, sessionID)
			if err != nil {
				return err
			}
			defer backend.Close()
			return runTerminal(cmd, backend)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "gateway address (default: server.httpAddr)")
	cmd.Flags().StringVar(&sessionID, "session", "", "existing session id")
	return cmd
}

// runTerminal puts the input in raw mode when it is a terminal.
func runTerminal(cmd *cobra.Command, backend adapter.Backend) error {
	in := cmd.InOrStdin()
	interactive := false
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		state, err := term.MakeRaw(fd)
		if err != nil {
			return err
		}
		defer func() { _ = term.Restore(fd, state) }()
		interactive = true
	}
	return adapter.NewTerminal(backend, in, cmd.OutOrStdout(), interactive).Start(cmd.Context())
}

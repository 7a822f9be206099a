package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sameehj/vsh/pkg/config"
	"github.com/sameehj/vsh/pkg/metrics"
	"github.com/sameehj/vsh/pkg/pkgmgr"
	"github.com/sameehj/vsh/pkg/sandbox"
	"github.com/sameehj/vsh/pkg/shell"
	"github.com/sameehj/vsh/pkg/version"
)

var cfgFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vsh",
		Short:         "Virtual shell simulator and sandboxed snippet runner",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.vsh/config.yaml)")

	root.AddCommand(serveCmd())
	root.AddCommand(replCmd())
	root.AddCommand(attachCmd())
	root.AddCommand(runCmd())
	root.AddCommand(packagesCmd())
	root.AddCommand(versionCmd())
	root.AddCommand(workerCmd())
	return root
}

func loadConfig() (*config.Config, error) {
	if err := config.LoadDotenv(".env"); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return config.LoadConfig(config.ResolvePath(cfgFile))
}

func newSandbox(cfg *config.Config) (sandbox.Sandbox, error) {
	sb, err := sandbox.New(sandbox.Config{
		Kind:         cfg.Sandbox.Kind,
		Timeout:      cfg.Sandbox.Timeout,
		MaxOutput:    cfg.Sandbox.MaxOutput,
		MaxCallStack: cfg.Sandbox.MaxCallStack,
	})
	if err != nil {
		return nil, err
	}
	return sandbox.WithObserver(sb, func(kind string, outcome sandbox.Outcome, elapsed time.Duration) {
		metrics.RecordSandboxRun(kind, string(outcome), elapsed)
	}), nil
}

func shellOptions(cfg *config.Config) shell.Options {
	return shell.Options{
		User:     cfg.Shell.User,
		Hostname: cfg.Shell.Hostname,
		Observe: func(name string, kind shell.Kind, found bool) {
			metrics.RecordCommand(name, kind.String(), found)
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func packagesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "packages", Short: "Package catalog"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List catalog packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			catalog, err := pkgmgr.LoadCatalog(cfg.Packages.Catalog)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVERSION\tSTATUS\tCOMMANDS")
			for _, rec := range catalog.Records() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rec.Name, rec.Version, rec.Status, strings.Join(rec.Commands, ", "))
			}
			return w.Flush()
		},
	})
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sameehj/vsh/pkg/sandbox"
)

func runCmd() *cobra.Command {
	var kind string
	var timeout time.Duration
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run FILE|-",
		Short: "Execute a JavaScript snippet in the sandbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if kind != "" {
				cfg.Sandbox.Kind = kind
			}
			if timeout > 0 {
				cfg.Sandbox.Timeout = timeout
			}
			source, err := readSource(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			sb, err := newSandbox(cfg)
			if err != nil {
				return err
			}
			defer sb.Close()

			res := sb.Execute(cmd.Context(), source)
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(res.Response())
			}
			if res.Output != "" {
				fmt.Fprintln(cmd.OutOrStdout(), res.Output)
			}
			return res.Err
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "sandbox kind: js or process")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "execution deadline")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print {output, error} as JSON")
	return cmd
}

func readSource(stdin io.Reader, arg string) (string, error) {
	var data []byte
	var err error
	if arg == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(arg)
	}
	if err != nil {
		return "", fmt.Errorf("read snippet: %w", err)
	}
	return string(data), nil
}

func workerCmd() *cobra.Command {
	cfg := sandbox.Config{}
	cmd := &cobra.Command{
		Use:    "sandbox-worker",
		Short:  "Evaluate one snippet from stdin (used by the process sandbox)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sandbox.ServeWorker(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cfg)
		},
	}
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", sandbox.DefaultTimeout, "execution deadline")
	cmd.Flags().IntVar(&cfg.MaxOutput, "max-output", sandbox.DefaultMaxOutput, "captured output limit in bytes")
	cmd.Flags().IntVar(&cfg.MaxCallStack, "max-call-stack", sandbox.DefaultMaxCallStack, "call stack depth limit")
	return cmd
}

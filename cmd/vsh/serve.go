package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sameehj/vsh/pkg/gateway"
	"github.com/sameehj/vsh/pkg/metrics"
	"github.com/sameehj/vsh/pkg/pkgmgr"
	"github.com/sameehj/vsh/pkg/rpc"
	"github.com/sameehj/vsh/pkg/runtime/logging"
	"github.com/sameehj/vsh/pkg/session"
)

func serveCmd() *cobra.Command {
	var httpAddr, grpcAddr string
	var maxSessions int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP/WebSocket gateway and the gRPC service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if httpAddr != "" {
				cfg.Server.HTTPAddr = httpAddr
			}
			if grpcAddr != "" {
				cfg.Server.GRPCAddr = grpcAddr
			}
			if maxSessions > 0 {
				cfg.Server.MaxSessions = maxSessions
			}

			logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

			catalog, err := pkgmgr.LoadCatalog(cfg.Packages.Catalog)
			if err != nil {
				return err
			}
			sb, err := newSandbox(cfg)
			if err != nil {
				return err
			}
			defer sb.Close()

			manager := session.NewManager(session.Options{
				MaxSessions: cfg.Server.MaxSessions,
				IdleTimeout: cfg.Server.IdleTimeout,
				Catalog:     catalog,
				Shell:       shellOptions(cfg),
				OnChange:    metrics.SetActiveSessions,
			})
			manager.SetLogger(logger)

			authorizer, err := gateway.NewAllowlist(cfg.Server.AllowedAddrs)
			if err != nil {
				return err
			}
			gw := gateway.NewServer(cfg.Server.HTTPAddr, manager, sb, authorizer)
			gw.SetLogger(logger)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			errCh := make(chan error, 2)
			go func() {
				_ = manager.Run(ctx)
			}()

			if cfg.Packages.Watch {
				watcher := pkgmgr.NewWatcher(catalog)
				watcher.SetLogger(logger)
				watcher.OnReload(func(err error) {
					metrics.RecordCatalogReload(err == nil)
				})
				go func() {
					if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
						logger.Error("catalog_watch_failed", "error", err)
					}
				}()
			}

			started := 1
			go func() {
				errCh <- gw.Start(ctx)
			}()

			if cfg.Server.GRPCAddr != "" {
				lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
				if err != nil {
					cancel()
					<-errCh
					return err
				}
				svc := rpc.NewService(manager, sb)
				svc.SetLogger(logger)
				started++
				go func() {
					errCh <- svc.Serve(ctx, lis)
				}()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "vsh listening on %s (grpc %s)\n", gw.Addr(), cfg.Server.GRPCAddr)
			var firstErr error
			select {
			case <-ctx.Done():
			case firstErr = <-errCh:
				started--
				cancel()
			}
			for ; started > 0; started-- {
				if err := <-errCh; err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return firstErr
		},
	}

	cmd.Flags().StringVar(&httpAddr, "addr", "", "HTTP listen address")
	cmd.Flags().StringVar(&grpcAddr, "grpc-addr", "", "gRPC listen address")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", 0, "maximum concurrent sessions (0 = config value)")
	return cmd
}

package rpc

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/sameehj/vsh/pkg/metrics"
	"github.com/sameehj/vsh/pkg/sandbox"
	"github.com/sameehj/vsh/pkg/session"
)

// Service implements ShellServer on top of a session manager and a sandbox.
type Service struct {
	sessions *session.Manager
	sandbox  sandbox.Sandbox
	logger   *slog.Logger
}

func NewService(sessions *session.Manager, sb sandbox.Sandbox) *Service {
	return &Service{sessions: sessions, sandbox: sb}
}

func (s *Service) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// NewServer returns a gRPC server with the service registered and request
// metrics attached.
func (s *Service) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.UnaryInterceptor(s.intercept))
	srv := grpc.NewServer(opts...)
	RegisterShellServer(srv, s)
	return srv
}

// Serve runs a server on lis until ctx is done.
func (s *Service) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		srv.GracefulStop()
	}()
	s.logInfo("grpc_listening", "addr", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		srv.Stop()
		return err
	}
	<-stopped
	return nil
}

func (s *Service) intercept(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	code := status.Code(err)
	metrics.RecordGRPCRequest(info.FullMethod, code.String())
	if err != nil && code != codes.NotFound && code != codes.InvalidArgument {
		s.logWarn("grpc_request_failed", "method", info.FullMethod, "code", code.String(), "error", err)
	}
	return resp, err
}

func (s *Service) OpenSession(ctx context.Context, _ *OpenSessionRequest) (*OpenSessionResponse, error) {
	remote := ""
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		remote = p.Addr.String()
	}
	sess, err := s.sessions.Create(remote)
	if err != nil {
		return nil, toStatus(err)
	}
	return &OpenSessionResponse{
		SessionID: sess.ID,
		Prompt:    sess.Shell.Prompt(),
		History:   sess.Shell.History(),
	}, nil
}

func (s *Service) CloseSession(_ context.Context, in *CloseSessionRequest) (*CloseSessionResponse, error) {
	if in.SessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "session id is required")
	}
	if err := s.sessions.Delete(in.SessionID); err != nil {
		return nil, toStatus(err)
	}
	return &CloseSessionResponse{}, nil
}

func (s *Service) RunCommand(_ context.Context, in *RunCommandRequest) (*RunCommandResponse, error) {
	sess, err := s.lookup(in.SessionID)
	if err != nil {
		return nil, err
	}
	res := sess.Shell.Run(in.Line)
	return &RunCommandResponse{Lines: res.Lines, Prompt: res.Prompt, Cleared: res.Cleared}, nil
}

func (s *Service) Complete(_ context.Context, in *CompleteRequest) (*CompleteResponse, error) {
	sess, err := s.lookup(in.SessionID)
	if err != nil {
		return nil, err
	}
	return &CompleteResponse{Input: sess.Shell.Complete(in.Input)}, nil
}

func (s *Service) Execute(ctx context.Context, in *ExecuteRequest) (*ExecuteResponse, error) {
	resp := s.sandbox.Execute(ctx, in.Code).Response()
	return &ExecuteResponse{Output: resp.Output, Error: resp.Error}, nil
}

func (s *Service) lookup(id string) (*session.Session, error) {
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "session id is required")
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, toStatus(err)
	}
	return sess, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, session.ErrLimitReached):
		return status.Error(codes.ResourceExhausted, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func (s *Service) logInfo(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Service) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

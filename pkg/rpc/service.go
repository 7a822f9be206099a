// Package rpc exposes shell sessions and the sandbox as the gRPC service
// vsh.v1.Shell.
package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "vsh.v1.Shell"

type OpenSessionRequest struct{}

type OpenSessionResponse struct {
	SessionID string   `json:"sessionId"`
	Prompt    string   `json:"prompt"`
	History   []string `json:"history"`
}

type CloseSessionRequest struct {
	SessionID string `json:"sessionId"`
}

type CloseSessionResponse struct{}

type RunCommandRequest struct {
	SessionID string `json:"sessionId"`
	Line      string `json:"line"`
}

type RunCommandResponse struct {
	Lines   []string `json:"lines"`
	Prompt  string   `json:"prompt"`
	Cleared bool     `json:"cleared"`
}

type CompleteRequest struct {
	SessionID string `json:"sessionId"`
	Input     string `json:"input"`
}

type CompleteResponse struct {
	Input string `json:"input"`
}

type ExecuteRequest struct {
	Code string `json:"code"`
}

type ExecuteResponse struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// ShellServer is implemented by Service.
type ShellServer interface {
	OpenSession(context.Context, *OpenSessionRequest) (*OpenSessionResponse, error)
	CloseSession(context.Context, *CloseSessionRequest) (*CloseSessionResponse, error)
	RunCommand(context.Context, *RunCommandRequest) (*RunCommandResponse, error)
	Complete(context.Context, *CompleteRequest) (*CompleteResponse, error)
	Execute(context.Context, *ExecuteRequest) (*ExecuteResponse, error)
}

// RegisterShellServer adds srv to s.
func RegisterShellServer(s grpc.ServiceRegistrar, srv ShellServer) {
	s.RegisterService(&shellServiceDesc, srv)
}

var shellServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ShellServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "OpenSession", Handler: unaryHandler(func(s ShellServer, ctx context.Context, in *OpenSessionRequest) (any, error) {
			return s.OpenSession(ctx, in)
		})},
		{MethodName: "CloseSession", Handler: unaryHandler(func(s ShellServer, ctx context.Context, in *CloseSessionRequest) (any, error) {
			return s.CloseSession(ctx, in)
		})},
		{MethodName: "RunCommand", Handler: unaryHandler(func(s ShellServer, ctx context.Context, in *RunCommandRequest) (any, error) {
			return s.RunCommand(ctx, in)
		})},
		{MethodName: "Complete", Handler: unaryHandler(func(s ShellServer, ctx context.Context, in *CompleteRequest) (any, error) {
			return s.Complete(ctx, in)
		})},
		{MethodName: "Execute", Handler: unaryHandler(func(s ShellServer, ctx context.Context, in *ExecuteRequest) (any, error) {
			return s.Execute(ctx, in)
		})},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vsh/v1/shell",
}

// methodHandler has the shape of grpc.MethodDesc.Handler.
type methodHandler = func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error)

// unaryHandler adapts a typed call to a method handler, decoding the request
// and running it through the server interceptor.
func unaryHandler[Req any](call func(ShellServer, context.Context, *Req) (any, error)) methodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ShellServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ShellServer), ctx, req.(*Req))
		}
		if method, ok := grpc.Method(ctx); ok {
			info.FullMethod = method
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Package grpc implements the gRPC transport for voxtap.
//
// The Instructions service is described without generated stubs: requests
// and responses use the well-known wrapper and struct messages, so any gRPC
// client can call it with a plain proto definition:
//
//	service Instructions {
//	  rpc Submit(google.protobuf.StringValue) returns (google.protobuf.Struct);
//	  rpc History(google.protobuf.Empty) returns (google.protobuf.Struct);
//	}
//
// The standard grpc.health.v1 service is registered alongside it.
package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/nadzzz/voxtap/internal/history"
	"github.com/nadzzz/voxtap/internal/message"
	"github.com/nadzzz/voxtap/internal/transport"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "voxtap.v1.Instructions"

// Full method paths, for clients invoking the service without stubs.
const (
	SubmitMethod  = "/" + ServiceName + "/Submit"
	HistoryMethod = "/" + ServiceName + "/History"
)

// HistorySource provides the execution history, newest first.
type HistorySource interface {
	History() []history.Record
}

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port    int
	history HistorySource
	server  *grpc.Server
}

// New creates a new gRPC transport on the given port.
func New(port int, history HistorySource) *Transport {
	return &Transport{port: port, history: history}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen starts the gRPC server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	t.server = newServer(handler, t.history)
	slog.Info("grpc transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		t.server.GracefulStop()
	}()

	return t.server.Serve(lis)
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	if t.server != nil {
		t.server.GracefulStop()
	}
	return nil
}

func newServer(handler transport.Handler, history HistorySource) *grpc.Server {
	server := grpc.NewServer()
	server.RegisterService(&serviceDesc, &instructionsServer{handler: handler, history: history})

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, hs)
	return server
}

// instructions is the handler type checked by grpc.RegisterService.
type instructions interface {
	Submit(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
	History(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*instructions)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Submit", Handler: submitHandler},
		{MethodName: "History", Handler: historyHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "voxtap/v1/instructions.proto",
}

func submitHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(instructions).Submit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SubmitMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(instructions).Submit(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func historyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(instructions).History(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HistoryMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(instructions).History(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

type instructionsServer struct {
	handler transport.Handler
	history HistorySource
}

// Submit passes the instruction to the handler. The sender can be named with
// the "x-voxtap-source" metadata key.
func (s *instructionsServer) Submit(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	source := "grpc"
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get("x-voxtap-source"); len(v) > 0 && v[0] != "" {
			source = v[0]
		}
	}

	result, err := s.handler(ctx, message.New(source, in.GetValue()))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "handling instruction: %v", err)
	}

	out, err := toStruct(result)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding result: %v", err)
	}
	return out, nil
}

// History returns {"records": [...]} with the newest record first.
func (s *instructionsServer) History(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s.history == nil {
		return nil, status.Error(codes.Unimplemented, "history is not available")
	}
	records := s.history.History()
	if records == nil {
		records = []history.Record{}
	}
	out, err := toStruct(map[string]any{"records": records})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding history: %v", err)
	}
	return out, nil
}

// toStruct converts v to a protobuf Struct through its JSON form, so field
// names match the HTTP API.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

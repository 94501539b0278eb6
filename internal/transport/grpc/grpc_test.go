package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/nadzzz/voxtap/internal/history"
	"github.com/nadzzz/voxtap/internal/message"
)

type fakeHistory []history.Record

func (f fakeHistory) History() []history.Record { return f }

func dial(t *testing.T, handler func(context.Context, *message.Message) (*message.Result, error)) *grpc.ClientConn {
	t.Helper()
	return dialWith(t, handler, nil)
}

func dialWith(t *testing.T, handler func(context.Context, *message.Message) (*message.Result, error), hist HistorySource) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	server := newServer(handler, hist)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSubmit(t *testing.T) {
	var got *message.Message
	conn := dial(t, func(_ context.Context, msg *message.Message) (*message.Result, error) {
		got = msg
		return &message.Result{
			MessageID: msg.ID,
			Accepted:  true,
			Record:    &history.Record{ID: "r1", Instruction: msg.Text, Success: true, Outcome: "tapped (1, 2)"},
		}, nil
	})

	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-voxtap-source", "watch")
	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(ctx, SubmitMethod, wrapperspb.String("tap 1,2"), out))

	require.NotNil(t, got)
	assert.Equal(t, "tap 1,2", got.Text)
	assert.Equal(t, "watch", got.Source)

	fields := out.AsMap()
	assert.Equal(t, true, fields["accepted"])
	assert.Equal(t, got.ID, fields["message_id"])
	record := fields["record"].(map[string]any)
	assert.Equal(t, "tapped (1, 2)", record["outcome"])
}

func TestSubmitRejectionIsNotAnError(t *testing.T) {
	conn := dial(t, func(_ context.Context, msg *message.Message) (*message.Result, error) {
		return &message.Result{MessageID: msg.ID, Rejection: "instruction is empty"}, nil
	})

	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(context.Background(), SubmitMethod, wrapperspb.String(""), out))
	assert.Equal(t, false, out.AsMap()["accepted"])
	assert.Equal(t, "instruction is empty", out.AsMap()["rejection"])
}

func TestHealth(t *testing.T) {
	conn := dial(t, nil)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestHistory(t *testing.T) {
	conn := dialWith(t, nil, fakeHistory{
		{ID: "b", Instruction: "tap 3,4", Outcome: "tapped (3, 4)", Success: true},
		{ID: "a", Instruction: "open maps", Outcome: "app not found: maps"},
	})

	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(context.Background(), HistoryMethod, &emptypb.Empty{}, out))

	records := out.AsMap()["records"].([]any)
	require.Len(t, records, 2)
	assert.Equal(t, "b", records[0].(map[string]any)["id"])
	assert.Equal(t, "app not found: maps", records[1].(map[string]any)["outcome"])
}

func TestHistoryEmpty(t *testing.T) {
	conn := dialWith(t, nil, fakeHistory(nil))

	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(context.Background(), HistoryMethod, &emptypb.Empty{}, out))
	assert.Empty(t, out.AsMap()["records"])
}

func TestHistoryUnavailable(t *testing.T) {
	conn := dial(t, nil)

	err := conn.Invoke(context.Background(), HistoryMethod, &emptypb.Empty{}, new(structpb.Struct))
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

package grpcx

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/groupslot/groupslot/libs/httpx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
)

func TestHealthCheck(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	conn, err := NewClient("passthrough:///bufnet", DialOptions{}, grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	defer conn.Close()

	check := HealthCheck(conn, "groupslot.schedule")
	srv.SetServing("groupslot.schedule", false)
	if err := check(context.Background()); err == nil {
		t.Fatalf("expected NOT_SERVING to fail")
	}
	srv.SetServing("groupslot.schedule", true)
	if err := check(context.Background()); err != nil {
		t.Fatalf("expected serving, got %v", err)
	}
}

func TestServerRequestIDInterceptor(t *testing.T) {
	interceptor := UnaryServerRequestIDInterceptor()
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDMetadataKey, "req-1"))

	var seen string
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/x/y"}, func(ctx context.Context, _ any) (any, error) {
		seen = httpx.RequestIDFromContext(ctx)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if seen != "req-1" {
		t.Fatalf("expected req-1, got %q", seen)
	}
}

func TestClientRequestIDInterceptor(t *testing.T) {
	interceptor := UnaryClientRequestIDInterceptor()
	ctx := httpx.ContextWithRequestID(context.Background(), "req-2")

	err := interceptor(ctx, "/x/y", nil, nil, nil, func(ctx context.Context, _ string, _, _ any, _ *grpc.ClientConn, _ ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		if got := md.Get(RequestIDMetadataKey); len(got) != 1 || got[0] != "req-2" {
			t.Fatalf("expected outgoing request id, got %v", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
}

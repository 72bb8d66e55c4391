package kafkax

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestExtractEventMetaFallbacks(t *testing.T) {
	msg := kafka.Message{Topic: "schedule.created.v1", Key: []byte("k1")}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "k1" || meta.EventType != "schedule.created.v1" {
		t.Fatalf("unexpected fallback meta %+v", meta)
	}
}

func TestNewMessage(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	msg := NewMessage(ctx, "sched-1", EventMeta{EventID: "e1", EventType: "schedule.created.v1"}, []byte(`{}`))
	if msg.Topic != "schedule.created.v1" || string(msg.Key) != "sched-1" {
		t.Fatalf("unexpected routing %s / %s", msg.Topic, msg.Key)
	}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "e1" {
		t.Fatalf("expected event id header, got %+v", meta)
	}
	if HeaderValue(msg.Headers, "traceparent") == "" {
		t.Fatalf("expected traceparent header")
	}
	got := trace.SpanContextFromContext(ExtractTraceContext(context.Background(), msg))
	if got.TraceID() != traceID {
		t.Fatalf("trace id not propagated")
	}
}

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" a:9092, ,b:9092 ")
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Fatalf("unexpected brokers %v", got)
	}
}

type sliceReader struct {
	msgs   []kafka.Message
	cancel context.CancelFunc
	closed bool
}

func (r *sliceReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *sliceReader) Close() error {
	r.closed = true
	return nil
}

type memInbox struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *memInbox) Record(_ context.Context, eventID, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[eventID] {
		return false, nil
	}
	m.seen[eventID] = true
	return true, nil
}

func TestConsumerDeduplicates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := func(id string) kafka.Message {
		return kafka.Message{Topic: "t", Headers: []kafka.Header{{Key: HeaderEventID, Value: []byte(id)}}}
	}
	reader := &sliceReader{msgs: []kafka.Message{msg("a"), msg("b"), msg("a")}, cancel: cancel}

	var handled []string
	handler := func(_ context.Context, m kafka.Message) error {
		id := HeaderValue(m.Headers, HeaderEventID)
		handled = append(handled, id)
		if id == "b" {
			return errors.New("transient")
		}
		return nil
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	NewConsumer(logger, reader, &memInbox{seen: map[string]bool{}}, handler).Run(ctx)

	if len(handled) != 2 || handled[0] != "a" || handled[1] != "b" {
		t.Fatalf("expected [a b], got %v", handled)
	}
	if !reader.closed {
		t.Fatalf("reader should be closed on exit")
	}
}

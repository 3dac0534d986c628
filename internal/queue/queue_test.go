package queue

import (
	"context"
	"testing"
	"time"
)

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		in   string
		want Message
	}{
		{"sweep|2025-03-04", Message{Type: TypeSweep, Body: []byte("2025-03-04")}},
		{"sweep|", Message{Type: TypeSweep, Body: []byte{}}},
		{"a|b|c", Message{Type: "a", Body: []byte("b|c")}},
		{"bare", Message{Body: []byte("bare")}},
	}
	for _, tt := range tests {
		got := Decode(tt.in)
		if got.Type != tt.want.Type || string(got.Body) != string(tt.want.Body) {
			t.Errorf("Decode(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
	msg := Message{Type: TypeSweep, Body: []byte("2025-03-04")}
	if got := Encode(msg); got != "sweep|2025-03-04" {
		t.Errorf("Encode = %q", got)
	}
}

func TestInMemoryDeliversInOrder(t *testing.T) {
	q := NewInMemory(4)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, d := range []string{"2025-03-03", "2025-03-04"} {
		if err := q.Publish(ctx, Message{Type: TypeSweep, Body: []byte(d)}); err != nil {
			t.Fatal(err)
		}
	}
	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"2025-03-03", "2025-03-04"} {
		select {
		case msg := <-msgs:
			if string(msg.Body) != want {
				t.Errorf("body = %q, want %q", msg.Body, want)
			}
		case <-ctx.Done():
			t.Fatal("timed out")
		}
	}
}

func TestInMemoryPublishHonoursContext(t *testing.T) {
	q := NewInMemory(1)
	if err := q.Publish(context.Background(), Message{Type: TypeSweep}); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Publish(ctx, Message{Type: TypeSweep}); err == nil {
		t.Fatal("publish to a full queue with a cancelled context succeeded")
	}
}

func TestInMemoryConsumeClosesOnCancel(t *testing.T) {
	q := NewInMemory(1)
	ctx, cancel := context.WithCancel(context.Background())
	msgs, _ := q.Consume(ctx)
	cancel()
	select {
	case _, ok := <-msgs:
		if ok {
			t.Fatal("unexpected message")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

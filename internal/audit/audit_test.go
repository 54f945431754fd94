package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func testEvent(eventType string) Event {
	return Event{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    "user-1",
		TokenID:   "tok-1",
		Success:   true,
	}
}

func TestChannelSinkDelivers(t *testing.T) {
	sink := NewChannelSink(4)
	sink.Emit(context.Background(), testEvent("login_success"))

	select {
	case event := <-sink.Events():
		if event.EventType != "login_success" {
			t.Fatalf("event type = %q", event.EventType)
		}
	default:
		t.Fatal("no event delivered")
	}
}

func TestJSONWriterSinkWritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), testEvent("logout"))

	line := buf.String()
	if line == "" || line[len(line)-1] != '\n' {
		t.Fatalf("output not newline terminated: %q", line)
	}

	var decoded Event
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.EventType != "logout" || decoded.UserID != "user-1" {
		t.Fatalf("decoded event wrong: %+v", decoded)
	}
}

func TestDispatcherForwardsAndFlushesOnClose(t *testing.T) {
	sink := NewChannelSink(16)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), testEvent("refresh_success"))
	}
	d.Close()

	count := 0
	for {
		select {
		case <-sink.Events():
			count++
		default:
			if count != 5 {
				t.Fatalf("delivered = %d, want 5", count)
			}
			return
		}
	}
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, nil)
	if d != nil {
		t.Fatal("disabled dispatcher not nil")
	}

	// Nil receivers are safe on every method.
	d.Emit(context.Background(), testEvent("x"))
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	// A sink that never drains: events pile up in the dispatcher buffer.
	blocked := make(chan struct{})
	sink := blockingSink{release: blocked}

	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)
	defer func() {
		close(blocked)
		d.Close()
	}()

	for i := 0; i < 50; i++ {
		d.Emit(context.Background(), testEvent("login_failure"))
	}

	if d.Dropped() == 0 {
		t.Fatal("no events dropped with a full buffer")
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(context.Context, Event) {
	<-s.release
}

func TestEmitAfterCloseIsNoOp(t *testing.T) {
	sink := NewChannelSink(4)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)

	d.Close()
	d.Emit(context.Background(), testEvent("late"))

	select {
	case <-sink.Events():
		t.Fatal("event delivered after close")
	default:
	}
}

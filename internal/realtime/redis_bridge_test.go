package realtime

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func zeroLogger() zerolog.Logger { return zerolog.Nop() }

func TestRedisBridge_ReplaysRemoteEventsOnly(t *testing.T) {
	h := NewHub(zeroLogger())
	b := NewRedisBridge(nil, h, "", zeroLogger())
	if b.channel != DefaultRedisChannel {
		t.Fatalf("expected default channel, got %q", b.channel)
	}

	got := make(chan Event, 4)
	unsub, _ := h.Subscribe("c", AnyTable, Filter{}, func(ev Event) { got <- ev })
	defer unsub()

	remote, _ := json.Marshal(Event{Table: "support_chat", Type: Insert, Origin: "other-instance"})
	local, _ := json.Marshal(Event{Table: "support_chat", Type: Insert, Origin: h.ID()})

	b.replay(string(local))
	b.replay("not json")
	b.replay(string(remote))

	ev := recv(t, got)
	if ev.Origin != "other-instance" {
		t.Fatalf("expected remote event, got %+v", ev)
	}
	noRecv(t, got)
}

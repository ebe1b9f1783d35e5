package sse

import (
	"strings"
	"testing"
)

func TestBroadcastOnlyReachesFollowers(t *testing.T) {
	clients := NewSSEClients()
	a := NewClient("draft-a")
	b := NewClient("draft-b")
	clients.Add(a)
	clients.Add(b)

	sent := clients.Broadcast("draft-a", Event{Name: EventPreview, Data: "<p>hi</p>"})
	if sent != 1 {
		t.Fatalf("Expected 1 delivery, got %d", sent)
	}

	select {
	case ev := <-a.Msg:
		if ev.Name != EventPreview || ev.Data != "<p>hi</p>" {
			t.Errorf("Unexpected event: %+v", ev)
		}
	default:
		t.Fatal("Expected follower to receive the event")
	}

	select {
	case ev := <-b.Msg:
		t.Errorf("Expected other draft to receive nothing, got %+v", ev)
	default:
	}
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	clients := NewSSEClients()
	c := &Client{Msg: make(chan Event), DraftID: "d"}
	clients.Add(c)

	if sent := clients.Broadcast("d", Event{Data: "x"}); sent != 0 {
		t.Errorf("Expected unbuffered idle client to be skipped, got %d", sent)
	}
}

func TestDeleteClosesOnce(t *testing.T) {
	clients := NewSSEClients()
	c := NewClient("d")
	clients.Add(c)

	clients.Delete(c)
	clients.Delete(c)

	if clients.Len() != 0 {
		t.Errorf("Expected no clients, got %d", clients.Len())
	}
	if _, ok := <-c.Msg; ok {
		t.Error("Expected channel to be closed")
	}
}

func TestEventWriteTo(t *testing.T) {
	testCases := []struct {
		name string
		ev   Event
		want string
	}{
		{"named", Event{Name: "navigate", Data: "/posts/x"}, "event: navigate\ndata: /posts/x\n\n"},
		{"unnamed", Event{Data: "reload"}, "data: reload\n\n"},
		{"multiline", Event{Name: "preview", Data: "<p>a</p>\n<p>b</p>"}, "event: preview\ndata: <p>a</p>\ndata: <p>b</p>\n\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var b strings.Builder
			n, err := tc.ev.WriteTo(&b)
			if err != nil {
				t.Fatalf("WriteTo failed: %v", err)
			}
			if b.String() != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, b.String())
			}
			if int(n) != len(tc.want) {
				t.Errorf("Expected %d bytes written, got %d", len(tc.want), n)
			}
		})
	}
}

package chatws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func recvFrame(t *testing.T, client *Client) Envelope {
	t.Helper()
	select {
	case payload := <-client.send:
		var envelope Envelope
		if err := json.Unmarshal(payload, &envelope); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		return envelope
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return Envelope{}
	}
}

func expectSilence(t *testing.T, client *Client) {
	t.Helper()
	select {
	case payload := <-client.send:
		t.Fatalf("unexpected frame: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubRoomDelivery(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	sessionID := uuid.New()
	user := NewClient(hub, nil, 1)
	lawyer := NewClient(hub, nil, 2)
	outsider := NewClient(hub, nil, 3)

	hub.Register(user)
	hub.Register(lawyer)
	hub.Register(outsider)

	hub.join <- roomChange{client: user, sessionID: sessionID}
	hub.join <- roomChange{client: lawyer, sessionID: sessionID}

	hub.NotifySession(sessionID, "RECEIVE_MESSAGE", map[string]string{"content": "hello"})

	for _, client := range []*Client{user, lawyer} {
		envelope := recvFrame(t, client)
		if envelope.Event != "RECEIVE_MESSAGE" {
			t.Fatalf("expected RECEIVE_MESSAGE, got %q", envelope.Event)
		}
	}
	expectSilence(t, outsider)
}

func TestHubUserDelivery(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	target := NewClient(hub, nil, 10)
	other := NewClient(hub, nil, 11)

	hub.Register(target)
	hub.Register(other)

	hub.NotifyUser(10, "CONSULT_REQUESTED", map[string]string{"sessionId": uuid.NewString()})

	envelope := recvFrame(t, target)
	if envelope.Event != "CONSULT_REQUESTED" {
		t.Fatalf("expected CONSULT_REQUESTED, got %q", envelope.Event)
	}
	expectSilence(t, other)
}

func TestHubLeaveRoomStopsDelivery(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	sessionID := uuid.New()
	client := NewClient(hub, nil, 20)
	hub.Register(client)
	hub.join <- roomChange{client: client, sessionID: sessionID}

	hub.NotifySession(sessionID, "SESSION_ENDED", nil)
	if envelope := recvFrame(t, client); envelope.Event != "SESSION_ENDED" {
		t.Fatalf("expected SESSION_ENDED, got %q", envelope.Event)
	}

	hub.leave <- roomChange{client: client, sessionID: sessionID}
	hub.NotifySession(sessionID, "SESSION_ENDED", nil)
	expectSilence(t, client)
}

package stream

import "testing"

func TestBroadcastWithoutClients(t *testing.T) {
	hub := NewHub()

	if n := hub.ClientCount(); n != 0 {
		t.Errorf("ClientCount = %d, want 0", n)
	}

	// Must not panic or block with nobody connected.
	hub.Broadcast("review_moderated", map[string]string{"review_id": "r1"})
}

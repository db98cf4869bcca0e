package mailbox

import "testing"

func TestAllocateClaimOpenFlow(t *testing.T) {
	h := NewHub(DefaultSessionTTL, nil)

	nameplate, err := h.Allocate("app")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	mailboxID, err := h.Claim(nameplate, "app", "side-a")
	if err != nil {
		t.Fatalf("Claim (side-a): %v", err)
	}
	if _, err := h.Claim(nameplate, "app", "side-b"); err != nil {
		t.Fatalf("Claim (side-b): %v", err)
	}
	if _, err := h.Claim(nameplate, "app", "side-c"); err == nil {
		t.Fatal("a third side claimed the same nameplate")
	}

	if _, err := h.Open(mailboxID, "side-a"); err != nil {
		t.Fatalf("Open (side-a): %v", err)
	}
	if _, err := h.Open(mailboxID, "side-b"); err != nil {
		t.Fatalf("Open (side-b): %v", err)
	}
	if _, err := h.Open(mailboxID, "side-c"); err == nil {
		t.Fatal("a third side opened the same mailbox")
	}
}

func TestAddDeliversToOtherSideOnlyWithMonotoneIDs(t *testing.T) {
	h := NewHub(DefaultSessionTTL, nil)

	nameplate, _ := h.Allocate("app")
	mailboxID, _ := h.Claim(nameplate, "app", "side-a")
	h.Claim(nameplate, "app", "side-b")
	h.Open(mailboxID, "side-a")
	h.Open(mailboxID, "side-b")

	msg1, peers1, err := h.Add(mailboxID, "side-a", "pake", "aabb")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(peers1) != 1 || peers1[0] != "side-b" {
		t.Fatalf("peers = %v, want [side-b]", peers1)
	}
	if msg1.ID != 1 {
		t.Fatalf("first message id = %d, want 1", msg1.ID)
	}

	msg2, _, err := h.Add(mailboxID, "side-b", "pake", "ccdd")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if msg2.ID != 2 {
		t.Fatalf("second message id = %d, want 2", msg2.ID)
	}
}

func TestOpenReplaysOnlyOtherSidesMessages(t *testing.T) {
	h := NewHub(DefaultSessionTTL, nil)
	nameplate, _ := h.Allocate("app")
	mailboxID, _ := h.Claim(nameplate, "app", "side-a")
	h.Open(mailboxID, "side-a")
	h.Add(mailboxID, "side-a", "pake", "aabb")

	replay, err := h.Open(mailboxID, "side-b")
	if err != nil {
		t.Fatalf("Open (side-b): %v", err)
	}
	if len(replay) != 1 || replay[0].Side != "side-a" {
		t.Fatalf("replay = %v, want one message from side-a", replay)
	}
}

func TestMailboxNotClosedUntilBothSidesLeave(t *testing.T) {
	h := NewHub(DefaultSessionTTL, nil)
	nameplate, _ := h.Allocate("app")
	mailboxID, _ := h.Claim(nameplate, "app", "side-a")
	h.Claim(nameplate, "app", "side-b")
	h.Open(mailboxID, "side-a")
	h.Open(mailboxID, "side-b")

	h.CloseMailbox(mailboxID, "side-a")
	// Mailbox should still exist: side-b hasn't left.
	if _, _, err := h.Add(mailboxID, "side-b", "transit", "ee"); err != nil {
		t.Fatalf("mailbox closed too early: %v", err)
	}

	h.CloseMailbox(mailboxID, "side-b")
	if _, _, err := h.Add(mailboxID, "side-b", "transit", "ee"); err == nil {
		t.Fatal("mailbox should be gone after both sides closed")
	}
}

func TestClaimLazilyCreatesMissingNameplate(t *testing.T) {
	h := NewHub(DefaultSessionTTL, nil)
	mailboxID, err := h.Claim("123", "app", "side-b")
	if err != nil {
		t.Fatalf("Claim on unknown nameplate: %v", err)
	}
	if mailboxID == "" {
		t.Fatal("expected a mailbox id to be created lazily")
	}
}

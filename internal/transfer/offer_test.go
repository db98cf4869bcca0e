package transfer

import (
	"encoding/json"
	"testing"
)

func TestOfferRoundTrip(t *testing.T) {
	hash := "deadbeef"
	original := FileOffer(FileMetadata{
		Filename:   "hello.txt",
		Filesize:   13,
		Hash:       &hash,
		Compressed: true,
	})
	msg := Message{Offer: &original}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Offer == nil {
		t.Fatal("decoded message has no offer")
	}
	if decoded.Offer.Name() != original.Name() {
		t.Fatalf("name = %q, want %q", decoded.Offer.Name(), original.Name())
	}
	if decoded.Offer.TransferSize() != original.TransferSize() {
		t.Fatalf("transfer size = %d, want %d", decoded.Offer.TransferSize(), original.TransferSize())
	}
}

func TestDirectoryOfferJSONShape(t *testing.T) {
	o := DirectoryOffer(DirectoryMetadata{Dirname: "dir", NumFiles: 2, NumBytes: 2, ZipSize: 40, Compressed: true})
	msg := Message{Offer: &o}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if raw["type"] != "offer" {
		t.Fatalf("type = %v, want offer", raw["type"])
	}
	offer, ok := raw["offer"].(map[string]any)
	if !ok {
		t.Fatal("offer field missing or wrong shape")
	}
	if _, ok := offer["directory"]; !ok {
		t.Fatal("offer missing directory field")
	}
}

func TestAnswerAcceptReject(t *testing.T) {
	accept := Accept()
	if !accept.IsAccepted() {
		t.Fatal("Accept() not accepted")
	}
	reject := Reject("too big")
	if reject.IsAccepted() {
		t.Fatal("Reject() reported accepted")
	}
}

func TestAckAndErrorMessageRoundTrip(t *testing.T) {
	msg := Message{Ack: true}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.Ack {
		t.Fatal("ack did not round-trip")
	}
}

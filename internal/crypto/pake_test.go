package crypto

import (
	"bytes"
	"testing"
)

func TestPakeSharedKeyAgreement(t *testing.T) {
	code := "42-purple-sausages"

	a := NewPake(code)
	b := NewPake(code)

	msgA, err := a.Start()
	if err != nil {
		t.Fatalf("a.Start: %v", err)
	}
	msgB, err := b.Start()
	if err != nil {
		t.Fatalf("b.Start: %v", err)
	}

	keyA, err := a.Finish(msgB)
	if err != nil {
		t.Fatalf("a.Finish: %v", err)
	}
	keyB, err := b.Finish(msgA)
	if err != nil {
		t.Fatalf("b.Finish: %v", err)
	}

	if !bytes.Equal(keyA, keyB) {
		t.Fatalf("shared keys differ: %x != %x", keyA, keyB)
	}
}

func TestPakeDifferentCodesDiffer(t *testing.T) {
	a := NewPake("42-purple-sausages")
	b := NewPake("42-green-elephants")

	msgA, _ := a.Start()
	msgB, _ := b.Start()

	keyA, err := a.Finish(msgB)
	if err != nil {
		t.Fatalf("a.Finish: %v", err)
	}
	keyB, err := b.Finish(msgA)
	if err != nil {
		t.Fatalf("b.Finish: %v", err)
	}

	if bytes.Equal(keyA, keyB) {
		t.Fatal("shared keys matched despite different codes")
	}
}

func TestPakeWrongStateTransitions(t *testing.T) {
	p := NewPake("1-test-code")
	if _, err := p.Finish(nil); err == nil {
		t.Fatal("Finish before Start should fail")
	}
	if _, err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := p.Start(); err == nil {
		t.Fatal("second Start should fail")
	}
}

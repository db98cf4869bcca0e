package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestDeriveKeyPure(t *testing.T) {
	shared := bytes.Repeat([]byte{0x42}, 32)

	k1, err := DeriveVerifier(shared)
	if err != nil {
		t.Fatalf("DeriveVerifier: %v", err)
	}
	k2, err := DeriveVerifier(shared)
	if err != nil {
		t.Fatalf("DeriveVerifier: %v", err)
	}
	if k1 != k2 {
		t.Fatal("same input produced different verifiers")
	}

	different := bytes.Repeat([]byte{0x43}, 32)
	k3, err := DeriveVerifier(different)
	if err != nil {
		t.Fatalf("DeriveVerifier: %v", err)
	}
	if k1 == k3 {
		t.Fatal("different shared keys produced the same verifier")
	}
}

func TestDerivePhaseKeyVariesBySideAndPhase(t *testing.T) {
	shared := bytes.Repeat([]byte{0x42}, 32)

	k1, _ := DerivePhaseKey(shared, "side-a", "pake")
	k2, _ := DerivePhaseKey(shared, "side-a", "version")
	k3, _ := DerivePhaseKey(shared, "side-b", "pake")

	if k1 == k2 {
		t.Fatal("different phases produced the same key")
	}
	if k1 == k3 {
		t.Fatal("different sides produced the same key")
	}
}

func TestFormatVerifier(t *testing.T) {
	var v [KeySize]byte
	for i := range v {
		v[i] = 0xab
	}
	formatted := FormatVerifier(v)
	if len(formatted) != 35 {
		t.Fatalf("formatted verifier length = %d, want 35", len(formatted))
	}
	if !strings.Contains(formatted, "-") {
		t.Fatal("formatted verifier missing separators")
	}
}

func TestPurposeInfoStrings(t *testing.T) {
	if got := string(VerifierPurpose.info()); got != "wormhole:verifier" {
		t.Fatalf("verifier info = %q", got)
	}
	if got := string(TransitPurpose.info()); got != "transit:key" {
		t.Fatalf("transit info = %q", got)
	}
	info := string(PhasePurpose("test", "pake").info())
	if !strings.HasPrefix(info, "wormhole:phase:") {
		t.Fatalf("phase info = %q, want wormhole:phase: prefix", info)
	}
}

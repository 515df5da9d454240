package signature

import (
	"bytes"
	"errors"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	pub, _, err := NewEd25519Keypair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}

	addr := EncodeAddress(pub)
	if addr == "" {
		t.Fatal("empty address")
	}

	got, err := DecodeAddress(addr)
	if err != nil {
		t.Fatalf("DecodeAddress failed: %v", err)
	}
	if !bytes.Equal(got, pub) {
		t.Error("decoded public key differs from the original")
	}
}

func TestDecodeAddressRejectsCorruption(t *testing.T) {
	pub, _, err := NewEd25519Keypair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}
	addr := EncodeAddress(pub)

	// Flip one character; either the checksum or the base32 alphabet
	// catches it.
	corrupted := []byte(addr)
	if corrupted[0] == 'A' {
		corrupted[0] = 'B'
	} else {
		corrupted[0] = 'A'
	}
	if _, err := DecodeAddress(string(corrupted)); err == nil {
		t.Error("corrupted address decoded without error")
	}
}

func TestDecodeAddressRejectsBadChecksum(t *testing.T) {
	pub, _, err := NewEd25519Keypair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}

	// Re-encode with a deliberately wrong checksum.
	data := make([]byte, 0, len(pub)+checksumLen)
	data = append(data, pub...)
	check := addressChecksum(pub)
	check[0] ^= 0xff
	data = append(data, check...)

	_, err = DecodeAddress(addrEncoding.EncodeToString(data))
	if !errors.Is(err, ErrBadChecksum) {
		t.Errorf("expected ErrBadChecksum, got %v", err)
	}
}

func TestDecodeAddressRejectsWrongLength(t *testing.T) {
	if _, err := DecodeAddress(addrEncoding.EncodeToString([]byte("short"))); err == nil {
		t.Error("short address decoded without error")
	}
}

func TestSignVerify(t *testing.T) {
	pub, priv, err := NewEd25519Keypair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}

	msg := []byte("MXarbitrary bytes")
	sig := ED25519Sign(priv, msg)
	if !ED25519Verify(pub, msg, sig) {
		t.Error("valid signature rejected")
	}
	if ED25519Verify(pub, []byte("MXother bytes"), sig) {
		t.Error("signature verified over different bytes")
	}
}

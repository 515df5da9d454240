package encryption

import (
	"bytes"
	"testing"

	"avm_wallet/internal/cryptographic/kdf"
)

func TestVaultRoundTrip(t *testing.T) {
	key, err := kdf.VaultKey([]byte("correct horse"), []byte("per-account-salt"))
	if err != nil {
		t.Fatalf("VaultKey failed: %v", err)
	}

	secret := []byte("private key material")
	aad := []byte("account-public-key")

	box, err := AEADEncrypt(key, secret, aad)
	if err != nil {
		t.Fatalf("AEADEncrypt failed: %v", err)
	}

	plain, err := AEADDecrypt(key, box, aad)
	if err != nil {
		t.Fatalf("AEADDecrypt failed: %v", err)
	}
	if !bytes.Equal(plain, secret) {
		t.Error("decrypted plaintext differs")
	}
}

func TestDecryptRejectsWrongCredential(t *testing.T) {
	salt := []byte("per-account-salt")
	good, _ := kdf.VaultKey([]byte("correct horse"), salt)
	bad, _ := kdf.VaultKey([]byte("battery staple"), salt)

	box, err := AEADEncrypt(good, []byte("secret"), nil)
	if err != nil {
		t.Fatalf("AEADEncrypt failed: %v", err)
	}
	if _, err := AEADDecrypt(bad, box, nil); err == nil {
		t.Error("wrong credential decrypted successfully")
	}
}

func TestDecryptRejectsWrongAAD(t *testing.T) {
	key, _ := kdf.VaultKey([]byte("credential"), []byte("salt"))

	box, err := AEADEncrypt(key, []byte("secret"), []byte("account-a"))
	if err != nil {
		t.Fatalf("AEADEncrypt failed: %v", err)
	}
	if _, err := AEADDecrypt(key, box, []byte("account-b")); err == nil {
		t.Error("ciphertext bound to one account opened under another")
	}
}

func TestVaultKeySaltSeparation(t *testing.T) {
	a, _ := kdf.VaultKey([]byte("credential"), []byte("salt-a"))
	b, _ := kdf.VaultKey([]byte("credential"), []byte("salt-b"))
	if bytes.Equal(a, b) {
		t.Error("distinct salts derived the same vault key")
	}
}

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3}
	Zero(b)
	if !bytes.Equal(b, []byte{0, 0, 0}) {
		t.Errorf("Zero left bytes behind: %v", b)
	}
}

package kdf

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

func HKDF(secret, salt, info, buffer []byte) (int, error) {
	h := hkdf.New(sha256.New, secret, salt, info)
	return io.ReadFull(h, buffer)
}

// VaultKey derives the AES key protecting one account's private key
// material from the user's unlock credential. The per-account salt keeps
// two accounts encrypted under the same credential from sharing a key.
// Uses HKDF with SHA-256, info = "VaultKDF".
func VaultKey(credential, salt []byte) ([]byte, error) {
	info := []byte("VaultKDF") // domain separation

	key := make([]byte, 32)
	if _, err := HKDF(credential, salt, info, key); err != nil {
		return nil, err
	}
	return key, nil
}

package signature

import (
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/base32"
	"errors"
	"fmt"
)

// Address format: base32 (no padding) of pubkey || last 4 bytes of the
// pubkey's sha512/256 digest. The checksum catches transcription errors
// before a lookup ever happens.

const checksumLen = 4

var addrEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

var ErrBadChecksum = errors.New("signature: address checksum mismatch")

func addressChecksum(pub []byte) []byte {
	sum := sha512.Sum512_256(pub)
	return sum[len(sum)-checksumLen:]
}

// EncodeAddress derives the textual address of an ed25519 public key.
func EncodeAddress(pub []byte) string {
	data := make([]byte, 0, len(pub)+checksumLen)
	data = append(data, pub...)
	data = append(data, addressChecksum(pub)...)
	return addrEncoding.EncodeToString(data)
}

// DecodeAddress recovers the public key from a textual address, verifying
// length and checksum.
func DecodeAddress(addr string) ([]byte, error) {
	data, err := addrEncoding.DecodeString(addr)
	if err != nil {
		return nil, fmt.Errorf("signature: decode address: %w", err)
	}
	if len(data) != ed25519.PublicKeySize+checksumLen {
		return nil, fmt.Errorf("signature: address has wrong length %d", len(data))
	}

	pub := data[:ed25519.PublicKeySize]
	check := data[ed25519.PublicKeySize:]
	want := addressChecksum(pub)
	for i := range check {
		if check[i] != want[i] {
			return nil, ErrBadChecksum
		}
	}
	return pub, nil
}

// Package transaction decodes opaque transaction payloads, computes
// atomic-group identifiers and validates that a group never straddles
// networks. Encoding is canonical CBOR, so identical transactions always
// produce identical bytes and the derived identifiers are deterministic.
package transaction

import (
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Domain prefixes. A transaction id and a group id can never collide
// because they are hashed under different prefixes.
const (
	txnPrefix   = "TX"
	groupPrefix = "TG"
)

var (
	ErrEmptyGroup       = errors.New("transaction: group is empty")
	ErrMultipleNetworks = errors.New("transaction: transactions are bound for multiple networks")
	ErrGroupIDMismatch  = errors.New("transaction: assigned group id does not match computed group id")
)

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// Transaction is the decoded form of an unsigned transaction payload.
type Transaction struct {
	Type        string `cbor:"type,omitempty"`
	Sender      string `cbor:"snd,omitempty"`
	Receiver    string `cbor:"rcv,omitempty"`
	Amount      uint64 `cbor:"amt,omitempty"`
	Fee         uint64 `cbor:"fee,omitempty"`
	FirstValid  uint64 `cbor:"fv,omitempty"`
	LastValid   uint64 `cbor:"lv,omitempty"`
	GenesisID   string `cbor:"gen,omitempty"`
	GenesisHash []byte `cbor:"gh,omitempty"`
	Note        []byte `cbor:"note,omitempty"`
	Group       []byte `cbor:"grp,omitempty"`
}

// SignedTxn is the wire signature format: the signature alongside the
// transaction it covers.
type SignedTxn struct {
	Sig []byte      `cbor:"sig"`
	Txn Transaction `cbor:"txn"`
}

// Decode parses one opaque payload. Any decoding failure is fatal for the
// whole group the payload belongs to.
func Decode(blob []byte) (*Transaction, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("transaction: empty payload")
	}
	var txn Transaction
	if err := cbor.Unmarshal(blob, &txn); err != nil {
		return nil, fmt.Errorf("transaction: decode: %w", err)
	}
	return &txn, nil
}

// DecodeAll decodes every payload independently; the first failure aborts.
func DecodeAll(blobs [][]byte) ([]*Transaction, error) {
	if len(blobs) == 0 {
		return nil, ErrEmptyGroup
	}
	txns := make([]*Transaction, len(blobs))
	for i, blob := range blobs {
		txn, err := Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("transaction: payload %d: %w", i, err)
		}
		txns[i] = txn
	}
	return txns, nil
}

// Encode returns the canonical encoding of the transaction.
func (t *Transaction) Encode() ([]byte, error) {
	data, err := encMode.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("transaction: encode: %w", err)
	}
	return data, nil
}

// BytesToSign returns the domain-prefixed bytes a signature covers.
func (t *Transaction) BytesToSign() ([]byte, error) {
	enc, err := t.Encode()
	if err != nil {
		return nil, err
	}
	return append([]byte(txnPrefix), enc...), nil
}

// ID is the hash of the domain-prefixed canonical encoding of the
// ungrouped transaction.
func (t *Transaction) ID() ([]byte, error) {
	ungrouped := *t
	ungrouped.Group = nil
	toHash, err := ungrouped.BytesToSign()
	if err != nil {
		return nil, err
	}
	sum := sha512.Sum512_256(toHash)
	return sum[:], nil
}

// GenesisHashKey is the string form used to key sessions and networks.
func (t *Transaction) GenesisHashKey() string {
	return base64.StdEncoding.EncodeToString(t.GenesisHash)
}

// EncodeSigned wraps a raw signature and the transaction into the wire
// signature format.
func EncodeSigned(t *Transaction, sig []byte) ([]byte, error) {
	data, err := encMode.Marshal(&SignedTxn{Sig: sig, Txn: *t})
	if err != nil {
		return nil, fmt.Errorf("transaction: encode signed: %w", err)
	}
	return data, nil
}

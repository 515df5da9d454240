package transaction

import (
	"bytes"
	"crypto/sha512"
)

// GroupID computes the atomic-group identifier over the ordered member
// list: a domain-separated hash of the concatenated canonical encodings of
// the ungrouped transactions. Reordering the members changes the id.
func GroupID(txns []*Transaction) ([]byte, error) {
	if len(txns) == 0 {
		return nil, ErrEmptyGroup
	}
	h := sha512.New512_256()
	h.Write([]byte(groupPrefix))
	for _, txn := range txns {
		ungrouped := *txn
		ungrouped.Group = nil
		enc, err := ungrouped.Encode()
		if err != nil {
			return nil, err
		}
		h.Write(enc)
	}
	return h.Sum(nil), nil
}

// Partition splits a flat list into sub-groups of contiguous equal
// assigned group ids. A transaction with no assigned group id always forms
// a sub-group of one; atomicity is per sub-group, so independent
// transactions may legally sit next to an atomic pair in one request.
func Partition(txns []*Transaction) [][]*Transaction {
	var runs [][]*Transaction
	for i := 0; i < len(txns); {
		j := i + 1
		if len(txns[i].Group) > 0 {
			for j < len(txns) && bytes.Equal(txns[j].Group, txns[i].Group) {
				j++
			}
		}
		runs = append(runs, txns[i:j])
		i = j
	}
	return runs
}

// ValidateGroup checks one sub-group: all members must target exactly one
// network, and an assigned group id must match the id recomputed over the
// sub-group. A sub-group of one carrying an assigned group id is rejected,
// since the rest of its atomic group is missing from the request.
func ValidateGroup(run []*Transaction) error {
	if len(run) == 0 {
		return ErrEmptyGroup
	}

	genesisHash := run[0].GenesisHash
	for _, txn := range run[1:] {
		if !bytes.Equal(txn.GenesisHash, genesisHash) {
			return ErrMultipleNetworks
		}
	}

	if len(run) == 1 {
		if len(run[0].Group) > 0 {
			return ErrGroupIDMismatch
		}
		return nil
	}

	computed, err := GroupID(run)
	if err != nil {
		return err
	}
	for _, txn := range run {
		if len(txn.Group) > 0 && !bytes.Equal(txn.Group, computed) {
			return ErrGroupIDMismatch
		}
	}
	return nil
}

// ValidateGroups partitions the list and validates every sub-group. An
// empty list is invalid input.
func ValidateGroups(txns []*Transaction) error {
	if len(txns) == 0 {
		return ErrEmptyGroup
	}
	for _, run := range Partition(txns) {
		if err := ValidateGroup(run); err != nil {
			return err
		}
	}
	return nil
}

// ApplyGroupIDs assigns the computed group id to every member of each
// multi-transaction sub-group, leaving singletons ungrouped. Call after
// validation and before signing, so signatures cover the group binding.
func ApplyGroupIDs(txns []*Transaction) error {
	for _, run := range Partition(txns) {
		if len(run) < 2 {
			continue
		}
		gid, err := GroupID(run)
		if err != nil {
			return err
		}
		for _, txn := range run {
			txn.Group = gid
		}
	}
	return nil
}

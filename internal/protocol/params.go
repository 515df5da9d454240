package protocol

// Param and result payloads shared by both generations. Wire field names
// differ per generation; these carry the parsed values only.

type EnableParams struct {
	// GenesisHash selects the network; empty means the wallet's default.
	GenesisHash string `json:"genesisHash,omitempty"`
	ProviderID  string `json:"providerId,omitempty"`
}

type AccountInfo struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type EnableResult struct {
	GenesisID   string        `json:"genesisId"`
	GenesisHash string        `json:"genesisHash"`
	ProviderID  string        `json:"providerId"`
	SessionID   string        `json:"sessionId"`
	Accounts    []AccountInfo `json:"accounts"`
}

type NetworkConfig struct {
	GenesisID   string   `json:"genesisId"`
	GenesisHash string   `json:"genesisHash"`
	Methods     []string `json:"methods"`
}

type GetProvidersResult struct {
	ProviderID string          `json:"providerId"`
	Host       string          `json:"host"`
	Name       string          `json:"name"`
	Networks   []NetworkConfig `json:"networks"`
}

type SignBytesParams struct {
	Data        []byte `json:"data"`
	Signer      string `json:"signer"`
	GenesisHash string `json:"genesisHash"`
}

type SignBytesResult struct {
	Signature  []byte `json:"signature"`
	ProviderID string `json:"providerId"`
}

// TxnItem is one entry of a sign-transactions request. Txn is the opaque
// canonical encoding of an unsigned transaction. Signers narrows who must
// sign it: nil means the transaction's sender, an empty list means the
// wallet must not sign this entry at all.
// Absent and empty signer lists mean different things, so Signers
// carries no omitempty.
type TxnItem struct {
	Txn     []byte   `json:"txn"`
	Signers []string `json:"signers"`
}

type SignTxnsParams struct {
	Txns       []TxnItem `json:"txns"`
	ProviderID string    `json:"providerId,omitempty"`
}

// SignTxnsResult carries one entry per input transaction, in input order.
// A nil entry means the wallet was not asked to sign that position, not
// that signing failed; failures reject the whole request instead.
type SignTxnsResult struct {
	Stxns      [][]byte `json:"stxns"`
	ProviderID string   `json:"providerId"`
}

type DisableParams struct {
	GenesisHash string   `json:"genesisHash,omitempty"`
	SessionIDs  []string `json:"sessionIds,omitempty"`
}

type DisableResult struct {
	GenesisHash string   `json:"genesisHash,omitempty"`
	ProviderID  string   `json:"providerId"`
	SessionIDs  []string `json:"sessionIds"`
}

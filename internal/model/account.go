package model

type (
	// Account is a wallet account. EncryptedKey is the private key sealed
	// under a credential-derived vault key with the per-account Salt; it
	// is empty for watch accounts, which carry no key material at all.
	Account struct {
		PublicKey    []byte `json:"publicKey" bson:"publicKey"`
		Address      string `json:"address" bson:"_id"`
		Name         string `json:"name,omitempty" bson:"name,omitempty"`
		EncryptedKey []byte `json:"-" bson:"encryptedKey,omitempty"`
		Salt         []byte `json:"-" bson:"salt,omitempty"`
		Watch        bool   `json:"watch" bson:"watch"`
	}

	// NetworkInfo describes one supported network instance.
	NetworkInfo struct {
		GenesisID   string   `json:"genesisId"`
		GenesisHash string   `json:"genesisHash"`
		Methods     []string `json:"methods"`
	}

	// ClientInfo identifies the requesting origin. It is immutable once
	// attached to a request or event.
	ClientInfo struct {
		Host        string `json:"host"`
		AppName     string `json:"appName"`
		Description string `json:"description,omitempty"`
		IconURL     string `json:"iconUrl,omitempty"`
	}
)

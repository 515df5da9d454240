package background

import (
	"context"
	"crypto/rand"
	"time"

	"go.uber.org/zap"

	"avm_wallet/internal/cryptographic/encryption"
	"avm_wallet/internal/cryptographic/kdf"
	"avm_wallet/internal/cryptographic/signature"
	"avm_wallet/internal/model"
	"avm_wallet/internal/protocol"
	"avm_wallet/internal/protocol/providererror"
	"avm_wallet/internal/transaction"
	"avm_wallet/internal/utils/log"
)

// bytesPrefix domain-separates arbitrary-byte signatures from transaction
// signatures, so a signed blob can never be replayed as a transaction.
const bytesPrefix = "MX"

func (s *Service) approveEnable(ctx context.Context, event *model.Event, addresses []string) (*protocol.Response, *providererror.SerializableError) {
	req := &event.Payload.Message
	params := req.Enable

	if len(addresses) == 0 {
		return nil, providererror.InvalidInput("no addresses were selected for the session", s.providerID)
	}

	accounts := make([]protocol.AccountInfo, 0, len(addresses))
	for _, addr := range addresses {
		account, err := s.accounts.GetByAddress(ctx, addr)
		if err != nil {
			return nil, providererror.Map(err, s.providerID)
		}
		if account == nil {
			return nil, providererror.InvalidInput("selected address is not a wallet account", s.providerID)
		}
		accounts = append(accounts, protocol.AccountInfo{
			Address: account.Address,
			Name:    account.Name,
		})
	}

	network, serr := s.resolveNetwork(params.GenesisHash)
	if serr != nil {
		return nil, serr
	}

	session := &model.Session{
		ID:                  newSessionID(),
		Host:                event.Payload.ClientInfo.Host,
		GenesisHash:         network.GenesisHash,
		AuthorizedAddresses: addresses,
		CreatedAt:           time.Now(),
	}
	if s.sessionTTL > 0 {
		expires := session.CreatedAt.Add(s.sessionTTL)
		session.ExpiresAt = &expires
	}

	if err := s.sessions.Upsert(ctx, session); err != nil {
		return nil, providererror.Map(err, s.providerID)
	}

	log.Info("session authorized",
		zap.String("sessionId", session.ID),
		zap.String("host", session.Host),
		zap.Int("addresses", len(addresses)),
	)
	return &protocol.Response{
		Generation: req.Generation,
		Op:         req.Op,
		RequestID:  req.ID,
		Enable: &protocol.EnableResult{
			GenesisID:   network.GenesisID,
			GenesisHash: network.GenesisHash,
			ProviderID:  s.providerID,
			SessionID:   session.ID,
			Accounts:    accounts,
		},
	}, nil
}

func (s *Service) approveSignBytes(ctx context.Context, event *model.Event, credential []byte) (*protocol.Response, *providererror.SerializableError) {
	req := &event.Payload.Message
	params := req.SignBytes
	host := event.Payload.ClientInfo.Host

	authorized, serr := s.authorizedSet(ctx, host, params.GenesisHash)
	if serr != nil {
		return nil, serr
	}
	if _, ok := authorized[params.Signer]; !ok {
		return nil, providererror.UnauthorizedSigner(params.Signer, s.providerID)
	}

	account, err := s.accounts.GetByAddress(ctx, params.Signer)
	if err != nil {
		return nil, providererror.Map(err, s.providerID)
	}
	if account == nil || account.Watch {
		// A watch account holds no key material; it can never sign.
		return nil, providererror.UnauthorizedSigner(params.Signer, s.providerID)
	}

	priv, serr := s.decryptKey(account, credential)
	if serr != nil {
		return nil, serr
	}
	toSign := append([]byte(bytesPrefix), params.Data...)
	sig := signature.ED25519Sign(priv, toSign)
	encryption.Zero(priv)

	return &protocol.Response{
		Generation: req.Generation,
		Op:         req.Op,
		RequestID:  req.ID,
		SignBytes: &protocol.SignBytesResult{
			Signature:  sig,
			ProviderID: s.providerID,
		},
	}, nil
}

func (s *Service) approveSignTxns(ctx context.Context, event *model.Event, credential []byte) (*protocol.Response, *providererror.SerializableError) {
	req := &event.Payload.Message
	params := req.SignTxns
	host := event.Payload.ClientInfo.Host

	txns, serr := s.decodeAndValidate(params)
	if serr != nil {
		return nil, serr
	}

	genesisHash, serr := s.requestGenesisHash(txns)
	if serr != nil {
		return nil, serr
	}

	authorized, serr := s.authorizedSet(ctx, host, genesisHash)
	if serr != nil {
		return nil, serr
	}

	// Authorization for the whole batch settles before any key is
	// decrypted; one unauthorized signer fails everything, no partial
	// signatures ever leave.
	signers := make([]*model.Account, len(txns))
	for i, item := range params.Txns {
		addr, serr := signerAddress(item, txns[i], s.providerID)
		if serr != nil {
			return nil, serr
		}
		if addr == "" {
			continue // not ours to sign
		}

		if _, ok := authorized[addr]; !ok {
			return nil, providererror.UnauthorizedSigner(addr, s.providerID)
		}
		account, err := s.accounts.GetByAddress(ctx, addr)
		if err != nil {
			return nil, providererror.Map(err, s.providerID)
		}
		if account == nil {
			return nil, providererror.UnauthorizedSigner(addr, s.providerID)
		}
		if account.Watch {
			continue // known address, no key material held here
		}
		signers[i] = account
	}

	if err := transaction.ApplyGroupIDs(txns); err != nil {
		return nil, s.mapTxnError(err)
	}

	stxns := make([][]byte, len(txns))
	for i, account := range signers {
		if account == nil {
			continue
		}

		toSign, err := txns[i].BytesToSign()
		if err != nil {
			return nil, s.mapTxnError(err)
		}

		priv, serr := s.decryptKey(account, credential)
		if serr != nil {
			return nil, serr
		}
		sig := signature.ED25519Sign(priv, toSign)
		encryption.Zero(priv)

		stxn, err := transaction.EncodeSigned(txns[i], sig)
		if err != nil {
			return nil, providererror.Map(err, s.providerID)
		}
		stxns[i] = stxn
	}

	log.Info("transactions signed",
		zap.String("host", host),
		zap.Int("count", len(stxns)),
	)
	return &protocol.Response{
		Generation: req.Generation,
		Op:         req.Op,
		RequestID:  req.ID,
		SignTxns: &protocol.SignTxnsResult{
			Stxns:      stxns,
			ProviderID: s.providerID,
		},
	}, nil
}

// ListAccounts enumerates the wallet's accounts for the approval UI, so
// it can offer an address selection when approving a session grant.
func (s *Service) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	return s.accounts.List(ctx)
}

// CreateAccount generates a fresh keypair and stores it sealed under the
// unlock credential. The plaintext private key is wiped before returning.
func (s *Service) CreateAccount(ctx context.Context, name string, credential []byte) (*model.Account, error) {
	pub, priv, err := signature.NewEd25519Keypair()
	if err != nil {
		return nil, err
	}
	defer encryption.Zero(priv)

	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	vaultKey, err := kdf.VaultKey(credential, salt)
	if err != nil {
		return nil, err
	}
	defer encryption.Zero(vaultKey)

	sealed, err := encryption.AEADEncrypt(vaultKey, priv, pub)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		PublicKey:    pub,
		Address:      signature.EncodeAddress(pub),
		Name:         name,
		EncryptedKey: sealed,
		Salt:         salt,
	}
	if err := s.accounts.Upsert(ctx, account); err != nil {
		return nil, err
	}

	log.Info("account created",
		zap.String("address", account.Address),
		zap.String("name", name),
	)
	return account, nil
}

// authorizedSet resolves the addresses host may use on the network. An
// absent session is not an error; it just authorizes nothing.
func (s *Service) authorizedSet(ctx context.Context, host, genesisHash string) (map[string]struct{}, *providererror.SerializableError) {
	session, err := s.sessions.FindByHostAndNetwork(ctx, host, genesisHash)
	if err != nil {
		return nil, providererror.Map(err, s.providerID)
	}

	set := make(map[string]struct{})
	if session != nil {
		for _, addr := range model.AuthorizedAddressesForHost(host, []*model.Session{session}) {
			set[addr] = struct{}{}
		}
	}
	return set, nil
}

// signerAddress picks who must sign one entry: the explicit signer if one
// was named, the transaction's sender when none was, and nobody when the
// entry opted out with an empty list. Multiple signers would mean a
// multi-signature account, which this wallet does not hold.
func signerAddress(item protocol.TxnItem, txn *transaction.Transaction, providerID string) (string, *providererror.SerializableError) {
	switch {
	case item.Signers == nil:
		return txn.Sender, nil
	case len(item.Signers) == 0:
		return "", nil
	case len(item.Signers) == 1:
		return item.Signers[0], nil
	default:
		return "", providererror.MethodNotSupported("multisig signing", providerID)
	}
}

// decryptKey unseals one account's private key with the unlock
// credential. Failures collapse to an invalid-password error carrying no
// hint of which account was involved.
func (s *Service) decryptKey(account *model.Account, credential []byte) ([]byte, *providererror.SerializableError) {
	vaultKey, err := kdf.VaultKey(credential, account.Salt)
	if err != nil {
		return nil, providererror.InvalidPassword(s.providerID)
	}
	defer encryption.Zero(vaultKey)

	priv, err := encryption.AEADDecrypt(vaultKey, account.EncryptedKey, account.PublicKey)
	if err != nil {
		return nil, providererror.InvalidPassword(s.providerID)
	}
	return priv, nil
}

package background

import (
	"context"
	"sync"
	"testing"
	"time"

	"avm_wallet/internal/cryptographic/encryption"
	"avm_wallet/internal/cryptographic/kdf"
	"avm_wallet/internal/cryptographic/signature"
	"avm_wallet/internal/model"
)

// In-memory stand-ins for the mongo and redis backed stores, mirroring
// their semantics: expired sessions are invisible, a missing record is
// (nil, nil), upsert replaces by (host, genesisHash).

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]*model.Session)}
}

func (m *memSessions) FindByHostAndNetwork(_ context.Context, host, genesisHash string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, s := range m.sessions {
		if s.Host == host && s.GenesisHash == genesisHash && !s.Expired(now) {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memSessions) ListByHost(_ context.Context, host string) ([]*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var out []*model.Session
	for _, s := range m.sessions {
		if s.Host == host && !s.Expired(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSessions) Upsert(_ context.Context, session *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.Host == session.Host && s.GenesisHash == session.GenesisHash {
			delete(m.sessions, id)
		}
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *memSessions) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memSessions) RemoveByHostAndNetwork(_ context.Context, host, genesisHash string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []string
	for id, s := range m.sessions {
		if s.Host != host {
			continue
		}
		if genesisHash != "" && s.GenesisHash != genesisHash {
			continue
		}
		removed = append(removed, id)
		delete(m.sessions, id)
	}
	return removed, nil
}

type memAccounts struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	getCalls int
}

func newMemAccounts(accounts ...*model.Account) *memAccounts {
	m := &memAccounts{accounts: make(map[string]*model.Account)}
	for _, account := range accounts {
		m.accounts[account.Address] = account
	}
	return m
}

func (m *memAccounts) GetByAddress(_ context.Context, address string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	return m.accounts[address], nil
}

func (m *memAccounts) Upsert(_ context.Context, account *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.Address] = account
	return nil
}

func (m *memAccounts) List(_ context.Context) ([]*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		out = append(out, account)
	}
	return out, nil
}

type memEvents struct {
	mu     sync.Mutex
	events map[string]*model.Event
}

func newMemEvents() *memEvents {
	return &memEvents{events: make(map[string]*model.Event)}
}

func (m *memEvents) Put(_ context.Context, event *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.ID] = event
	return nil
}

func (m *memEvents) Get(_ context.Context, id string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[id], nil
}

func (m *memEvents) List(_ context.Context) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Event, 0, len(m.events))
	for _, event := range m.events {
		out = append(out, event)
	}
	return out, nil
}

func (m *memEvents) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.events, id)
	return nil
}

func (m *memEvents) RemoveByTab(_ context.Context, tabID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []string
	for id, event := range m.events {
		if event.OriginTabID == tabID {
			removed = append(removed, id)
			delete(m.events, id)
		}
	}
	return removed, nil
}

func (m *memEvents) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func verifySignature(pub, message, sig []byte) bool {
	return signature.ED25519Verify(pub, message, sig)
}

// newTestAccount creates a wallet account whose private key is sealed
// under credential, returning it with the raw keypair for verification.
func newTestAccount(t *testing.T, name string, credential []byte) (*model.Account, []byte, []byte) {
	t.Helper()

	pub, priv, err := signature.NewEd25519Keypair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}

	salt := []byte("salt-" + name)
	vaultKey, err := kdf.VaultKey(credential, salt)
	if err != nil {
		t.Fatalf("vault key: %v", err)
	}
	sealed, err := encryption.AEADEncrypt(vaultKey, priv, pub)
	if err != nil {
		t.Fatalf("seal key: %v", err)
	}

	return &model.Account{
		PublicKey:    pub,
		Address:      signature.EncodeAddress(pub),
		Name:         name,
		EncryptedKey: sealed,
		Salt:         salt,
	}, pub, priv
}
